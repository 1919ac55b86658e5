package inverter

// Modbus input register addresses for Sungrow string inverters
// (SG series). Addresses are zero-based as sent on the wire.
const (
	RegSerialNumber   = 4989 // 10 registers, ASCII
	RegDeviceTypeCode = 4999
	RegNominalPower   = 5000 // x0.1 kW

	RegMPPT1Voltage = 5010 // x0.1 V
	RegMPPT1Current = 5011 // x0.01 A
	RegMPPT2Voltage = 5012 // x0.1 V
	RegMPPT2Current = 5013 // x0.01 A
	RegTotalDCPower = 5016 // U32, W

	RegRunningState = 5037
)

var runningStates = map[uint16]string{
	0x0000: "Running",
	0x8000: "Stopped",
	0x1300: "Key stop",
	0x1500: "Emergency stop",
	0x1400: "Standby",
	0x1200: "Initial standby",
	0x1600: "Starting",
	0x9100: "Alarm run",
	0x8100: "Derating run",
	0x8200: "Dispatch run",
	0x5500: "Fault",
	0x2500: "Communicate fault",
}

// RunningStateString maps a running-state register value to a
// readable label.
func RunningStateString(state uint16) string {
	if s, ok := runningStates[state]; ok {
		return s
	}
	return "Unknown"
}
