package inverter

import (
	"fmt"
	"time"

	"pv-sizer/internal/modbus"
)

// LiveData is a snapshot of the DC side of a running inverter, the
// quantities a string design can be checked against in the field.
type LiveData struct {
	Timestamp time.Time `json:"timestamp"`

	SerialNumber   string  `json:"serial_number"`
	DeviceTypeCode uint16  `json:"device_type_code"`
	NominalPowerKW float64 `json:"nominal_power_kw"`

	MPPT1VoltageV float64 `json:"mppt1_voltage_v"`
	MPPT1CurrentA float64 `json:"mppt1_current_a"`
	MPPT2VoltageV float64 `json:"mppt2_voltage_v"`
	MPPT2CurrentA float64 `json:"mppt2_current_a"`
	TotalDCPowerW uint32  `json:"total_dc_power_w"`

	RunningState       uint16 `json:"running_state"`
	RunningStateString string `json:"running_state_string"`
	IsOnline           bool   `json:"is_online"`
}

// MPPTVoltages returns the per-channel DC voltages in channel order.
func (d *LiveData) MPPTVoltages() []float64 {
	return []float64{d.MPPT1VoltageV, d.MPPT2VoltageV}
}

// Probe reads the DC-side registers of a Sungrow inverter over
// Modbus TCP.
type Probe struct {
	client *modbus.Client
}

func NewProbe(client *modbus.Client) *Probe {
	return &Probe{client: client}
}

// Read takes a full snapshot. On a transport error the partial
// snapshot is returned with IsOnline false so callers can still log
// what was read.
func (p *Probe) Read() (*LiveData, error) {
	data := &LiveData{
		Timestamp: time.Now(),
		IsOnline:  true,
	}

	serial, err := p.client.ReadString(RegSerialNumber, 10)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read serial number: %w", err)
	}
	data.SerialNumber = serial

	deviceType, err := p.client.ReadU16(RegDeviceTypeCode)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read device type: %w", err)
	}
	data.DeviceTypeCode = deviceType

	nominal, err := p.client.ReadU16(RegNominalPower)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read nominal power: %w", err)
	}
	data.NominalPowerKW = float64(nominal) * 0.1

	mppt1V, err := p.client.ReadU16(RegMPPT1Voltage)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read MPPT1 voltage: %w", err)
	}
	data.MPPT1VoltageV = float64(mppt1V) * 0.1

	mppt1I, err := p.client.ReadU16(RegMPPT1Current)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read MPPT1 current: %w", err)
	}
	data.MPPT1CurrentA = float64(mppt1I) * 0.01

	mppt2V, err := p.client.ReadU16(RegMPPT2Voltage)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read MPPT2 voltage: %w", err)
	}
	data.MPPT2VoltageV = float64(mppt2V) * 0.1

	mppt2I, err := p.client.ReadU16(RegMPPT2Current)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read MPPT2 current: %w", err)
	}
	data.MPPT2CurrentA = float64(mppt2I) * 0.01

	dcPower, err := p.client.ReadU32(RegTotalDCPower)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read DC power: %w", err)
	}
	data.TotalDCPowerW = dcPower

	state, err := p.client.ReadU16(RegRunningState)
	if err != nil {
		data.IsOnline = false
		return data, fmt.Errorf("failed to read running state: %w", err)
	}
	data.RunningState = state
	data.RunningStateString = RunningStateString(state)

	return data, nil
}
