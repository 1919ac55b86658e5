package monitor

import (
	"context"
	"sync"
	"time"

	"pv-sizer/internal/inverter"
	"pv-sizer/internal/modbus"
	"pv-sizer/internal/mqtt"
	"pv-sizer/internal/sizing"

	"go.uber.org/zap"
)

// Monitor periodically probes a live inverter and compares the
// measured MPPT voltages against the window the string design
// predicts. Voltages outside the window usually mean the array was
// not wired as designed.
type Monitor struct {
	client    *modbus.Client
	probe     *inverter.Probe
	publisher *mqtt.Publisher
	interval  time.Duration
	enabled   bool

	minV float64 // inverter MPPT tracking floor
	maxV float64 // cold open-circuit voltage of the designed string

	mu        sync.RWMutex
	latest    *inverter.LiveData
	isRunning bool
}

type Config struct {
	Client    *modbus.Client
	Publisher *mqtt.Publisher
	Interval  time.Duration
	Enabled   bool

	// Design describes the string layout being supervised.
	Inverter sizing.Inverter
	Module   sizing.Module
	NSeries  int
	TAmbMin  float64
	Policy   sizing.Policy
}

func New(cfg Config) *Monitor {
	temps := sizing.ModuleAtTemps(cfg.Module, sizing.DefaultTCellHot, cfg.TAmbMin, cfg.Policy)

	return &Monitor{
		client:    cfg.Client,
		probe:     inverter.NewProbe(cfg.Client),
		publisher: cfg.Publisher,
		interval:  cfg.Interval,
		enabled:   cfg.Enabled,
		minV:      cfg.Inverter.MPPTMinV,
		maxV:      temps.VocCold * float64(cfg.NSeries),
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	if !m.enabled {
		zap.S().Info("Monitor is disabled")
		return nil
	}

	m.mu.Lock()
	m.isRunning = true
	m.mu.Unlock()

	zap.S().Infof("Starting monitor with interval %s", m.interval)

	m.step()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("Monitor stopped")
			m.mu.Lock()
			m.isRunning = false
			m.mu.Unlock()
			return nil
		case <-ticker.C:
			m.step()
		}
	}
}

func (m *Monitor) step() {
	if err := m.client.Connect(); err != nil {
		zap.S().Warnf("Error connecting to inverter: %v", err)
		return
	}

	data, err := m.probe.Read()
	if err != nil {
		zap.S().Warnf("Error reading inverter: %v", err)
		if reconnErr := m.client.Reconnect(); reconnErr != nil {
			zap.S().Warnf("Failed to reconnect: %v", reconnErr)
			return
		}
		data, err = m.probe.Read()
		if err != nil {
			zap.S().Warnf("Error reading inverter after reconnect: %v", err)
			return
		}
	}

	m.mu.Lock()
	m.latest = data
	m.mu.Unlock()

	for i, v := range data.MPPTVoltages() {
		// Idle channels sit at or near 0 V and are not a finding.
		if v < 1.0 {
			continue
		}
		if v < m.minV || v > m.maxV {
			zap.S().Warnf("MPPT%d voltage %.1fV outside design window [%.1fV, %.1fV]",
				i+1, v, m.minV, m.maxV)
		}
	}

	if m.publisher != nil {
		if err := m.publisher.PublishLive(data); err != nil {
			zap.S().Warnf("Error publishing live data: %v", err)
		}
	}

	zap.S().Infof("Probed: DC=%dW, MPPT1=%.1fV, MPPT2=%.1fV, state=%s",
		data.TotalDCPowerW, data.MPPT1VoltageV, data.MPPT2VoltageV, data.RunningStateString)
}

// ProbeOnce takes a single reading, connecting on demand.
func (m *Monitor) ProbeOnce() (*inverter.LiveData, error) {
	if !m.client.IsConnected() {
		if err := m.client.Connect(); err != nil {
			return nil, err
		}
	}

	data, err := m.probe.Read()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.latest = data
	m.mu.Unlock()

	return data, nil
}

func (m *Monitor) Latest() *inverter.LiveData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

func (m *Monitor) Stop() {
	if m.client != nil {
		m.client.Close()
	}
}
