package device

import (
	"fmt"
	"log/slog"
	"sync"
)

// Manager owns the single Device instance used by a process and selects the
// best available backend at startup. Benchmark cases receive the device
// through the manager rather than a package-level singleton.
type Manager struct {
	device Device
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewManager creates a manager and initializes a backend: the accelerated
// backend when it is compiled in and a device is present, the simulated
// device otherwise.
func NewManager(logger *slog.Logger, sim SimConfig) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{logger: logger}

	if dev, err := m.tryCreateAcceleratedDevice(); err != nil {
		logger.Warn("accelerated backend unavailable", "error", err)
	} else if dev != nil {
		m.device = dev
		logger.Info("using accelerated backend", "device", dev.Info().Name)
		return m, nil
	}

	m.device = NewSimDevice(logger, sim)
	m.logger.Info("using simulated backend", "device", m.device.Info().Name)
	return m, nil
}

// Device returns the selected device.
func (m *Manager) Device() Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

// Info returns the selected device's capabilities.
func (m *Manager) Info() Info {
	dev := m.Device()
	if dev == nil {
		return Info{Name: "no device"}
	}
	return dev.Info()
}

// IsAccelerated reports whether a hardware backend is active.
func (m *Manager) IsAccelerated() bool {
	dev := m.Device()
	if dev == nil {
		return false
	}
	_, isSim := dev.(*SimDevice)
	return !isSim
}

// Cleanup releases the device. The manager must not be used afterwards.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil
	}
	if err := m.device.Close(); err != nil {
		return fmt.Errorf("close device: %w", err)
	}
	m.device = nil
	return nil
}
