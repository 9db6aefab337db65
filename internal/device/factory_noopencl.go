//go:build !opencl
// +build !opencl

package device

// tryCreateAcceleratedDevice reports no accelerated backend when the binary
// is built without OpenCL support.
func (m *Manager) tryCreateAcceleratedDevice() (Device, error) {
	m.logger.Debug("compiled without OpenCL support")
	return nil, nil
}
