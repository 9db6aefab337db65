//go:build opencl
// +build opencl

package device

// tryCreateAcceleratedDevice attempts to open the first OpenCL device.
func (m *Manager) tryCreateAcceleratedDevice() (Device, error) {
	return NewOpenCLDevice(m.logger)
}
