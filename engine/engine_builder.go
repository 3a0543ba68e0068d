package engine

import "github.com/cogentcore/webgpu/wgpu"

// engineConfig collects builder options before the backend is constructed.
type engineConfig struct {
	device               *wgpu.Device
	queue                *wgpu.Queue
	forceFallbackAdapter bool
}

// EngineBuilderOption is a functional option for configuring an Engine via NewEngine.
type EngineBuilderOption func(*engineConfig)

// WithDevice is an option builder that supplies an existing WebGPU device.
// When set together with WithQueue, the backend skips adapter/device acquisition
// and shares the application's device.
//
// Parameters:
//   - device: the WebGPU device to use
//
// Returns:
//   - EngineBuilderOption: a function that applies the device option
func WithDevice(device *wgpu.Device) EngineBuilderOption {
	return func(c *engineConfig) {
		c.device = device
	}
}

// WithQueue is an option builder that supplies an existing WebGPU queue.
//
// Parameters:
//   - queue: the WebGPU queue to use
//
// Returns:
//   - EngineBuilderOption: a function that applies the queue option
func WithQueue(queue *wgpu.Queue) EngineBuilderOption {
	return func(c *engineConfig) {
		c.queue = queue
	}
}

// WithForceFallbackAdapter is an option builder that forces adapter acquisition
// to select a software fallback adapter. Only relevant when no device is supplied.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - EngineBuilderOption: a function that applies the fallback option
func WithForceFallbackAdapter(force bool) EngineBuilderOption {
	return func(c *engineConfig) {
		c.forceFallbackAdapter = force
	}
}
