package compute

import "errors"

var (
	// ErrNoAdapter is returned by RequestDevice when the build has no device support.
	ErrNoAdapter = errors.New("compute: no adapter available")
	// ErrDeviceLost is returned for operations on a destroyed device.
	ErrDeviceLost = errors.New("compute: device lost")
	// ErrOutOfMemory is returned when a buffer would exceed the device memory limit.
	ErrOutOfMemory = errors.New("compute: out of device memory")
	// ErrValidation is returned for invalid buffer usage, bindings or map state.
	ErrValidation = errors.New("compute: validation error")
)
