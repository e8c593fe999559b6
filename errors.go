package overdraw

import "errors"

var (
	// ErrAlreadyRunning is returned by Monitor.Start on a running monitor.
	ErrAlreadyRunning = errors.New("overdraw: attempt to start monitor twice")

	// ErrNotRunning is returned by Monitor operations that need Start first.
	ErrNotRunning = errors.New("overdraw: monitor not running")

	// ErrInvalidConfig is returned for configurations that fail Validate.
	ErrInvalidConfig = errors.New("overdraw: invalid config")

	// ErrNilDevice is returned when a nil gpucore.Device is passed.
	ErrNilDevice = errors.New("overdraw: nil device")

	// ErrSamplerClosed is returned by Tick after Close.
	ErrSamplerClosed = errors.New("overdraw: sampler closed")

	// ErrSurfaceNotComparable is returned by Monitor.Reconcile for a surface
	// whose dynamic type cannot be used as a map key.
	ErrSurfaceNotComparable = errors.New("overdraw: surface type is not comparable")
)
