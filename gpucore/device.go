package gpucore

import "errors"

// Sentinel errors returned by Device implementations.
var (
	// ErrKernelNotFound is returned by Dispatch for an unknown kernel name.
	ErrKernelNotFound = errors.New("gpucore: kernel not found")

	// ErrOutOfMemory is returned when a target or buffer cannot be allocated.
	ErrOutOfMemory = errors.New("gpucore: out of memory")

	// ErrInvalidSize is returned when a target or buffer size is not positive.
	ErrInvalidSize = errors.New("gpucore: invalid size")

	// ErrForeignResource is returned when a Target or Buffer created by a
	// different Device is passed in.
	ErrForeignResource = errors.New("gpucore: resource belongs to another device")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpucore: resource released")

	// ErrDeviceClosed is returned by every operation after Close.
	ErrDeviceClosed = errors.New("gpucore: device closed")
)

// Device abstracts over the graphics backends the sampler can run on.
//
// Resource lifecycle:
//   - Targets and buffers are created via New* methods
//   - Resources must be explicitly released via their Release method
//   - Releasing a resource while a pass uses it is undefined behavior
//   - Released resources must not be passed back to the device
//
// Draw and Dispatch are ordered: a Dispatch observes every earlier Draw on
// the same target, and Buffer.Read observes every earlier Dispatch.
// Implementations must be safe for use from one goroutine at a time; the
// overdraw Monitor serializes all access.
type Device interface {
	// Name returns the backend name (e.g. "wgpu", "software").
	Name() string

	// NewTarget allocates a width×height TargetFormat render target.
	NewTarget(width, height int) (Target, error)

	// NewBuffer allocates a storage buffer of slots uint32 values.
	NewBuffer(slots int) (Buffer, error)

	// Draw executes a render pass into target.
	Draw(target Target, pass *DrawPass) error

	// Dispatch runs pass.Kernel with src bound as input and dst bound as
	// output, over a pass.GroupsX×pass.GroupsY workgroup grid.
	// Returns ErrKernelNotFound if the device has no such kernel.
	Dispatch(src Target, dst Buffer, pass *DispatchPass) error

	// Close releases all device-owned resources.
	Close()
}

// Target is an off-screen render target owned by a Device.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Release frees the target. Safe to call more than once.
	Release()
}

// Buffer is a uint32 storage buffer owned by a Device.
type Buffer interface {
	// Len returns the number of uint32 slots.
	Len() int

	// Write uploads data starting at slot 0. len(data) must not exceed Len.
	Write(data []uint32) error

	// Read copies the buffer contents into dst, blocking until all
	// previously submitted work has completed. len(dst) must not exceed Len.
	Read(dst []uint32) error

	// Release frees the buffer. Safe to call more than once.
	Release()
}
