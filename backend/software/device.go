package software

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/overdraw/backend"
	"github.com/gogpu/overdraw/gpucore"
)

func init() {
	backend.Register(backend.NameSoftware, func() (gpucore.Device, error) {
		return New(), nil
	})
}

// Device is the CPU implementation of gpucore.Device.
//
// Device is NOT thread-safe.
type Device struct {
	log    *slog.Logger
	closed bool
}

var _ gpucore.Device = (*Device)(nil)

// New creates a software device.
func New() *Device {
	return &Device{log: backend.NopLogger()}
}

// Name returns "software".
func (d *Device) Name() string { return backend.NameSoftware }

// SetLogger sets the device logger. Nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = backend.NopLogger()
	}
	d.log = l
}

// NewTarget allocates a zeroed width×height target.
func (d *Device) NewTarget(width, height int) (gpucore.Target, error) {
	if d.closed {
		return nil, gpucore.ErrDeviceClosed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: target %dx%d: %w", width, height, gpucore.ErrInvalidSize)
	}
	d.log.Debug("software: target allocated", "width", width, "height", height)
	return &Target{
		dev:    d,
		width:  width,
		height: height,
		pix:    make([]float32, width*height),
	}, nil
}

// NewBuffer allocates a zeroed buffer of slots uint32 values.
func (d *Device) NewBuffer(slots int) (gpucore.Buffer, error) {
	if d.closed {
		return nil, gpucore.ErrDeviceClosed
	}
	if slots <= 0 {
		return nil, fmt.Errorf("software: buffer of %d slots: %w", slots, gpucore.ErrInvalidSize)
	}
	return &Buffer{dev: d, data: make([]uint32, slots)}, nil
}

// Draw rasterizes pass into target.
func (d *Device) Draw(target gpucore.Target, pass *gpucore.DrawPass) error {
	if d.closed {
		return gpucore.ErrDeviceClosed
	}
	t, err := d.target(target)
	if err != nil {
		return err
	}
	if len(pass.Vertices)%3 != 0 {
		return fmt.Errorf("software: draw %q: %d vertices is not a triangle list", pass.Label, len(pass.Vertices))
	}

	if pass.Clear {
		for i := range t.pix {
			t.pix[i] = pass.ClearValue
		}
	}

	var shade func(i int)
	switch pass.Blend {
	case gpucore.BlendAdditive:
		shade = func(i int) { t.pix[i] += pass.Value }
	default:
		shade = func(i int) { t.pix[i] = pass.Value }
	}

	v := pass.Vertices
	for i := 0; i+2 < len(v); i += 3 {
		rasterizeTriangle(t.width, t.height, v[i], v[i+1], v[i+2], shade)
	}
	return nil
}

// Dispatch runs pass.Kernel over src into dst.
func (d *Device) Dispatch(src gpucore.Target, dst gpucore.Buffer, pass *gpucore.DispatchPass) error {
	if d.closed {
		return gpucore.ErrDeviceClosed
	}
	if pass.Kernel != gpucore.KernelTileReduce {
		return fmt.Errorf("software: dispatch %q: %w", pass.Kernel, gpucore.ErrKernelNotFound)
	}
	t, err := d.target(src)
	if err != nil {
		return err
	}
	b, ok := dst.(*Buffer)
	if !ok || b.dev != d {
		return fmt.Errorf("software: dispatch buffer: %w", gpucore.ErrForeignResource)
	}
	if b.released {
		return fmt.Errorf("software: dispatch buffer: %w", gpucore.ErrReleased)
	}
	if len(b.data) < gpucore.AccumulatorSize {
		return fmt.Errorf("software: dispatch buffer has %d slots, need %d: %w",
			len(b.data), gpucore.AccumulatorSize, gpucore.ErrInvalidSize)
	}

	d.log.Debug("software: tile reduce", "width", t.width, "height", t.height,
		"groups_x", pass.GroupsX, "groups_y", pass.GroupsY, "scale", pass.FragmentScale)

	params := gpucore.NewReduceParams(t.width, t.height, pass.FragmentScale)
	for gy := range min(pass.GroupsY, gpucore.GridDimension) {
		for gx := range min(pass.GroupsX, gpucore.GridDimension) {
			reduceWorkgroup(t, b.data, &params, gx, gy)
		}
	}
	return nil
}

// Close marks the device closed. Existing resources become unusable.
func (d *Device) Close() {
	d.closed = true
}

func (d *Device) target(t gpucore.Target) (*Target, error) {
	st, ok := t.(*Target)
	if !ok || st.dev != d {
		return nil, fmt.Errorf("software: target: %w", gpucore.ErrForeignResource)
	}
	if st.released {
		return nil, fmt.Errorf("software: target: %w", gpucore.ErrReleased)
	}
	return st, nil
}
