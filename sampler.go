package overdraw

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overdraw/gpucore"
	"github.com/gogpu/overdraw/surface"
)

// Sampler measures the overdraw of one surface.
//
// A Sampler owns an off-screen target sized to its surface and a
// gpucore.AccumulatorSize-slot accumulator buffer. It is NOT thread-safe;
// Monitor serializes access to the samplers it owns.
type Sampler struct {
	device gpucore.Device
	shader gpucore.ReplacementShader
	log    *slog.Logger

	target    surface.Surface
	boundRole surface.Role
	enabled   bool
	closed    bool

	offscreen   gpucore.Target
	accumulator gpucore.Buffer
	zeros       []uint32
	readback    []uint32

	fragmentCount int64
	overdrawRatio float64
}

// NewSampler creates an enabled, unbound sampler and allocates its
// accumulator on dev.
func NewSampler(dev gpucore.Device, opts ...Option) (*Sampler, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	log := cfg.logger()
	propagateLogger(dev, log)
	return newSampler(dev, cfg.Shader, log)
}

func newSampler(dev gpucore.Device, shader gpucore.ReplacementShader, log *slog.Logger) (*Sampler, error) {
	acc, err := dev.NewBuffer(gpucore.AccumulatorSize)
	if err != nil {
		return nil, fmt.Errorf("overdraw: allocate accumulator: %w", err)
	}
	return &Sampler{
		device:      dev,
		shader:      shader,
		log:         log,
		enabled:     true,
		accumulator: acc,
		zeros:       make([]uint32, gpucore.AccumulatorSize),
		readback:    make([]uint32, gpucore.AccumulatorSize),
	}, nil
}

// Bind associates the sampler with s and records its composition role.
// Binding a new surface keeps the off-screen target; the next Tick
// reallocates it if the resolution differs.
func (s *Sampler) Bind(target surface.Surface) {
	s.target = target
	s.fragmentCount, s.overdrawRatio = 0, 0
	if target != nil {
		s.boundRole = target.Role()
	}
}

// Surface returns the bound surface, or nil.
func (s *Sampler) Surface() surface.Surface { return s.target }

// BoundRole returns the composition role the surface had when it was last
// bound or measured.
func (s *Sampler) BoundRole() surface.Role { return s.boundRole }

// SetEnabled enables or disables measurement. A disabled sampler reports
// zero metrics and Tick does nothing.
func (s *Sampler) SetEnabled(enabled bool) { s.enabled = enabled }

// Enabled reports whether the sampler measures on Tick.
func (s *Sampler) Enabled() bool { return s.enabled }

// FragmentCount returns the fragments counted by the last cycle, or 0 when
// the sampler is disabled or unbound.
func (s *Sampler) FragmentCount() int64 {
	if !s.active() {
		return 0
	}
	return s.fragmentCount
}

// OverdrawRatio returns FragmentCount divided by the off-screen area, or 0
// when the sampler is disabled or unbound.
func (s *Sampler) OverdrawRatio() float64 {
	if !s.active() {
		return 0
	}
	return s.overdrawRatio
}

// TargetSize returns the off-screen target resolution, or (0, 0) before
// the first measured cycle.
func (s *Sampler) TargetSize() (width, height int) {
	if s.offscreen == nil {
		return 0, 0
	}
	return s.offscreen.Width(), s.offscreen.Height()
}

// Offscreen returns the off-screen target, or nil.
func (s *Sampler) Offscreen() gpucore.Target { return s.offscreen }

// Close releases the off-screen target and the accumulator and unbinds the
// surface. Close is idempotent.
func (s *Sampler) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.offscreen != nil {
		s.offscreen.Release()
		s.offscreen = nil
	}
	if s.accumulator != nil {
		s.accumulator.Release()
		s.accumulator = nil
	}
	s.target = nil
	s.fragmentCount, s.overdrawRatio = 0, 0
}

func (s *Sampler) active() bool {
	return s.enabled && s.target != nil && !s.closed
}

// Tick runs one measurement cycle.
//
// A disabled or unbound sampler does nothing. A destroyed or zero-area
// surface yields zero metrics and no error. Allocation and dispatch
// failures are returned. The surface's clear mode, clear color, target,
// enabled flag, role, stack and renderer index are restored before Tick
// returns, whatever the outcome.
func (s *Sampler) Tick() error {
	if s.closed {
		return ErrSamplerClosed
	}
	if !s.active() {
		return nil
	}

	t := s.target
	if !t.Alive() {
		s.log.Warn("overdraw: surface destroyed, cycle skipped", "surface", t.Name())
		s.fragmentCount, s.overdrawRatio = 0, 0
		return nil
	}

	state := surface.Capture(t)
	s.boundRole = state.Role

	width, height := t.PixelSize()
	if width <= 0 || height <= 0 {
		s.fragmentCount, s.overdrawRatio = 0, 0
		return nil
	}

	if err := s.ensureOffscreen(width, height); err != nil {
		s.fragmentCount, s.overdrawRatio = 0, 0
		return err
	}

	count, err := s.measure(t, state, width, height)
	if err != nil {
		s.fragmentCount, s.overdrawRatio = 0, 0
		if errors.Is(err, surface.ErrDestroyed) {
			s.log.Warn("overdraw: surface destroyed during render", "surface", t.Name())
			return nil
		}
		return err
	}

	s.fragmentCount = count
	s.overdrawRatio = float64(count) / float64(width*height)
	return nil
}

// measure renders t in isolation and reduces the result. The surface state
// is restored from state on return.
func (s *Sampler) measure(t surface.Surface, state surface.State, width, height int) (int64, error) {
	defer state.Apply(t)

	t.SetClearMode(surface.ClearSolidColor)
	t.SetClearColor(gputypes.ColorTransparent)
	t.SetTarget(s.offscreen)
	t.SetEnabled(false)
	t.SetStack(nil)
	t.SetRole(surface.RoleBase)
	t.SetRendererIndex(surface.RendererOverdraw)

	if err := t.Render(&s.shader); err != nil {
		return 0, fmt.Errorf("overdraw: render %q: %w", t.Name(), err)
	}
	if !t.Alive() {
		return 0, surface.ErrDestroyed
	}
	return s.reduce(width, height)
}

// reduce zeroes the accumulator, dispatches the tile reduction over the
// off-screen target and sums the read-back slots.
func (s *Sampler) reduce(width, height int) (int64, error) {
	if err := s.accumulator.Write(s.zeros); err != nil {
		return 0, fmt.Errorf("overdraw: zero accumulator: %w", err)
	}

	gx, gy := gpucore.DispatchSize(width, height)
	s.log.Debug("overdraw: dispatch", "kernel", gpucore.KernelTileReduce,
		"width", width, "height", height, "groups_x", gx, "groups_y", gy)

	pass := &gpucore.DispatchPass{
		Kernel:        gpucore.KernelTileReduce,
		GroupsX:       gx,
		GroupsY:       gy,
		FragmentScale: gpucore.FragmentScale(s.shader.FragmentWeight),
	}
	if err := s.device.Dispatch(s.offscreen, s.accumulator, pass); err != nil {
		return 0, fmt.Errorf("overdraw: dispatch %s: %w", gpucore.KernelTileReduce, err)
	}
	if err := s.accumulator.Read(s.readback); err != nil {
		return 0, fmt.Errorf("overdraw: read accumulator: %w", err)
	}
	return gpucore.SumSlots(s.readback), nil
}

// ensureOffscreen reallocates the off-screen target when its size differs
// from width×height.
func (s *Sampler) ensureOffscreen(width, height int) error {
	if s.offscreen != nil && s.offscreen.Width() == width && s.offscreen.Height() == height {
		return nil
	}
	if s.offscreen != nil {
		s.offscreen.Release()
		s.offscreen = nil
	}
	target, err := s.device.NewTarget(width, height)
	if err != nil {
		return fmt.Errorf("overdraw: allocate %dx%d target: %w", width, height, err)
	}
	s.log.Debug("overdraw: target allocated", "width", width, "height", height)
	s.offscreen = target
	return nil
}
