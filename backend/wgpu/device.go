// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	_ "github.com/gogpu/wgpu/hal/allbackends" // register HAL backends

	"github.com/gogpu/overdraw/backend"
	"github.com/gogpu/overdraw/gpucore"
)

func init() {
	backend.Register(backend.NameWGPU, func() (gpucore.Device, error) {
		return New()
	})
}

// Errors returned by device creation.
var (
	// ErrNoAdapter is returned when no GPU adapter is available.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

	// ErrProviderTypes is returned when a DeviceProvider does not expose
	// gogpu/wgpu device and queue types.
	ErrProviderTypes = errors.New("wgpu: provider does not expose wgpu device and queue")
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

func newGPUInfo(info gputypes.AdapterInfo) *GPUInfo {
	return &GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}

// Device implements gpucore.Device on a WebGPU device.
//
// Device is safe for concurrent use; all GPU work is serialized.
type Device struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	owned    bool
	info     *GPUInfo

	log    *slog.Logger
	pipes  *pipelines
	closed bool
}

var _ gpucore.Device = (*Device)(nil)

// New creates an instance, picks a high-performance adapter and opens a
// device. Returns an error wrapping ErrNoAdapter when no GPU adapter is
// available; CPU adapters do not count.
func New() (*Device, error) {
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	if adapter == nil {
		instance.Release()
		return nil, ErrNoAdapter
	}
	// CPU adapters are left to the "software" backend.
	if info := adapter.Info(); info.DeviceType == gputypes.DeviceTypeCPU {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: only CPU adapter %q found", ErrNoAdapter, info.Name)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "overdraw_device",
		RequiredLimits: wgpu.DefaultLimits(),
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}

	d := &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.Queue(),
		owned:    true,
		info:     newGPUInfo(adapter.Info()),
		log:      backend.NopLogger(),
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	d.log.Info("wgpu: device ready", "gpu", d.info.String(), "driver", d.info.Driver)
	return d, nil
}

// NewFromProvider wraps a device owned by the host application.
// The provider must expose *wgpu.Device and *wgpu.Queue. Close releases
// only the resources created by this package.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrProviderTypes
	}
	device, ok := provider.Device().(*wgpu.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: device is %T", ErrProviderTypes, provider.Device())
	}
	queue, ok := provider.Queue().(*wgpu.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: queue is %T", ErrProviderTypes, provider.Queue())
	}

	pi := provider.AdapterInfo()
	d := &Device{
		device: device,
		queue:  queue,
		info:   &GPUInfo{Name: pi.Name},
		log:    backend.NopLogger(),
	}
	if adapter, ok := provider.Adapter().(*wgpu.Adapter); ok && adapter != nil {
		d.info = newGPUInfo(adapter.Info())
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	d.log.Info("wgpu: using shared device", "gpu", d.info.Name)
	return d, nil
}

func (d *Device) init() error {
	p, err := newPipelines(d.device, d.log)
	if err != nil {
		return err
	}
	d.pipes = p
	return nil
}

// Name returns "wgpu".
func (d *Device) Name() string { return backend.NameWGPU }

// Info returns the adapter description.
func (d *Device) Info() *GPUInfo { return d.info }

// SetLogger routes backend diagnostics to l. Nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = backend.NopLogger()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = l
	if d.pipes != nil {
		d.pipes.log = l
	}
}

// NewTarget allocates a width×height R32Float texture.
func (d *Device) NewTarget(width, height int) (gpucore.Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, gpucore.ErrDeviceClosed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("wgpu: target %dx%d: %w", width, height, gpucore.ErrInvalidSize)
	}
	return newTarget(d, width, height)
}

// NewBuffer allocates a storage buffer of slots uint32 values together with
// its staging buffer.
func (d *Device) NewBuffer(slots int) (gpucore.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, gpucore.ErrDeviceClosed
	}
	if slots <= 0 {
		return nil, fmt.Errorf("wgpu: buffer of %d slots: %w", slots, gpucore.ErrInvalidSize)
	}
	return newBuffer(d, slots)
}

// Draw records and submits one render pass.
func (d *Device) Draw(target gpucore.Target, pass *gpucore.DrawPass) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return gpucore.ErrDeviceClosed
	}
	t, err := d.target(target)
	if err != nil {
		return err
	}
	if len(pass.Vertices)%3 != 0 {
		return fmt.Errorf("wgpu: draw %q: %d vertices is not a triangle list", pass.Label, len(pass.Vertices))
	}
	return d.pipes.draw(d.queue, t, pass)
}

// Dispatch runs pass.Kernel with src bound as input and dst as the accumulator.
func (d *Device) Dispatch(src gpucore.Target, dst gpucore.Buffer, pass *gpucore.DispatchPass) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return gpucore.ErrDeviceClosed
	}
	if pass.Kernel != gpucore.KernelTileReduce {
		return fmt.Errorf("wgpu: dispatch %q: %w", pass.Kernel, gpucore.ErrKernelNotFound)
	}
	t, err := d.target(src)
	if err != nil {
		return err
	}
	b, ok := dst.(*Buffer)
	if !ok || b.dev != d {
		return fmt.Errorf("wgpu: dispatch buffer: %w", gpucore.ErrForeignResource)
	}
	if b.released {
		return fmt.Errorf("wgpu: dispatch buffer: %w", gpucore.ErrReleased)
	}
	if b.slots < gpucore.AccumulatorSize {
		return fmt.Errorf("wgpu: dispatch buffer has %d slots, need %d: %w",
			b.slots, gpucore.AccumulatorSize, gpucore.ErrInvalidSize)
	}

	d.log.Debug("wgpu: tile reduce", "width", t.width, "height", t.height,
		"groups_x", pass.GroupsX, "groups_y", pass.GroupsY, "scale", pass.FragmentScale)
	return d.pipes.reduce(d.queue, t, b, pass.FragmentScale,
		min(pass.GroupsX, gpucore.GridDimension), min(pass.GroupsY, gpucore.GridDimension))
}

// Close releases pipelines and, for a device created by New, the device,
// adapter and instance. Safe to call more than once.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	if d.pipes != nil {
		d.pipes.release()
		d.pipes = nil
	}
	if !d.owned {
		return
	}
	if d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			d.log.Warn("wgpu: wait idle on close", "err", err)
		}
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

func (d *Device) target(t gpucore.Target) (*Target, error) {
	wt, ok := t.(*Target)
	if !ok || wt.dev != d {
		return nil, fmt.Errorf("wgpu: target: %w", gpucore.ErrForeignResource)
	}
	if wt.released {
		return nil, fmt.Errorf("wgpu: target: %w", gpucore.ErrReleased)
	}
	return wt, nil
}
