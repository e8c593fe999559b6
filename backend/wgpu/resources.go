package wgpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/overdraw/gpucore"
)

// readbackTimeout bounds how long Buffer.Read waits for the GPU.
const readbackTimeout = 5 * time.Second

// Target is an R32Float texture usable as a render attachment and as a
// sampled input of the tile reduction kernel.
type Target struct {
	dev      *Device
	width    int
	height   int
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	released bool
}

var _ gpucore.Target = (*Target)(nil)

func newTarget(d *Device, width, height int) (*Target, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "overdraw_target",
		Size: wgpu.Extent3D{
			Width:              uint32(width),  //nolint:gosec // validated positive
			Height:             uint32(height), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        gpucore.TargetFormat,
		Usage: wgpu.TextureUsageRenderAttachment |
			wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create target %dx%d: %w: %w", width, height, gpucore.ErrOutOfMemory, err)
	}
	view, err := d.device.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpu: create target view: %w", err)
	}
	d.log.Debug("wgpu: target allocated", "width", width, "height", height)
	return &Target{dev: d, width: width, height: height, texture: tex, view: view}, nil
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.height }

// Release frees the texture. Safe to call more than once.
func (t *Target) Release() {
	if t.released {
		return
	}
	t.released = true
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

// Buffer is a uint32 storage buffer with a MapRead staging copy.
type Buffer struct {
	dev      *Device
	slots    int
	storage  *wgpu.Buffer
	staging  *wgpu.Buffer
	released bool
}

var _ gpucore.Buffer = (*Buffer)(nil)

func newBuffer(d *Device, slots int) (*Buffer, error) {
	size := uint64(slots) * 4 //nolint:gosec // validated positive
	storage, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overdraw_accumulator",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create accumulator: %w: %w", gpucore.ErrOutOfMemory, err)
	}
	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overdraw_readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		storage.Release()
		return nil, fmt.Errorf("wgpu: create readback buffer: %w: %w", gpucore.ErrOutOfMemory, err)
	}
	return &Buffer{dev: d, slots: slots, storage: storage, staging: staging}, nil
}

// Len returns the number of uint32 slots.
func (b *Buffer) Len() int { return b.slots }

// Write uploads data to the start of the buffer.
func (b *Buffer) Write(data []uint32) error {
	if b.released {
		return fmt.Errorf("wgpu: write buffer: %w", gpucore.ErrReleased)
	}
	if len(data) > b.slots {
		return fmt.Errorf("wgpu: write %d slots into %d: %w", len(data), b.slots, gpucore.ErrInvalidSize)
	}
	if len(data) == 0 {
		return nil
	}

	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	if b.dev.closed {
		return gpucore.ErrDeviceClosed
	}

	raw := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	if err := b.dev.queue.WriteBuffer(b.storage, 0, raw); err != nil {
		return fmt.Errorf("wgpu: write buffer: %w", err)
	}
	return nil
}

// Read copies the buffer to its staging buffer, waits for the GPU and
// decodes the first len(dst) slots.
func (b *Buffer) Read(dst []uint32) error {
	if b.released {
		return fmt.Errorf("wgpu: read buffer: %w", gpucore.ErrReleased)
	}
	if len(dst) > b.slots {
		return fmt.Errorf("wgpu: read %d slots from %d: %w", len(dst), b.slots, gpucore.ErrInvalidSize)
	}
	if len(dst) == 0 {
		return nil
	}

	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	if b.dev.closed {
		return gpucore.ErrDeviceClosed
	}

	size := uint64(len(dst)) * 4
	encoder, err := b.dev.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "overdraw_readback"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(b.storage, 0, b.staging, 0, size)
	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("wgpu: finish readback: %w", err)
	}
	if _, err := b.dev.queue.Submit(cmd); err != nil {
		return fmt.Errorf("wgpu: submit readback: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), readbackTimeout)
	defer cancel()
	if err := b.staging.Map(ctx, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("wgpu: map readback: %w", err)
	}
	rng, err := b.staging.MappedRange(0, size)
	if err != nil {
		_ = b.staging.Unmap()
		return fmt.Errorf("wgpu: mapped range: %w", err)
	}
	raw := rng.Bytes()
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	rng.Release()
	if err := b.staging.Unmap(); err != nil {
		return fmt.Errorf("wgpu: unmap readback: %w", err)
	}
	return nil
}

// Release frees both GPU buffers. Safe to call more than once.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	if b.staging != nil {
		b.staging.Release()
	}
	if b.storage != nil {
		b.storage.Release()
	}
}

// clearColor converts a single-channel clear value to a render pass color.
func clearColor(v float32) gputypes.Color {
	return gputypes.Color{R: float64(v)}
}
