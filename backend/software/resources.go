package software

import (
	"fmt"

	"github.com/gogpu/overdraw/gpucore"
)

// Target is a CPU float32 render target.
type Target struct {
	dev      *Device
	width    int
	height   int
	pix      []float32
	released bool
}

// Width returns the target width.
func (t *Target) Width() int { return t.width }

// Height returns the target height.
func (t *Target) Height() int { return t.height }

// At returns the value of pixel (x, y). Out of range pixels read as 0.
func (t *Target) At(x, y int) float32 {
	if t.released || x < 0 || y < 0 || x >= t.width || y >= t.height {
		return 0
	}
	return t.pix[y*t.width+x]
}

// Release frees the pixel storage.
func (t *Target) Release() {
	t.released = true
	t.pix = nil
}

// Buffer is a CPU uint32 storage buffer.
type Buffer struct {
	dev      *Device
	data     []uint32
	released bool
}

// Len returns the number of slots.
func (b *Buffer) Len() int { return len(b.data) }

// Write copies data into the buffer starting at slot 0.
func (b *Buffer) Write(data []uint32) error {
	if b.released {
		return fmt.Errorf("software: write: %w", gpucore.ErrReleased)
	}
	if len(data) > len(b.data) {
		return fmt.Errorf("software: write %d slots into %d: %w", len(data), len(b.data), gpucore.ErrInvalidSize)
	}
	copy(b.data, data)
	return nil
}

// Read copies the buffer into dst.
func (b *Buffer) Read(dst []uint32) error {
	if b.released {
		return fmt.Errorf("software: read: %w", gpucore.ErrReleased)
	}
	if len(dst) > len(b.data) {
		return fmt.Errorf("software: read %d slots from %d: %w", len(dst), len(b.data), gpucore.ErrInvalidSize)
	}
	copy(dst, b.data)
	return nil
}

// Release frees the buffer storage.
func (b *Buffer) Release() {
	b.released = true
	b.data = nil
}
