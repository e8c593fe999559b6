package overdraw

import (
	"testing"

	"github.com/gogpu/overdraw/backend/software"
	"github.com/gogpu/overdraw/gpucore"
	"github.com/gogpu/overdraw/surface"
)

// faultyDevice wraps a device and fails selected operations.
type faultyDevice struct {
	gpucore.Device
	drawErr     error
	dispatchErr error
	bufferErr   error
	targetErr   error
	buffers     int
}

func (d *faultyDevice) NewBuffer(slots int) (gpucore.Buffer, error) {
	if d.bufferErr != nil {
		return nil, d.bufferErr
	}
	d.buffers++
	return d.Device.NewBuffer(slots)
}

func (d *faultyDevice) NewTarget(w, h int) (gpucore.Target, error) {
	if d.targetErr != nil {
		return nil, d.targetErr
	}
	return d.Device.NewTarget(w, h)
}

func (d *faultyDevice) Draw(t gpucore.Target, p *gpucore.DrawPass) error {
	if d.drawErr != nil {
		return d.drawErr
	}
	return d.Device.Draw(t, p)
}

func (d *faultyDevice) Dispatch(t gpucore.Target, b gpucore.Buffer, p *gpucore.DispatchPass) error {
	if d.dispatchErr != nil {
		return d.dispatchErr
	}
	return d.Device.Dispatch(t, b, p)
}

// newCamera creates a camera covered by layers full-size quads.
func newCamera(dev gpucore.Device, name string, w, h, layers int) *surface.Camera {
	c := surface.NewCamera(name, dev, w, h)
	for range layers {
		c.AddQuad(0, 0, float32(w), float32(h))
	}
	return c
}

func newSoftwareSampler(t *testing.T) (*software.Device, *Sampler) {
	t.Helper()
	dev := software.New()
	s, err := NewSampler(dev)
	if err != nil {
		t.Fatalf("NewSampler() error = %v", err)
	}
	t.Cleanup(s.Close)
	return dev, s
}

// destroyingSurface destroys its camera during Render.
type destroyingSurface struct {
	*surface.Camera
}

func (d *destroyingSurface) Render(shader *gpucore.ReplacementShader) error {
	err := d.Camera.Render(shader)
	d.Camera.Destroy()
	return err
}
