package surface

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overdraw/gpucore"
)

// Camera is a Surface that renders a triangle mesh through a gpucore.Device.
//
// Mesh coordinates are target pixels with the origin at the top-left
// corner. Camera is NOT thread-safe.
type Camera struct {
	name   string
	device gpucore.Device
	width  int
	height int

	clearMode     ClearMode
	clearColor    gputypes.Color
	target        gpucore.Target
	enabled       bool
	role          Role
	stack         []Surface
	rendererIndex int
	destroyed     bool

	mesh []gpucore.Vertex
}

// NewCamera creates an enabled base camera of the given resolution that
// draws through dev. The camera starts with a skybox clear and an empty mesh.
func NewCamera(name string, dev gpucore.Device, width, height int) *Camera {
	return &Camera{
		name:       name,
		device:     dev,
		width:      max(width, 0),
		height:     max(height, 0),
		clearMode:  ClearSkybox,
		clearColor: gputypes.ColorBlack,
		enabled:    true,
		role:       RoleBase,
	}
}

// Name returns the camera name.
func (c *Camera) Name() string { return c.name }

// PixelSize returns the camera resolution.
func (c *Camera) PixelSize() (width, height int) { return c.width, c.height }

// Resize changes the camera resolution. Negative values clamp to zero.
func (c *Camera) Resize(width, height int) {
	c.width = max(width, 0)
	c.height = max(height, 0)
}

func (c *Camera) ClearMode() ClearMode           { return c.clearMode }
func (c *Camera) SetClearMode(m ClearMode)       { c.clearMode = m }
func (c *Camera) ClearColor() gputypes.Color     { return c.clearColor }
func (c *Camera) SetClearColor(v gputypes.Color) { c.clearColor = v }
func (c *Camera) Target() gpucore.Target         { return c.target }
func (c *Camera) SetTarget(t gpucore.Target)     { c.target = t }
func (c *Camera) Enabled() bool                  { return c.enabled }
func (c *Camera) SetEnabled(enabled bool)        { c.enabled = enabled }
func (c *Camera) Role() Role                     { return c.role }
func (c *Camera) SetRole(r Role)                 { c.role = r }
func (c *Camera) Stack() []Surface               { return c.stack }
func (c *Camera) SetStack(stack []Surface)       { c.stack = stack }
func (c *Camera) RendererIndex() int             { return c.rendererIndex }
func (c *Camera) SetRendererIndex(i int)         { c.rendererIndex = i }

// Alive reports whether Destroy has not been called.
func (c *Camera) Alive() bool { return !c.destroyed }

// Destroy marks the camera as gone. Subsequent renders fail with ErrDestroyed.
func (c *Camera) Destroy() { c.destroyed = true }

// AddTriangle appends one triangle to the mesh.
func (c *Camera) AddTriangle(a, b, v gpucore.Vertex) {
	c.mesh = append(c.mesh, a, b, v)
}

// AddQuad appends an axis-aligned rectangle as two triangles.
func (c *Camera) AddQuad(x, y, w, h float32) {
	p0 := gpucore.Vertex{X: x, Y: y}
	p1 := gpucore.Vertex{X: x + w, Y: y}
	p2 := gpucore.Vertex{X: x + w, Y: y + h}
	p3 := gpucore.Vertex{X: x, Y: y + h}
	c.mesh = append(c.mesh, p0, p1, p2, p0, p2, p3)
}

// SetMesh replaces the mesh with a copy of vertices (a triangle list).
func (c *Camera) SetMesh(vertices []gpucore.Vertex) {
	c.mesh = slices.Clone(vertices)
}

// Mesh returns a copy of the triangle list.
func (c *Camera) Mesh() []gpucore.Vertex {
	return slices.Clone(c.mesh)
}

// Render draws the mesh into Target, then every stacked surface when the
// camera is a base. A replacement shader is only accepted on
// RendererOverdraw.
func (c *Camera) Render(shader *gpucore.ReplacementShader) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.target == nil {
		return ErrNoTarget
	}
	if shader != nil && c.rendererIndex != RendererOverdraw {
		return fmt.Errorf("%w: camera %q uses renderer %d", ErrRendererIndex, c.name, c.rendererIndex)
	}

	pass := &gpucore.DrawPass{
		Label:    c.name,
		Blend:    gpucore.BlendReplace,
		Value:    1,
		Vertices: c.mesh,
	}
	if shader != nil {
		pass.Blend = gpucore.BlendAdditive
		pass.Value = shader.FragmentWeight
	}
	if c.role == RoleBase {
		switch c.clearMode {
		case ClearSolidColor:
			pass.Clear = true
			pass.ClearValue = float32(c.clearColor.R)
		case ClearSkybox:
			pass.Clear = true
		}
	}

	if err := c.device.Draw(c.target, pass); err != nil {
		return fmt.Errorf("surface: render %q: %w", c.name, err)
	}

	if c.role != RoleBase {
		return nil
	}
	for _, overlay := range c.stack {
		if err := renderOverlay(overlay, c.target, shader); err != nil {
			return err
		}
	}
	return nil
}

// renderOverlay renders an overlay surface into the base's target.
func renderOverlay(s Surface, target gpucore.Target, shader *gpucore.ReplacementShader) error {
	if !s.Alive() {
		return nil
	}
	prevTarget, prevIndex := s.Target(), s.RendererIndex()
	defer func() {
		s.SetTarget(prevTarget)
		s.SetRendererIndex(prevIndex)
	}()

	s.SetTarget(target)
	if shader != nil {
		s.SetRendererIndex(RendererOverdraw)
	}
	return s.Render(shader)
}
