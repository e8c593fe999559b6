package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overdraw/gpucore"
)

// recordingDevice records Draw calls without rasterizing.
type recordingDevice struct {
	draws   []gpucore.DrawPass
	targets []gpucore.Target
	fail    error
}

type fakeTarget struct{ w, h int }

func (t *fakeTarget) Width() int  { return t.w }
func (t *fakeTarget) Height() int { return t.h }
func (t *fakeTarget) Release()    {}

func (d *recordingDevice) Name() string { return "recording" }

func (d *recordingDevice) NewTarget(w, h int) (gpucore.Target, error) {
	return &fakeTarget{w, h}, nil
}

func (d *recordingDevice) NewBuffer(int) (gpucore.Buffer, error) {
	return nil, gpucore.ErrOutOfMemory
}

func (d *recordingDevice) Draw(t gpucore.Target, p *gpucore.DrawPass) error {
	if d.fail != nil {
		return d.fail
	}
	d.draws = append(d.draws, *p)
	d.targets = append(d.targets, t)
	return nil
}

func (d *recordingDevice) Dispatch(gpucore.Target, gpucore.Buffer, *gpucore.DispatchPass) error {
	return gpucore.ErrKernelNotFound
}

func (d *recordingDevice) Close() {}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera("Main", &recordingDevice{}, 640, 480)
	if w, h := c.PixelSize(); w != 640 || h != 480 {
		t.Errorf("PixelSize() = (%d, %d), want (640, 480)", w, h)
	}
	if !c.Enabled() || !c.Alive() {
		t.Error("new camera should be enabled and alive")
	}
	if c.Role() != RoleBase || c.ClearMode() != ClearSkybox {
		t.Errorf("Role/ClearMode = %v/%v, want Base/Skybox", c.Role(), c.ClearMode())
	}
	if c.RendererIndex() != RendererPrimary {
		t.Errorf("RendererIndex() = %d, want %d", c.RendererIndex(), RendererPrimary)
	}

	c.Resize(-1, 10)
	if w, h := c.PixelSize(); w != 0 || h != 10 {
		t.Errorf("Resize(-1, 10) gives (%d, %d), want (0, 10)", w, h)
	}
}

func TestCameraRenderErrors(t *testing.T) {
	dev := &recordingDevice{}
	c := NewCamera("Main", dev, 8, 8)

	if err := c.Render(nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("Render without target: err = %v, want ErrNoTarget", err)
	}

	c.SetTarget(&fakeTarget{8, 8})
	shader := gpucore.NewOverdrawShader()
	if err := c.Render(&shader); !errors.Is(err, ErrRendererIndex) {
		t.Errorf("Render with shader on primary renderer: err = %v, want ErrRendererIndex", err)
	}

	dev.fail = gpucore.ErrOutOfMemory
	if err := c.Render(nil); !errors.Is(err, gpucore.ErrOutOfMemory) {
		t.Errorf("Render with failing device: err = %v, want wrapped ErrOutOfMemory", err)
	}

	c.Destroy()
	if err := c.Render(nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Render after Destroy: err = %v, want ErrDestroyed", err)
	}
	if len(dev.draws) != 0 {
		t.Errorf("unexpected draws: %d", len(dev.draws))
	}
}

func TestCameraRenderPass(t *testing.T) {
	tests := []struct {
		name      string
		mode      ClearMode
		color     gputypes.Color
		shader    bool
		wantClear bool
		wantValue float32
		wantBlend gpucore.BlendMode
		clearTo   float32
	}{
		{"skybox", ClearSkybox, gputypes.ColorBlack, false, true, 1, gpucore.BlendReplace, 0},
		{"solid", ClearSolidColor, gputypes.Color{R: 0.25}, false, true, 1, gpucore.BlendReplace, 0.25},
		{"depth", ClearDepth, gputypes.ColorBlack, false, false, 1, gpucore.BlendReplace, 0},
		{"nothing", ClearNothing, gputypes.ColorBlack, false, false, 1, gpucore.BlendReplace, 0},
		{"overdraw", ClearSolidColor, gputypes.ColorTransparent, true, true, gpucore.DefaultFragmentWeight, gpucore.BlendAdditive, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &recordingDevice{}
			c := NewCamera("Main", dev, 4, 4)
			c.AddQuad(0, 0, 4, 4)
			c.SetTarget(&fakeTarget{4, 4})
			c.SetClearMode(tt.mode)
			c.SetClearColor(tt.color)

			var shader *gpucore.ReplacementShader
			if tt.shader {
				s := gpucore.NewOverdrawShader()
				shader = &s
				c.SetRendererIndex(RendererOverdraw)
			}
			if err := c.Render(shader); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if len(dev.draws) != 1 {
				t.Fatalf("draws = %d, want 1", len(dev.draws))
			}
			p := dev.draws[0]
			if p.Clear != tt.wantClear || p.ClearValue != tt.clearTo {
				t.Errorf("Clear = %v/%v, want %v/%v", p.Clear, p.ClearValue, tt.wantClear, tt.clearTo)
			}
			if p.Blend != tt.wantBlend || p.Value != tt.wantValue {
				t.Errorf("Blend/Value = %v/%v, want %v/%v", p.Blend, p.Value, tt.wantBlend, tt.wantValue)
			}
			if len(p.Vertices) != 6 {
				t.Errorf("vertices = %d, want 6", len(p.Vertices))
			}
		})
	}
}

func TestCameraRendersStack(t *testing.T) {
	dev := &recordingDevice{}
	base := NewCamera("Base", dev, 4, 4)
	base.AddQuad(0, 0, 4, 4)
	baseTarget := &fakeTarget{4, 4}
	base.SetTarget(baseTarget)

	hud := NewCamera("HUD", dev, 4, 4)
	hud.SetRole(RoleOverlay)
	hud.SetClearMode(ClearSolidColor)
	hud.AddQuad(0, 0, 2, 2)
	hudTarget := &fakeTarget{4, 4}
	hud.SetTarget(hudTarget)

	gone := NewCamera("Gone", dev, 4, 4)
	gone.SetRole(RoleOverlay)
	gone.Destroy()

	base.SetStack([]Surface{hud, gone})
	if err := base.Render(nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(dev.draws) != 2 {
		t.Fatalf("draws = %d, want 2 (base + live overlay)", len(dev.draws))
	}
	if dev.targets[1] != baseTarget {
		t.Error("overlay should render into the base target")
	}
	if dev.draws[1].Clear {
		t.Error("overlay must not clear color")
	}
	if hud.Target() != hudTarget {
		t.Error("overlay target not restored after composition")
	}
}

func TestCameraMeshCopies(t *testing.T) {
	c := NewCamera("Main", &recordingDevice{}, 4, 4)
	in := []gpucore.Vertex{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	c.SetMesh(in)
	in[0].X = 99
	out := c.Mesh()
	if out[0].X != 0 {
		t.Error("SetMesh must copy its input")
	}
	out[1].X = 99
	if c.Mesh()[1].X != 1 {
		t.Error("Mesh must return a copy")
	}
	c.AddTriangle(gpucore.Vertex{}, gpucore.Vertex{X: 1}, gpucore.Vertex{Y: 1})
	if n := len(c.Mesh()); n != 6 {
		t.Errorf("len(Mesh) = %d, want 6", n)
	}
}

func TestEnumStrings(t *testing.T) {
	for m, want := range map[ClearMode]string{
		ClearSkybox: "Skybox", ClearSolidColor: "SolidColor", ClearDepth: "Depth", ClearNothing: "Nothing", 9: "Unknown",
	} {
		if m.String() != want {
			t.Errorf("ClearMode(%d).String() = %q, want %q", m, m.String(), want)
		}
	}
	if RoleBase.String() != "Base" || RoleOverlay.String() != "Overlay" || Role(7).String() != "Unknown" {
		t.Error("unexpected Role names")
	}
}
