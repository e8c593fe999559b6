package software

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/overdraw/backend"
	"github.com/gogpu/overdraw/gpucore"
)

func quad(x, y, w, h float32) []gpucore.Vertex {
	p0 := gpucore.Vertex{X: x, Y: y}
	p1 := gpucore.Vertex{X: x + w, Y: y}
	p2 := gpucore.Vertex{X: x + w, Y: y + h}
	p3 := gpucore.Vertex{X: x, Y: y + h}
	return []gpucore.Vertex{p0, p1, p2, p0, p2, p3}
}

// coverage returns the number of pixels with a non-zero value and the sum
// of all values.
func coverage(t *Target) (covered int, sum float64) {
	for _, v := range t.pix {
		if v != 0 {
			covered++
		}
		sum += float64(v)
	}
	return covered, sum
}

func newTarget(t *testing.T, d *Device, w, h int) *Target {
	t.Helper()
	tg, err := d.NewTarget(w, h)
	if err != nil {
		t.Fatalf("NewTarget(%d, %d) error = %v", w, h, err)
	}
	return tg.(*Target)
}

func TestRegistered(t *testing.T) {
	dev, err := backend.Open(backend.NameSoftware)
	if err != nil {
		t.Fatalf("Open(software) error = %v", err)
	}
	defer dev.Close()
	if dev.Name() != "software" {
		t.Errorf("Name() = %q, want software", dev.Name())
	}
}

func TestDrawQuadCoversEveryPixelOnce(t *testing.T) {
	sizes := []struct{ w, h int }{{1, 1}, {7, 3}, {32, 32}, {256, 256}, {333, 77}}
	for _, sz := range sizes {
		d := New()
		tg := newTarget(t, d, sz.w, sz.h)
		err := d.Draw(tg, &gpucore.DrawPass{
			Clear:    true,
			Blend:    gpucore.BlendAdditive,
			Value:    1,
			Vertices: quad(0, 0, float32(sz.w), float32(sz.h)),
		})
		if err != nil {
			t.Fatalf("Draw error = %v", err)
		}
		for i, v := range tg.pix {
			if v != 1 {
				t.Fatalf("%dx%d: pixel %d = %v, want 1", sz.w, sz.h, i, v)
			}
		}
	}
}

func TestDrawSharedEdgesNoDoubleCoverage(t *testing.T) {
	d := New()
	tg := newTarget(t, d, 16, 16)

	// Fan of four triangles around the center; every interior edge is shared.
	c := gpucore.Vertex{X: 8, Y: 8}
	corners := []gpucore.Vertex{{X: 0, Y: 0}, {X: 16, Y: 0}, {X: 16, Y: 16}, {X: 0, Y: 16}}
	var fan []gpucore.Vertex
	for i := range corners {
		fan = append(fan, c, corners[i], corners[(i+1)%len(corners)])
	}

	err := d.Draw(tg, &gpucore.DrawPass{Clear: true, Blend: gpucore.BlendAdditive, Value: 1, Vertices: fan})
	if err != nil {
		t.Fatalf("Draw error = %v", err)
	}
	for i, v := range tg.pix {
		if v != 1 {
			t.Fatalf("pixel (%d, %d) = %v, want 1", i%16, i/16, v)
		}
	}
}

func TestDrawWindingIndependent(t *testing.T) {
	d := New()
	cw := newTarget(t, d, 20, 20)
	ccw := newTarget(t, d, 20, 20)
	a, b, c := gpucore.Vertex{X: 1, Y: 1}, gpucore.Vertex{X: 18, Y: 3}, gpucore.Vertex{X: 6, Y: 17}

	_ = d.Draw(cw, &gpucore.DrawPass{Blend: gpucore.BlendAdditive, Value: 1, Vertices: []gpucore.Vertex{a, b, c}})
	_ = d.Draw(ccw, &gpucore.DrawPass{Blend: gpucore.BlendAdditive, Value: 1, Vertices: []gpucore.Vertex{a, c, b}})

	n1, _ := coverage(cw)
	n2, _ := coverage(ccw)
	if n1 == 0 || n1 != n2 {
		t.Errorf("coverage cw = %d, ccw = %d, want equal and non-zero", n1, n2)
	}
}

func TestDrawDegenerateAndClipped(t *testing.T) {
	d := New()
	tg := newTarget(t, d, 10, 10)
	line := []gpucore.Vertex{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}
	offscreen := quad(-50, -50, 20, 20)
	partial := quad(-5, -5, 10, 10)

	pass := &gpucore.DrawPass{Blend: gpucore.BlendAdditive, Value: 1}
	pass.Vertices = append(append(append(pass.Vertices, line...), offscreen...), partial...)
	if err := d.Draw(tg, pass); err != nil {
		t.Fatalf("Draw error = %v", err)
	}
	if n, _ := coverage(tg); n != 25 {
		t.Errorf("covered = %d, want 25", n)
	}
}

func TestDrawHugeCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		extent float32
	}{
		{"1e12", 1e12},
		{"1e20", 1e20},
		{"near float32 max", 1e38},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			tg := newTarget(t, d, 64, 64)
			pass := &gpucore.DrawPass{
				Blend:    gpucore.BlendAdditive,
				Value:    1,
				Vertices: quad(-tt.extent, -tt.extent, 2*tt.extent, 2*tt.extent),
			}
			if err := d.Draw(tg, pass); err != nil {
				t.Fatalf("Draw error = %v", err)
			}
			if n, sum := coverage(tg); n != 64*64 || sum != 64*64 {
				t.Errorf("covered = %d, sum = %v; want every pixel once", n, sum)
			}
		})
	}
}

func TestDrawSkipsNonFiniteVertices(t *testing.T) {
	nan := math32.NaN()
	inf := math32.Inf(1)
	d := New()
	tg := newTarget(t, d, 16, 16)
	pass := &gpucore.DrawPass{
		Blend: gpucore.BlendAdditive,
		Value: 1,
		Vertices: []gpucore.Vertex{
			{X: 0, Y: 0}, {X: 16, Y: 0}, {X: nan, Y: 16},
			{X: -inf, Y: -inf}, {X: inf, Y: -inf}, {X: inf, Y: inf},
			{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 8, Y: 8},
		},
	}
	if err := d.Draw(tg, pass); err != nil {
		t.Fatalf("Draw error = %v", err)
	}
	// Only the finite triangle is drawn.
	if n, _ := coverage(tg); n == 0 || n >= 8*8 {
		t.Errorf("covered = %d, want the finite triangle only", n)
	}
}

func TestDrawBlendModes(t *testing.T) {
	d := New()
	tg := newTarget(t, d, 4, 4)
	full := quad(0, 0, 4, 4)

	_ = d.Draw(tg, &gpucore.DrawPass{Clear: true, ClearValue: 0.5, Blend: gpucore.BlendAdditive, Value: 0.25, Vertices: full})
	if got := tg.At(1, 1); got != 0.75 {
		t.Errorf("additive: At(1, 1) = %v, want 0.75", got)
	}

	_ = d.Draw(tg, &gpucore.DrawPass{Blend: gpucore.BlendReplace, Value: 0.125, Vertices: full})
	if got := tg.At(2, 3); got != 0.125 {
		t.Errorf("replace: At(2, 3) = %v, want 0.125", got)
	}

	_ = d.Draw(tg, &gpucore.DrawPass{Clear: true, ClearValue: 0})
	if n, _ := coverage(tg); n != 0 {
		t.Errorf("clear left %d pixels set", n)
	}
	if tg.At(-1, 0) != 0 || tg.At(4, 0) != 0 {
		t.Error("out of range At should read 0")
	}
}

func TestDrawRejectsPartialTriangle(t *testing.T) {
	d := New()
	tg := newTarget(t, d, 4, 4)
	err := d.Draw(tg, &gpucore.DrawPass{Vertices: make([]gpucore.Vertex, 4)})
	if err == nil {
		t.Error("Draw with 4 vertices should fail")
	}
}

// measure draws layers full-target quads with the overdraw weight and
// returns the reduced fragment count.
func measure(t *testing.T, w, h, layers int) int64 {
	t.Helper()
	d := New()
	tg := newTarget(t, d, w, h)
	var verts []gpucore.Vertex
	for range layers {
		verts = append(verts, quad(0, 0, float32(w), float32(h))...)
	}
	err := d.Draw(tg, &gpucore.DrawPass{
		Clear:    true,
		Blend:    gpucore.BlendAdditive,
		Value:    gpucore.DefaultFragmentWeight,
		Vertices: verts,
	})
	if err != nil {
		t.Fatalf("Draw error = %v", err)
	}

	buf, err := d.NewBuffer(gpucore.AccumulatorSize)
	if err != nil {
		t.Fatalf("NewBuffer error = %v", err)
	}
	gx, gy := gpucore.DispatchSize(w, h)
	pass := &gpucore.DispatchPass{Kernel: gpucore.KernelTileReduce, GroupsX: gx, GroupsY: gy}
	if err := d.Dispatch(tg, buf, pass); err != nil {
		t.Fatalf("Dispatch error = %v", err)
	}
	out := make([]uint32, gpucore.AccumulatorSize)
	if err := buf.Read(out); err != nil {
		t.Fatalf("Read error = %v", err)
	}
	return gpucore.SumSlots(out)
}

func TestTileReduceCounts(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		layers int
	}{
		{"single layer 256", 256, 256, 1},
		{"double layer 256", 256, 256, 2},
		{"partial tiles", 100, 45, 3},
		{"one pixel", 1, 1, 1},
		{"folded wide", 4160, 32, 1},
		{"folded tall", 16, 4200, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := measure(t, tt.w, tt.h, tt.layers)
			want := int64(tt.w * tt.h * tt.layers)
			if got != want {
				t.Errorf("fragment count = %d, want %d", got, want)
			}
		})
	}
}

func TestTileReduceSlotLayout(t *testing.T) {
	d := New()
	tg := newTarget(t, d, 64, 64)
	// One fragment in tile (1, 1).
	tg.pix[40*64+40] = gpucore.DefaultFragmentWeight

	buf, _ := d.NewBuffer(gpucore.AccumulatorSize)
	if err := d.Dispatch(tg, buf, &gpucore.DispatchPass{Kernel: gpucore.KernelTileReduce, GroupsX: 2, GroupsY: 2}); err != nil {
		t.Fatalf("Dispatch error = %v", err)
	}
	out := make([]uint32, gpucore.AccumulatorSize)
	_ = buf.Read(out)
	for i, v := range out {
		want := uint32(0)
		if i == gpucore.Slot(1, 1) {
			want = 1
		}
		if v != want {
			t.Fatalf("slot %d = %d, want %d", i, v, want)
		}
	}
}

func TestDispatchErrors(t *testing.T) {
	d := New()
	other := New()
	tg := newTarget(t, d, 8, 8)
	buf, _ := d.NewBuffer(gpucore.AccumulatorSize)
	small, _ := d.NewBuffer(16)
	foreign, _ := other.NewBuffer(gpucore.AccumulatorSize)

	tests := []struct {
		name   string
		kernel string
		buf    gpucore.Buffer
		want   error
	}{
		{"unknown kernel", "CSMain", buf, gpucore.ErrKernelNotFound},
		{"foreign buffer", gpucore.KernelTileReduce, foreign, gpucore.ErrForeignResource},
		{"small buffer", gpucore.KernelTileReduce, small, gpucore.ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Dispatch(tg, tt.buf, &gpucore.DispatchPass{Kernel: tt.kernel, GroupsX: 1, GroupsY: 1})
			if !errors.Is(err, tt.want) {
				t.Errorf("Dispatch error = %v, want %v", err, tt.want)
			}
		})
	}

	tg.Release()
	reduce := &gpucore.DispatchPass{Kernel: gpucore.KernelTileReduce, GroupsX: 1, GroupsY: 1}
	if err := d.Dispatch(tg, buf, reduce); !errors.Is(err, gpucore.ErrReleased) {
		t.Errorf("Dispatch on released target error = %v, want ErrReleased", err)
	}
}

func TestResourceErrors(t *testing.T) {
	d := New()
	if _, err := d.NewTarget(0, 10); !errors.Is(err, gpucore.ErrInvalidSize) {
		t.Errorf("NewTarget(0, 10) error = %v, want ErrInvalidSize", err)
	}
	if _, err := d.NewBuffer(0); !errors.Is(err, gpucore.ErrInvalidSize) {
		t.Errorf("NewBuffer(0) error = %v, want ErrInvalidSize", err)
	}

	buf, _ := d.NewBuffer(4)
	if err := buf.Write(make([]uint32, 5)); !errors.Is(err, gpucore.ErrInvalidSize) {
		t.Errorf("oversized Write error = %v, want ErrInvalidSize", err)
	}
	if err := buf.Write([]uint32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	got := make([]uint32, 4)
	if err := buf.Read(got); err != nil || got[3] != 4 {
		t.Errorf("Read = %v, %v; want [1 2 3 4]", got, err)
	}
	buf.Release()
	buf.Release()
	if err := buf.Read(got); !errors.Is(err, gpucore.ErrReleased) {
		t.Errorf("Read after Release error = %v, want ErrReleased", err)
	}

	d.Close()
	if _, err := d.NewTarget(4, 4); !errors.Is(err, gpucore.ErrDeviceClosed) {
		t.Errorf("NewTarget after Close error = %v, want ErrDeviceClosed", err)
	}
}

func TestSetLoggerNilSilences(t *testing.T) {
	var buf bytes.Buffer
	d := New()
	d.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	tg := newTarget(t, d, 8, 8)
	b, _ := d.NewBuffer(gpucore.AccumulatorSize)
	reduce := &gpucore.DispatchPass{Kernel: gpucore.KernelTileReduce, GroupsX: 1, GroupsY: 1}
	if err := d.Dispatch(tg, b, reduce); err != nil {
		t.Fatalf("Dispatch error = %v", err)
	}
	if !strings.Contains(buf.String(), "software: tile reduce") {
		t.Errorf("debug log missing, got %q", buf.String())
	}

	buf.Reset()
	d.SetLogger(nil)
	if err := d.Dispatch(tg, b, reduce); err != nil {
		t.Fatalf("Dispatch error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("SetLogger(nil) still logs: %q", buf.String())
	}
}
