package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/overdraw/gpucore"
)

// rasterizeTriangle calls shade with the pixel index of every pixel whose
// center lies inside triangle (a, b, c).
//
// Pixels on an edge belong to the triangle only if the edge is an owner
// edge (see ownsEdge), so adjacent triangles cover shared pixels once.
// Triangles with a NaN or infinite vertex are skipped. Edge functions are
// evaluated in float64, so any finite float32 vertex is clipped to the
// target instead of overflowing.
func rasterizeTriangle(width, height int, a, b, c gpucore.Vertex, shade func(i int)) {
	if !finite(a) || !finite(b) || !finite(c) {
		return
	}
	area := edge(a, b, float64(c.X), float64(c.Y))
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
	}

	w, h := float32(width), float32(height)
	minX := int(math32.Floor(clamp(min(a.X, b.X, c.X), 0, w)))
	minY := int(math32.Floor(clamp(min(a.Y, b.Y, c.Y), 0, h)))
	maxX := min(int(math32.Ceil(clamp(max(a.X, b.X, c.X), 0, w))), width-1)
	maxY := min(int(math32.Ceil(clamp(max(a.Y, b.Y, c.Y), 0, h))), height-1)

	ownAB, ownBC, ownCA := ownsEdge(a, b), ownsEdge(b, c), ownsEdge(c, a)

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		row := y * width
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			if inside(edge(a, b, px, py), ownAB) &&
				inside(edge(b, c, px, py), ownBC) &&
				inside(edge(c, a, px, py), ownCA) {
				shade(row + x)
			}
		}
	}
}

// edge returns the edge function of a→b at (px, py). It is positive on the
// interior side of a triangle with positive area.
func edge(a, b gpucore.Vertex, px, py float64) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	return (float64(b.X)-ax)*(py-ay) - (float64(b.Y)-ay)*(px-ax)
}

// ownsEdge reports whether samples exactly on edge a→b are covered.
// Reversing the edge flips the result, so of two triangles sharing an edge
// exactly one owns it.
func ownsEdge(a, b gpucore.Vertex) bool {
	dy := float64(b.Y) - float64(a.Y)
	return dy < 0 || (dy == 0 && float64(b.X)-float64(a.X) > 0)
}

func inside(e float64, owner bool) bool {
	return e > 0 || (e == 0 && owner)
}

func finite(v gpucore.Vertex) bool {
	return !math32.IsNaN(v.X) && !math32.IsNaN(v.Y) && !math32.IsInf(v.X, 0) && !math32.IsInf(v.Y, 0)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
