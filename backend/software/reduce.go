package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/overdraw/gpucore"
)

// reduceWorkgroup mirrors one workgroup of tile_reduce.wgsl: it walks every
// tile folded onto slot (gx, gy), converts each pixel's weighted value back
// to a fragment count and adds the total to that slot.
func reduceWorkgroup(t *Target, out []uint32, p *gpucore.ReduceParams, gx, gy uint32) {
	scale := p.FragmentScale
	var total uint32
	for ty := gy; ty < p.TilesY; ty += p.GridDimension {
		y0 := int(ty * p.TileSize)
		y1 := min(y0+int(p.TileSize), t.height)
		for tx := gx; tx < p.TilesX; tx += p.GridDimension {
			x0 := int(tx * p.TileSize)
			x1 := min(x0+int(p.TileSize), t.width)
			for y := y0; y < y1; y++ {
				row := t.pix[y*t.width : (y+1)*t.width]
				for x := x0; x < x1; x++ {
					if n := math32.Round(row[x] * scale); n > 0 {
						total += uint32(n)
					}
				}
			}
		}
	}
	slot := gy*p.GridDimension + gx
	out[slot] += total
}
