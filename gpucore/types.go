// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import "github.com/gogpu/gputypes"

// TileSize is the edge length of a reduction tile in pixels.
const TileSize = 32

// GridDimension is the edge length of the accumulator grid in slots.
const GridDimension = 128

// AccumulatorSize is the number of uint32 slots in the reduction buffer.
const AccumulatorSize = GridDimension * GridDimension

// TargetFormat is the pixel format of overdraw targets.
const TargetFormat = gputypes.TextureFormatR32Float

// KernelTileReduce is the name of the tile reduction compute kernel.
const KernelTileReduce = "tile_reduce"

// ShaderOverdraw is the name of the overdraw replacement shader.
const ShaderOverdraw = "overdraw"

// DefaultFragmentWeight is the per-fragment value written by the
// replacement shader: 1/TileSize².
const DefaultFragmentWeight float32 = 1.0 / (TileSize * TileSize)

// ReplacementShader describes a shader that substitutes a surface's
// normal shading for one render pass.
type ReplacementShader struct {
	// Name identifies the shader (e.g. ShaderOverdraw).
	Name string

	// FragmentWeight is the constant written by every shaded fragment.
	// Fragments blend additively, so a pixel ends up holding
	// FragmentWeight × (number of fragments that touched it).
	FragmentWeight float32
}

// NewOverdrawShader returns the overdraw replacement shader with
// DefaultFragmentWeight.
func NewOverdrawShader() ReplacementShader {
	return ReplacementShader{
		Name:           ShaderOverdraw,
		FragmentWeight: DefaultFragmentWeight,
	}
}

// BlendMode selects how fragments combine with the target.
type BlendMode uint8

const (
	// BlendReplace overwrites the destination with the fragment value.
	BlendReplace BlendMode = iota

	// BlendAdditive adds the fragment value to the destination.
	BlendAdditive
)

// String returns the blend mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendReplace:
		return "Replace"
	case BlendAdditive:
		return "Additive"
	default:
		return "Unknown"
	}
}

// Vertex is a 2D vertex in target pixel coordinates.
// Origin is the top-left corner, Y grows downward.
type Vertex struct {
	X float32
	Y float32
}

// DrawPass describes one render pass into a Target.
type DrawPass struct {
	// Label is an optional debug label.
	Label string

	// Clear selects whether the target is cleared before drawing.
	Clear bool

	// ClearValue is the value the single channel is cleared to.
	ClearValue float32

	// Blend selects how fragments are combined with the target.
	Blend BlendMode

	// Value is the constant every fragment writes.
	Value float32

	// Vertices is a triangle list; len must be a multiple of 3.
	Vertices []Vertex
}

// TileCounts returns the number of TileSize tiles needed to cover a
// width×height target. Partial tiles at the right and bottom edges count.
func TileCounts(width, height int) (tilesX, tilesY uint32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	tilesX = uint32((width + TileSize - 1) / TileSize)   //nolint:gosec // width > 0
	tilesY = uint32((height + TileSize - 1) / TileSize) //nolint:gosec // height > 0
	return tilesX, tilesY
}

// DispatchSize returns the workgroup grid for reducing a width×height
// target: the tile counts clamped to GridDimension in each axis.
func DispatchSize(width, height int) (x, y uint32) {
	x, y = TileCounts(width, height)
	return min(x, GridDimension), min(y, GridDimension)
}

// Slot returns the accumulator slot that tile (tileX, tileY) folds into.
func Slot(tileX, tileY uint32) int {
	return int((tileY%GridDimension)*GridDimension + tileX%GridDimension)
}

// SumSlots adds all accumulator slots into a 64-bit total.
func SumSlots(slots []uint32) int64 {
	var total int64
	for _, v := range slots {
		total += int64(v)
	}
	return total
}

// FragmentScale returns the factor that turns a pixel written with weight
// back into a fragment count. Non-positive weights map to the scale of
// DefaultFragmentWeight.
func FragmentScale(weight float32) float32 {
	if !(weight > 0) {
		return 1 / DefaultFragmentWeight
	}
	return 1 / weight
}

// DispatchPass describes one compute dispatch.
type DispatchPass struct {
	// Kernel names the compute kernel (e.g. KernelTileReduce).
	Kernel string

	// GroupsX and GroupsY give the workgroup grid.
	GroupsX uint32
	GroupsY uint32

	// FragmentScale multiplies each pixel value before rounding it to a
	// fragment count. Zero selects FragmentScale(DefaultFragmentWeight).
	FragmentScale float32
}

// ReduceParams is the uniform block of the tile reduction kernel.
// Must match Params in tile_reduce.wgsl.
type ReduceParams struct {
	Width         uint32  // Target width in pixels
	Height        uint32  // Target height in pixels
	TilesX        uint32  // Tile columns
	TilesY        uint32  // Tile rows
	GridDimension uint32  // Accumulator grid edge
	TileSize      uint32  // Tile edge in pixels
	FragmentScale float32 // Pixel value to fragment count factor
	Padding       uint32
}

// NewReduceParams computes the kernel parameters for a width×height target
// whose pixels are converted to fragment counts with scale.
// A non-positive scale selects FragmentScale(DefaultFragmentWeight).
func NewReduceParams(width, height int, scale float32) ReduceParams {
	if !(scale > 0) {
		scale = FragmentScale(DefaultFragmentWeight)
	}
	tx, ty := TileCounts(width, height)
	return ReduceParams{
		Width:         uint32(max(width, 0)),  //nolint:gosec // clamped
		Height:        uint32(max(height, 0)), //nolint:gosec // clamped
		TilesX:        tx,
		TilesY:        ty,
		GridDimension: GridDimension,
		TileSize:      TileSize,
		FragmentScale: scale,
	}
}
