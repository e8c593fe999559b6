// Package gpucore defines the small GPU capability surface the overdraw
// sampler is written against.
//
// The sampler needs exactly four things from a graphics backend:
//
//  1. An off-screen single-channel float target sized to a surface.
//  2. A render pass that rasterizes a triangle list into that target with
//     either replace or additive blending (the replacement shader).
//  3. A fixed-size integer storage buffer it can zero and read back.
//  4. A named compute kernel ([KernelTileReduce]) that folds the target
//     into the buffer tile by tile.
//
// [Device] captures those operations so the measurement logic is portable
// across backends:
//
//	               +-----------------+
//	               |  overdraw       |
//	               |  (Sampler)      |
//	               +--------+--------+
//	                        |
//	                 gpucore.Device
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/wgpu    |          | backend/software|
//	| (WGSL kernels)  |          | (CPU mirror)    |
//	+-----------------+          +-----------------+
//
// # Tile reduction
//
// The target is split into [TileSize]×[TileSize] pixel tiles. Tile (tx, ty)
// accumulates into slot (ty mod [GridDimension])·[GridDimension] + (tx mod
// [GridDimension]) of a [AccumulatorSize]-slot buffer. The dispatch grid is
// clamped to GridDimension in each axis and every workgroup walks the tiles
// folded onto its slot, so surfaces wider or taller than
// TileSize·GridDimension pixels are still counted exactly.
//
// The replacement shader writes a fixed weight per fragment
// ([DefaultFragmentWeight] is 1/TileSize²). The kernel multiplies each pixel
// by [DispatchPass.FragmentScale], the inverse weight, and rounds, recovering
// integer fragment counts.
package gpucore
