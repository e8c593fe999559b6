// Package software implements gpucore.Device on the CPU.
//
// Targets are float32 pixel arrays. Draw rasterizes triangle lists with
// pixel-center sampling and a consistent edge ownership rule, so triangles
// sharing an edge never shade the same pixel twice, matching GPU
// rasterization. Dispatch mirrors the tile reduction kernel of the wgpu
// backend slot for slot, which makes this backend a reference for testing
// and a fallback on machines without a GPU adapter.
//
// The backend registers itself as "software" with the backend registry on
// import:
//
//	import _ "github.com/gogpu/overdraw/backend/software"
package software
