// Package backend selects the gpucore.Device implementation the overdraw
// sampler runs on.
//
// # Backend Registration
//
// Backends register themselves from init() functions, so importing a
// backend package makes it available:
//
//	import (
//		_ "github.com/gogpu/overdraw/backend/software"
//		_ "github.com/gogpu/overdraw/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use OpenDefault to get the best backend that works on this machine, or
// Open to request a specific backend by name:
//
//	dev, err := backend.OpenDefault(slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// # Available Backends
//
//   - "wgpu": WebGPU via gogpu/wgpu (Vulkan, Metal, DX12, GLES)
//   - "software": CPU rasterizer and tile reduction (always available)
package backend
