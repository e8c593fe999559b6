// Package wgpu implements gpucore.Device on WebGPU through gogpu/wgpu.
//
// Overdraw targets are R32Float textures. Draw runs a render pass with the
// overdraw shader (shaders/overdraw.wgsl); additive passes blend with
// One/One so every fragment adds its weight. Dispatch runs the tile
// reduction kernel (shaders/tile_reduce.wgsl), and Buffer.Read copies the
// accumulator to a staging buffer and maps it, blocking until the GPU has
// finished.
//
// # Device Creation
//
// New creates its own instance, adapter and device:
//
//	dev, err := wgpu.New()
//	if err != nil {
//		// no usable GPU adapter
//	}
//	defer dev.Close()
//
// NewFromProvider shares a device owned by the host application through
// gpucontext.DeviceProvider; Close then leaves the host's device alive.
//
// # Requirements
//
// The adapter must support blending on R32Float render targets, which
// desktop Vulkan and DX12 drivers provide.
//
// The backend registers itself as "wgpu" with the backend registry on
// import.
package wgpu
