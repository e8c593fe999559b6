// Package surface defines the render surface (camera) abstraction the
// overdraw sampler measures.
//
// A Surface owns a pixel resolution, clear state, an output target, an
// enabled flag, a composition role and an ordered stack of overlay
// surfaces. Hosts implement Surface over their own cameras; [Camera] is a
// self-contained implementation that rasterizes a triangle mesh through a
// [gpucore.Device].
//
// # Composition
//
// A [RoleBase] surface renders its own mesh and then every surface in its
// stack, in order, into the same target. Overlays never clear color.
//
//	base := surface.NewCamera("Main", dev, 1920, 1080)
//	hud := surface.NewCamera("HUD", dev, 1920, 1080)
//	hud.SetRole(surface.RoleOverlay)
//	base.SetStack([]surface.Surface{hud})
//
// # State snapshots
//
// [Capture] records every mutable render parameter of a surface and
// [State.Apply] writes it back, which lets callers change a surface for
// one pass and revert it exactly.
package surface
