// Package overdraw measures per-surface GPU overdraw: how many times the
// fragment shader runs per display pixel during one frame.
//
// # Overview
//
// A [Sampler] measures one surface (camera). Every [Sampler.Tick] it
// renders the surface once into an off-screen single-channel float target
// with a replacement shader that additively writes a constant weight per
// fragment, reduces that target tile by tile into a fixed 128×128 integer
// accumulator on the GPU, reads the accumulator back and sums it. The
// surface's render state is changed only for the duration of the call and
// restored on every exit path.
//
// A [Monitor] keeps one Sampler per active surface, ticks them, tracks
// running maxima and appends ratios to bounded history series.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/overdraw"
//		"github.com/gogpu/overdraw/backend"
//		_ "github.com/gogpu/overdraw/backend/software"
//		_ "github.com/gogpu/overdraw/backend/wgpu"
//	)
//
//	dev, err := backend.OpenDefault(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	m, err := overdraw.NewMonitor(dev, overdraw.WithDisplaySize(1920, 1080))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := m.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer m.Stop()
//
//	// Once per frame:
//	if _, err := m.Reconcile(cameras); err != nil {
//		log.Fatal(err)
//	}
//	if err := m.SampleAll(); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(m.Snapshot().TotalGlobalRatio)
//
// # Ratios
//
// The local ratio of a surface is its fragment count divided by its own
// pixel area. The global ratio divides by the display area set with
// [WithDisplaySize] or [Monitor.SetDisplaySize]; the Total global ratio
// sums fragments over all surfaces.
//
// # Scale
//
// Surfaces of any size are counted exactly. Tiles beyond the 128×128
// accumulator grid fold onto it modulo 128 in each axis. Each accumulator
// slot is a uint32, so a single slot saturates only after 2³² fragments.
//
// # Logging
//
// The package is silent by default; see [SetLogger].
package overdraw
