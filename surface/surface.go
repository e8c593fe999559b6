// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overdraw/gpucore"
)

var (
	// ErrDestroyed is returned when a destroyed surface is rendered.
	ErrDestroyed = errors.New("surface: destroyed")

	// ErrNoTarget is returned when a surface without an output target is rendered.
	ErrNoTarget = errors.New("surface: no output target")

	// ErrRendererIndex is returned when a replacement shader is used on a
	// renderer that does not accept shader overrides.
	ErrRendererIndex = errors.New("surface: renderer does not accept replacement shaders")
)

// Renderer indices.
const (
	// RendererPrimary is the surface's normal renderer configuration.
	RendererPrimary = 0

	// RendererOverdraw is the secondary debug configuration that accepts
	// replacement shaders.
	RendererOverdraw = 1
)

// ClearMode selects how a surface clears its target before rendering.
type ClearMode uint8

const (
	// ClearSkybox clears to the environment background.
	ClearSkybox ClearMode = iota

	// ClearSolidColor clears to ClearColor.
	ClearSolidColor

	// ClearDepth clears depth only and keeps color.
	ClearDepth

	// ClearNothing keeps the previous target contents.
	ClearNothing
)

// String returns the clear mode name.
func (m ClearMode) String() string {
	switch m {
	case ClearSkybox:
		return "Skybox"
	case ClearSolidColor:
		return "SolidColor"
	case ClearDepth:
		return "Depth"
	case ClearNothing:
		return "Nothing"
	default:
		return "Unknown"
	}
}

// Role is a surface's composition role.
type Role uint8

const (
	// RoleBase surfaces render standalone and own an overlay stack.
	RoleBase Role = iota

	// RoleOverlay surfaces are layered on top of a base surface.
	RoleOverlay
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleBase:
		return "Base"
	case RoleOverlay:
		return "Overlay"
	default:
		return "Unknown"
	}
}

// Surface is a camera-like render surface.
//
// Surfaces are NOT thread-safe. The overdraw Monitor accesses a surface
// only from the goroutine that calls SampleAll.
type Surface interface {
	// Name returns a display name. Names need not be unique.
	Name() string

	// PixelSize returns the current viewport resolution in pixels.
	PixelSize() (width, height int)

	ClearMode() ClearMode
	SetClearMode(m ClearMode)

	ClearColor() gputypes.Color
	SetClearColor(c gputypes.Color)

	// Target returns the output target, or nil for the host's default output.
	Target() gpucore.Target
	SetTarget(t gpucore.Target)

	// Enabled reports whether the host renders the surface automatically.
	Enabled() bool
	SetEnabled(enabled bool)

	Role() Role
	SetRole(r Role)

	// Stack returns the overlay surfaces composed above this one, in
	// render order. The returned slice must not be modified.
	Stack() []Surface
	SetStack(stack []Surface)

	RendererIndex() int
	SetRendererIndex(i int)

	// Alive reports whether the surface still exists.
	Alive() bool

	// Render issues one manual render pass into Target. A non-nil shader
	// replaces normal shading for every fragment of the pass.
	Render(shader *gpucore.ReplacementShader) error
}
