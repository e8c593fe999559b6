package surface

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overdraw/gpucore"
)

// State is a snapshot of a surface's mutable render parameters.
type State struct {
	ClearMode     ClearMode
	ClearColor    gputypes.Color
	Target        gpucore.Target
	Enabled       bool
	Role          Role
	Stack         []Surface
	RendererIndex int
}

// Capture records the current render parameters of s.
// The stack is copied so later SetStack calls do not alias it.
func Capture(s Surface) State {
	return State{
		ClearMode:     s.ClearMode(),
		ClearColor:    s.ClearColor(),
		Target:        s.Target(),
		Enabled:       s.Enabled(),
		Role:          s.Role(),
		Stack:         slices.Clone(s.Stack()),
		RendererIndex: s.RendererIndex(),
	}
}

// Apply writes the snapshot back to s.
func (st State) Apply(s Surface) {
	s.SetClearMode(st.ClearMode)
	s.SetClearColor(st.ClearColor)
	s.SetTarget(st.Target)
	s.SetEnabled(st.Enabled)
	s.SetRole(st.Role)
	s.SetStack(slices.Clone(st.Stack))
	s.SetRendererIndex(st.RendererIndex)
}

// Equal reports whether two snapshots hold identical parameters.
// Targets and stacked surfaces compare by identity.
func (st State) Equal(o State) bool {
	return st.ClearMode == o.ClearMode &&
		st.ClearColor == o.ClearColor &&
		st.Target == o.Target &&
		st.Enabled == o.Enabled &&
		st.Role == o.Role &&
		slices.Equal(st.Stack, o.Stack) &&
		st.RendererIndex == o.RendererIndex
}
