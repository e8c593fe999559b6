package overdraw

// SurfaceReport is the measurement state of one sampler.
type SurfaceReport struct {
	Name          string
	Width         int
	Height        int
	Enabled       bool
	FragmentCount int64

	// LocalRatio is FragmentCount over the surface's own pixel area.
	LocalRatio float64

	// GlobalRatio is FragmentCount over the display area.
	GlobalRatio float64

	MaxLocalRatio  float64
	MaxGlobalRatio float64
}

// Report is a point-in-time view of a Monitor.
type Report struct {
	DisplayWidth  int
	DisplayHeight int

	// Surfaces lists samplers in creation order.
	Surfaces []SurfaceReport

	TotalFragments int64

	// TotalGlobalRatio is the summed fragment count over the display area.
	TotalGlobalRatio float64

	// MaxTotalGlobalRatio is the sum of every sampler's MaxGlobalRatio.
	MaxTotalGlobalRatio float64
}

// Snapshot returns the current metrics of every sampler.
func (m *Monitor) Snapshot() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Report{
		DisplayWidth:     m.displayWidth,
		DisplayHeight:    m.displayHeight,
		TotalGlobalRatio: m.totalGlobal,
		Surfaces:         make([]SurfaceReport, 0, len(m.order)),
	}
	for _, e := range m.order {
		s := e.sampler
		sr := SurfaceReport{
			Enabled:        s.Enabled(),
			FragmentCount:  s.FragmentCount(),
			LocalRatio:     s.OverdrawRatio(),
			GlobalRatio:    e.globalRatio,
			MaxLocalRatio:  e.stats.MaxLocalRatio,
			MaxGlobalRatio: e.stats.MaxGlobalRatio,
		}
		if t := s.Surface(); t != nil {
			sr.Name = t.Name()
			sr.Width, sr.Height = t.PixelSize()
		}
		r.Surfaces = append(r.Surfaces, sr)
		r.TotalFragments += sr.FragmentCount
		r.MaxTotalGlobalRatio += e.stats.MaxGlobalRatio
	}
	return r
}
