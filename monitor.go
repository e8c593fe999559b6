package overdraw

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/gogpu/overdraw/gpucore"
	"github.com/gogpu/overdraw/history"
	"github.com/gogpu/overdraw/surface"
)

// SamplerStats holds the running maxima of one sampler. Both values only
// grow until Monitor.ResetStats.
type SamplerStats struct {
	MaxLocalRatio  float64
	MaxGlobalRatio float64
}

// ReconcileResult reports the sampler churn of one Reconcile call.
type ReconcileResult struct {
	Created   int
	Destroyed int
}

// monitored is a live sampler and its Monitor-owned bookkeeping.
type monitored struct {
	sampler     *Sampler
	stats       SamplerStats
	globalRatio float64
}

// Monitor keeps one Sampler per active surface and aggregates their metrics.
//
// Surfaces are keyed by identity, so Surface implementations must be
// comparable (pointer receivers satisfy this); Reconcile rejects the rest
// with ErrSurfaceNotComparable. History series are keyed by
// surface name; surfaces sharing a name share a series.
//
// Monitor is safe for concurrent use: SampleAll and Reconcile run under a
// mutex that Snapshot and History also take.
type Monitor struct {
	mu     sync.Mutex
	device gpucore.Device
	cfg    Config
	log    *slog.Logger

	running  bool
	order    []*monitored
	samplers map[surface.Surface]*monitored
	history  *history.Cache

	displayWidth  int
	displayHeight int
	totalGlobal   float64
}

// NewMonitor creates a stopped monitor that measures on dev.
func NewMonitor(dev gpucore.Device, opts ...Option) (*Monitor, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	log := cfg.logger()
	propagateLogger(dev, log)
	return &Monitor{
		device:        dev,
		cfg:           cfg,
		log:           log,
		displayWidth:  cfg.DisplayWidth,
		displayHeight: cfg.DisplayHeight,
	}, nil
}

// Start allocates the sampler set and history cache.
// Returns ErrAlreadyRunning if the monitor is running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}
	m.running = true
	m.samplers = make(map[surface.Surface]*monitored)
	m.order = nil
	m.history = history.New(m.cfg.HistoryLimit)
	m.totalGlobal = 0
	m.log.Info("overdraw: monitor started", "device", m.device.Name())
	return nil
}

// Stop closes every sampler and drops all stats and history.
// Stop is idempotent and safe on a monitor that was never started.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	for _, e := range m.order {
		e.sampler.Close()
	}
	m.running = false
	m.order = nil
	m.samplers = nil
	m.history = nil
	m.totalGlobal = 0
	m.log.Info("overdraw: monitor stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Reconcile matches the sampler set to active: a sampler is created and
// bound for every live surface without one, and samplers of surfaces that
// are no longer active are closed along with their stats. Nil, destroyed
// and duplicate entries are ignored. Calling Reconcile twice with the same
// set creates and destroys nothing the second time.
//
// On an allocation failure the samplers created so far are kept and the
// error is returned. A non-comparable surface fails the whole call before
// any sampler is created or destroyed.
func (m *Monitor) Reconcile(active []surface.Surface) (ReconcileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res ReconcileResult
	if !m.running {
		return res, ErrNotRunning
	}
	for _, s := range active {
		if !hashable(s) {
			return res, fmt.Errorf("%w: %T", ErrSurfaceNotComparable, s)
		}
	}

	keep := make(map[surface.Surface]struct{}, len(active))
	for _, s := range active {
		if s != nil && s.Alive() {
			keep[s] = struct{}{}
		}
	}

	live := m.order[:0]
	for _, e := range m.order {
		s := e.sampler.Surface()
		if _, ok := keep[s]; ok {
			live = append(live, e)
			continue
		}
		delete(m.samplers, s)
		e.sampler.Close()
		res.Destroyed++
	}
	clear(m.order[len(live):])
	m.order = live

	for _, s := range active {
		if _, ok := keep[s]; !ok {
			continue
		}
		if _, ok := m.samplers[s]; ok {
			continue
		}
		sampler, err := newSampler(m.device, m.cfg.Shader, m.log)
		if err != nil {
			return res, fmt.Errorf("overdraw: sampler for %q: %w", s.Name(), err)
		}
		sampler.Bind(s)
		e := &monitored{sampler: sampler}
		m.samplers[s] = e
		m.order = append(m.order, e)
		res.Created++
	}

	if res.Created > 0 || res.Destroyed > 0 {
		m.log.Info("overdraw: samplers reconciled",
			"created", res.Created, "destroyed", res.Destroyed, "live", len(m.order))
	}
	return res, nil
}

// SampleAll ticks every sampler in creation order, updates running maxima
// and appends the global ratio of each surface to its series and the summed
// global ratio to the history.Total series.
//
// A failing sampler does not stop the others; all errors are joined.
// Failed samplers contribute zero to this tick's totals.
func (m *Monitor) SampleAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ErrNotRunning
	}

	var errs []error
	for _, e := range m.order {
		if err := e.sampler.Tick(); err != nil {
			errs = append(errs, err)
		}
	}

	area := float64(m.displayWidth) * float64(m.displayHeight)
	var total int64
	for _, e := range m.order {
		count := e.sampler.FragmentCount()
		total += count

		e.globalRatio = 0
		if area > 0 {
			e.globalRatio = float64(count) / area
		}
		e.stats.MaxLocalRatio = max(e.stats.MaxLocalRatio, e.sampler.OverdrawRatio())
		e.stats.MaxGlobalRatio = max(e.stats.MaxGlobalRatio, e.globalRatio)
	}

	m.totalGlobal = 0
	if area > 0 {
		m.totalGlobal = float64(total) / area
	}
	m.history.Append(history.Total, m.totalGlobal)
	for _, e := range m.order {
		if s := e.sampler.Surface(); s != nil {
			m.history.Append(s.Name(), e.globalRatio)
		}
	}

	return errors.Join(errs...)
}

// ResetStats sets every running maximum to zero. History is untouched.
func (m *Monitor) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.order {
		e.stats = SamplerStats{}
	}
}

// SetDisplaySize sets the display area global ratios are computed against.
// Negative values clamp to zero; a zero area yields zero global ratios.
func (m *Monitor) SetDisplaySize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.displayWidth = max(width, 0)
	m.displayHeight = max(height, 0)
}

// DisplaySize returns the display area set by SetDisplaySize.
func (m *Monitor) DisplaySize() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.displayWidth, m.displayHeight
}

// SetHistoryLimit bounds every history series to n samples (0 = unbounded),
// evicting older samples. Presenters call it when their plot width changes.
func (m *Monitor) SetHistoryLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg.HistoryLimit = max(n, 0)
	if m.history != nil {
		m.history.SetLimit(m.cfg.HistoryLimit)
	}
}

// Len returns the number of live samplers.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Sampler returns the sampler bound to s.
func (m *Monitor) Sampler(s surface.Surface) (*Sampler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entry(s)
	if !ok {
		return nil, false
	}
	return e.sampler, true
}

// Stats returns the running maxima of the sampler bound to s.
func (m *Monitor) Stats(s surface.Surface) (SamplerStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entry(s)
	if !ok {
		return SamplerStats{}, false
	}
	return e.stats, true
}

func (m *Monitor) entry(s surface.Surface) (*monitored, bool) {
	if !hashable(s) {
		return nil, false
	}
	e, ok := m.samplers[s]
	return e, ok
}

// hashable reports whether s can key the sampler map. Nil is comparable.
func hashable(s surface.Surface) bool {
	return s == nil || reflect.TypeOf(s).Comparable()
}

// History returns copies of all history series, history.Total first once
// SampleAll has run. Returns nil when the monitor is stopped.
func (m *Monitor) History() []*history.Series {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.history == nil {
		return nil
	}
	return m.history.Snapshot()
}
