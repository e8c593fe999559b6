package history

import "slices"

// Series is a bounded sequence of samples, oldest first.
//
// Series is NOT thread-safe; Cache guards the series it owns.
type Series struct {
	name   string
	limit  int
	values []float64
}

// NewSeries creates an empty series. limit <= 0 means unbounded.
func NewSeries(name string, limit int) *Series {
	return &Series{name: name, limit: max(limit, 0)}
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Limit returns the maximum number of retained samples (0 = unbounded).
func (s *Series) Limit() int { return s.limit }

// Len returns the number of retained samples.
func (s *Series) Len() int { return len(s.values) }

// Append adds a sample, evicting the oldest samples beyond the limit.
func (s *Series) Append(v float64) {
	s.values = append(s.values, v)
	s.trim()
}

// SetLimit changes the limit and evicts samples beyond it.
func (s *Series) SetLimit(limit int) {
	s.limit = max(limit, 0)
	s.trim()
}

// Values returns a copy of the samples, oldest first.
func (s *Series) Values() []float64 {
	return slices.Clone(s.values)
}

// Last returns the most recent sample.
func (s *Series) Last() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

// Max returns the largest retained sample, or 0 for an empty series.
func (s *Series) Max() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return slices.Max(s.values)
}

func (s *Series) trim() {
	if s.limit == 0 || len(s.values) <= s.limit {
		return
	}
	n := copy(s.values, s.values[len(s.values)-s.limit:])
	clear(s.values[n:])
	s.values = s.values[:n]
}
