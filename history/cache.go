package history

import (
	"slices"
	"sync"
)

// Total is the name of the aggregate series.
const Total = "Total"

// Cache holds named series that share one limit.
//
// Cache is safe for concurrent use. Series names are kept in first-append
// order so presenters draw bands in a stable order.
type Cache struct {
	mu     sync.RWMutex
	limit  int
	series map[string]*Series
	order  []string
}

// New creates an empty cache. limit <= 0 means unbounded series.
func New(limit int) *Cache {
	return &Cache{
		limit:  max(limit, 0),
		series: make(map[string]*Series),
	}
}

// Append adds a sample to the named series, creating it if needed.
func (c *Cache) Append(name string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.series[name]
	if !ok {
		s = NewSeries(name, c.limit)
		c.series[name] = s
		c.order = append(c.order, name)
	}
	s.Append(v)
}

// Values returns a copy of the named series' samples, or nil.
func (c *Cache) Values(name string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.series[name]; ok {
		return s.Values()
	}
	return nil
}

// Last returns the newest sample of the named series.
func (c *Cache) Last(name string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.series[name]; ok {
		return s.Last()
	}
	return 0, false
}

// Names returns the series names in first-append order.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Len returns the number of series.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.series)
}

// Limit returns the per-series limit.
func (c *Cache) Limit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limit
}

// SetLimit changes the limit of every series, evicting old samples.
func (c *Cache) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limit = max(limit, 0)
	for _, s := range c.series {
		s.SetLimit(c.limit)
	}
}

// Delete removes the named series.
func (c *Cache) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.series[name]; !ok {
		return false
	}
	delete(c.series, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	return true
}

// Clear removes every series.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.series)
	c.order = nil
}

// Snapshot returns copies of every series in first-append order.
func (c *Cache) Snapshot() []*Series {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Series, 0, len(c.order))
	for _, name := range c.order {
		s := c.series[name]
		out = append(out, &Series{name: s.name, limit: s.limit, values: s.Values()})
	}
	return out
}
