package pipeline

import "time"

// Gate enforces a minimum interval between analysis cycles.
type Gate struct {
	interval time.Duration
	last     time.Time
	primed   bool
}

// NewGate returns a gate that opens at most once per interval. A zero
// interval opens on every call.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: max(interval, 0)}
}

// Interval returns the minimum spacing between cycles.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Allow reports whether a cycle may run at now and, if so, records now as
// the time of the last cycle.
func (g *Gate) Allow(now time.Time) bool {
	if g.primed && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	g.primed = true
	return true
}

// Reset forgets the last cycle.
func (g *Gate) Reset() {
	g.primed = false
	g.last = time.Time{}
}
