package lifecycle

import (
	"math"
	"sync"
)

type Trend string

const (
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
)

// trendThreshold is the minimum change, in percentage points, that counts
// as movement.
const trendThreshold = 1.0

// TrendTracker remembers the last breach percent per key and classifies the
// next observation against it.
type TrendTracker struct {
	mu   sync.Mutex
	last map[string]float64
}

func NewTrendTracker() *TrendTracker {
	return &TrendTracker{last: map[string]float64{}}
}

// Observe records percent for key. The first observation is always stable.
func (t *TrendTracker) Observe(key string, percent float64) Trend {
	t.mu.Lock()
	defer t.mu.Unlock()
	previous, seen := t.last[key]
	t.last[key] = percent
	if !seen {
		return TrendStable
	}
	diff := percent - previous
	switch {
	case math.Abs(diff) < trendThreshold:
		return TrendStable
	case diff < 0:
		return TrendImproving
	default:
		return TrendWorsening
	}
}

func (t *TrendTracker) Forget(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}
