package batch

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Progress tracks completed units and spans of a run. It is safe for
// concurrent use.
type Progress struct {
	totalUnits     int
	completedUnits int
	totalSpans     int
	completedSpans int
	startTime      time.Time
	lastUpdate     time.Time

	mu sync.RWMutex
}

// NewProgress returns a tracker for totalUnits split into totalSpans.
func NewProgress(totalUnits, totalSpans int) *Progress {
	now := time.Now()
	return &Progress{
		totalUnits: totalUnits,
		totalSpans: totalSpans,
		startTime:  now,
		lastUpdate: now,
	}
}

// AddProcessed records one completed span of units.
func (p *Progress) AddProcessed(units int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completedUnits += units
	p.completedSpans++
	p.lastUpdate = time.Now()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime)
	s := Snapshot{
		TotalUnits:     p.totalUnits,
		CompletedUnits: p.completedUnits,
		TotalSpans:     p.totalSpans,
		CompletedSpans: p.completedSpans,
		Elapsed:        elapsed,
	}
	if p.totalUnits > 0 {
		s.PercentComplete = float64(p.completedUnits) / float64(p.totalUnits) * percentMultiplier
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.UnitsPerSecond = float64(p.completedUnits) / secs
	}
	if p.completedUnits > 0 {
		perUnit := elapsed / time.Duration(p.completedUnits)
		s.Remaining = perUnit * time.Duration(p.totalUnits-p.completedUnits)
	}
	return s
}

// Snapshot is an immutable view of a run's progress.
type Snapshot struct {
	TotalUnits      int
	CompletedUnits  int
	TotalSpans      int
	CompletedSpans  int
	PercentComplete float64
	UnitsPerSecond  float64
	Elapsed         time.Duration
	Remaining       time.Duration
}

// Complete reports whether every unit has been processed.
func (s Snapshot) Complete() bool {
	return s.CompletedUnits >= s.TotalUnits
}
