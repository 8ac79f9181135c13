package sensor

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	minSimulatedBPM = 40
	maxSimulatedBPM = 190
)

// Simulated produces a bounded random walk around a resting heart rate.
type Simulated struct {
	*Buffer

	mu      sync.Mutex
	rng     *rand.Rand
	resting float64
	current float64
	cadence time.Duration
	gap     bool
	now     func() time.Time
}

// NewSimulated creates a simulator emitting one reading per cadence into buf.
func NewSimulated(buf *Buffer, resting float64, cadence time.Duration, rng *rand.Rand) *Simulated {
	if cadence <= 0 {
		cadence = 5 * time.Second
	}
	return &Simulated{
		Buffer:  buf,
		rng:     rng,
		resting: resting,
		current: resting,
		cadence: cadence,
		now:     time.Now,
	}
}

// SetGap pauses or resumes readings, as when the watch is off the wrist.
func (s *Simulated) SetGap(gap bool) {
	s.mu.Lock()
	s.gap = gap
	s.mu.Unlock()
}

// Step records the next reading at the given instant.
func (s *Simulated) Step(at time.Time) {
	s.mu.Lock()
	if s.gap {
		s.mu.Unlock()
		return
	}
	s.current += (s.resting-s.current)*0.1 + s.rng.NormFloat64()*1.5
	if s.current < minSimulatedBPM {
		s.current = minSimulatedBPM
	}
	if s.current > maxSimulatedBPM {
		s.current = maxSimulatedBPM
	}
	bpm := s.current
	s.mu.Unlock()

	s.Buffer.Add(at, bpm)
}

// Backfill records readings covering span up to now so the first window is not empty.
func (s *Simulated) Backfill(span time.Duration) {
	end := s.now()
	for at := end.Add(-span); !at.After(end); at = at.Add(s.cadence) {
		s.Step(at)
	}
}

// Run emits readings until ctx is cancelled.
func (s *Simulated) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.Step(t)
		}
	}
}
