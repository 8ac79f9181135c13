// Package sensor provides heart-rate readings on the wearable side.
package sensor

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// Source returns the heart-rate samples recorded between start and end, oldest first.
type Source interface {
	Window(ctx context.Context, start, end time.Time) ([]float64, error)
}

// Reading is a single heart-rate measurement.
type Reading struct {
	At  time.Time
	BPM float64
}

// Buffer keeps recent readings in time order and drops those older than its retention.
type Buffer struct {
	mu        sync.Mutex
	readings  []Reading
	retention time.Duration
}

// NewBuffer creates a Buffer that keeps readings for retention.
func NewBuffer(retention time.Duration) *Buffer {
	return &Buffer{retention: retention}
}

// Add records a reading. Non-finite and non-positive values are ignored.
func (b *Buffer) Add(at time.Time, bpm float64) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.readings), func(i int) bool { return b.readings[i].At.After(at) })
	b.readings = append(b.readings, Reading{})
	copy(b.readings[i+1:], b.readings[i:])
	b.readings[i] = Reading{At: at, BPM: bpm}

	if b.retention > 0 {
		cutoff := b.readings[len(b.readings)-1].At.Add(-b.retention)
		drop := sort.Search(len(b.readings), func(i int) bool { return !b.readings[i].At.Before(cutoff) })
		if drop > 0 {
			b.readings = append(b.readings[:0], b.readings[drop:]...)
		}
	}
}

// Len returns the number of retained readings.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readings)
}

// Window implements Source. Both bounds are inclusive.
func (b *Buffer) Window(_ context.Context, start, end time.Time) ([]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []float64
	for _, r := range b.readings {
		if r.At.Before(start) {
			continue
		}
		if r.At.After(end) {
			break
		}
		out = append(out, r.BPM)
	}
	return out, nil
}
