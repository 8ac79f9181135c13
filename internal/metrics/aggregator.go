// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/sampler"
)

// Aggregator counts sampling outcomes and prediction results.
type Aggregator struct {
	mutex sync.Mutex
	snap  Snapshot
	now   func() time.Time
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// RecordSample implements sampler.Recorder.
func (a *Aggregator) RecordSample(outcome sampler.Outcome, samples int) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	switch outcome {
	case sampler.Sent:
		a.snap.WindowsSent++
		updateRunningStat(&a.snap.SamplesPerWindow, float64(samples))
	case sampler.Empty:
		a.snap.WindowsEmpty++
	case sampler.Unreachable:
		a.snap.WindowsUnreachable++
	default:
		a.snap.WindowsFailed++
	}
	a.snap.UpdatedUTC = a.now().UTC()
}

// RecordPrediction records one prediction round trip.
func (a *Aggregator) RecordPrediction(latency time.Duration, err error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err != nil {
		a.snap.PredictionsFailed++
	} else {
		a.snap.PredictionsOK++
	}
	updateRunningStat(&a.snap.LatencyMillis, float64(latency.Milliseconds()))
	a.snap.UpdatedUTC = a.now().UTC()
}

// Snapshot returns a copy of the current counters.
func (a *Aggregator) Snapshot() Snapshot {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.snap
}

// Save writes the current counters to path as indented JSON.
func (a *Aggregator) Save(path string) error {
	snap := a.Snapshot()
	logging.LogEvent("[METRICS] Saving metrics to %s", path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// StdDev returns the population standard deviation of the observed values.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	rs.Last = value
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}
