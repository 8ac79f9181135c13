// internal/metrics/types.go
package metrics

import "time"

// Snapshot is a point-in-time copy of the relay and prediction counters.
type Snapshot struct {
	UpdatedUTC time.Time `json:"updated_utc"`

	WindowsSent        int64       `json:"windows_sent"`
	WindowsEmpty       int64       `json:"windows_empty"`
	WindowsUnreachable int64       `json:"windows_unreachable"`
	WindowsFailed      int64       `json:"windows_failed"`
	SamplesPerWindow   RunningStat `json:"samples_per_window"`

	PredictionsOK     int64       `json:"predictions_ok"`
	PredictionsFailed int64       `json:"predictions_failed"`
	LatencyMillis     RunningStat `json:"latency_ms"`
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Last  float64 `json:"last"`
}
