// Package heartrate holds heart-rate windows and the summary statistics the
// phone and the development predictor compute over them.
package heartrate

import (
	"math"
	"sort"
	"time"
)

// Window is an ordered run of beats-per-minute samples closing at End.
type Window struct {
	Samples []float64
	End     time.Time
}

// Timestamp renders End the way the wearable stamps outgoing windows.
func (w Window) Timestamp() string {
	return FormatTimestamp(w.End)
}

// Empty reports whether the window carries no samples.
func (w Window) Empty() bool { return len(w.Samples) == 0 }

// FormatTimestamp formats t as ISO-8601 in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ParseTimestamp accepts RFC 3339 with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Summary describes a window. With fewer than two samples only Count, Mean,
// Min and Max are filled and Partial is set.
type Summary struct {
	Count         int     `json:"count"`
	Mean          float64 `json:"mean"`
	Std           float64 `json:"std"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Range         float64 `json:"range"`
	Median        float64 `json:"median"`
	IQR           float64 `json:"iqr"`
	Slope         float64 `json:"slope"`
	RMSSD         float64 `json:"rmssd"`
	MeanAbsChange float64 `json:"mean_abs_change"`
	MaxDiff       float64 `json:"max_diff"`
	Partial       bool    `json:"partial,omitempty"`
}

// Summarize computes window statistics over samples.
func Summarize(samples []float64) Summary {
	n := len(samples)
	if n == 0 {
		return Summary{Partial: true}
	}

	s := Summary{Count: n, Min: samples[0], Max: samples[0]}
	var sum float64
	for _, v := range samples {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(n)
	if n < 2 {
		s.Partial = true
		return s
	}

	s.Range = s.Max - s.Min

	var sq float64
	for _, v := range samples {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(n))

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	s.Median = percentile(sorted, 0.5)
	s.IQR = percentile(sorted, 0.75) - percentile(sorted, 0.25)

	s.Slope = slope(samples)

	var diffSq, diffAbs float64
	for i := 1; i < n; i++ {
		d := samples[i] - samples[i-1]
		diffSq += d * d
		diffAbs += math.Abs(d)
		s.MaxDiff = math.Max(s.MaxDiff, math.Abs(d))
	}
	s.RMSSD = math.Sqrt(diffSq / float64(n-1))
	s.MeanAbsChange = diffAbs / float64(n-1)
	return s
}

// percentile interpolates linearly between closest ranks; sorted must be ascending.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// slope is the least-squares gradient of samples against their index.
func slope(samples []float64) float64 {
	n := float64(len(samples))
	meanX := (n - 1) / 2
	var meanY float64
	for _, v := range samples {
		meanY += v
	}
	meanY /= n

	var num, den float64
	for i, v := range samples {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
