package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/sampler"
)

type stubPredictor struct {
	value int
	err   error
}

func (s stubPredictor) Predict(context.Context, predictor.Request) (int, error) {
	return s.value, s.err
}

func TestRecordSample(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSample(sampler.Sent, 10)
	agg.RecordSample(sampler.Sent, 20)
	agg.RecordSample(sampler.Empty, 0)
	agg.RecordSample(sampler.Unreachable, 5)
	agg.RecordSample(sampler.Failed, 0)

	snap := agg.Snapshot()
	if snap.WindowsSent != 2 || snap.WindowsEmpty != 1 || snap.WindowsUnreachable != 1 || snap.WindowsFailed != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.SamplesPerWindow.Mean != 15 || snap.SamplesPerWindow.Min != 10 || snap.SamplesPerWindow.Max != 20 {
		t.Fatalf("unexpected samples stat: %+v", snap.SamplesPerWindow)
	}
	if math.Abs(snap.SamplesPerWindow.StdDev()-5) > 1e-9 {
		t.Fatalf("expected stddev 5, got %v", snap.SamplesPerWindow.StdDev())
	}
	if snap.UpdatedUTC.IsZero() {
		t.Fatal("expected update time to be set")
	}
}

func TestPredictorDecorator(t *testing.T) {
	agg := NewAggregator()
	ok := NewPredictor(stubPredictor{value: 1}, agg)
	if got, err := ok.Predict(context.Background(), predictor.Request{}); err != nil || got != 1 {
		t.Fatalf("unexpected result %d %v", got, err)
	}
	failing := NewPredictor(stubPredictor{err: errors.New("down")}, agg)
	if _, err := failing.Predict(context.Background(), predictor.Request{}); err == nil {
		t.Fatal("expected wrapped error")
	}

	snap := agg.Snapshot()
	if snap.PredictionsOK != 1 || snap.PredictionsFailed != 1 || snap.LatencyMillis.Count != 2 {
		t.Fatalf("unexpected prediction counters: %+v", snap)
	}
	if _, isStub := ok.Wrapped().(stubPredictor); !isStub {
		t.Fatalf("expected Wrapped to expose the stub, got %T", ok.Wrapped())
	}
}

func TestSave(t *testing.T) {
	agg := NewAggregator()
	agg.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }
	agg.RecordPrediction(120*time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "reports", "metrics.json")
	if err := agg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.PredictionsOK != 1 || snap.LatencyMillis.Last != 120 {
		t.Fatalf("unexpected saved snapshot: %+v", snap)
	}
}
