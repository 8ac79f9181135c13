package sensor

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestBufferWindowInclusiveAndOrdered(t *testing.T) {
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	buf := NewBuffer(0)
	buf.Add(base.Add(20*time.Second), 75)
	buf.Add(base, 70)
	buf.Add(base.Add(10*time.Second), 72)
	buf.Add(base.Add(90*time.Second), 90)

	got, err := buf.Window(context.Background(), base, base.Add(20*time.Second))
	if err != nil {
		t.Fatalf("Window error: %v", err)
	}
	want := []float64{70, 72, 75}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBufferRetentionAndInvalidReadings(t *testing.T) {
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	buf := NewBuffer(time.Minute)
	buf.Add(base, 70)
	buf.Add(base.Add(30*time.Second), math.NaN())
	buf.Add(base.Add(30*time.Second), 0)
	buf.Add(base.Add(30*time.Second), 72)
	if buf.Len() != 2 {
		t.Fatalf("expected 2 readings, got %d", buf.Len())
	}
	buf.Add(base.Add(2*time.Minute), 80)
	if buf.Len() != 1 {
		t.Fatalf("expected old readings evicted, got %d", buf.Len())
	}
}

func TestSimulatedStaysInBoundsAndGaps(t *testing.T) {
	buf := NewBuffer(0)
	sim := NewSimulated(buf, 72, time.Second, rand.New(rand.NewSource(7)))
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		sim.Step(base.Add(time.Duration(i) * time.Second))
	}
	got, _ := sim.Window(context.Background(), base, base.Add(time.Hour))
	if len(got) != 200 {
		t.Fatalf("expected 200 readings, got %d", len(got))
	}
	for _, v := range got {
		if v < minSimulatedBPM || v > maxSimulatedBPM {
			t.Fatalf("reading out of bounds: %v", v)
		}
	}

	sim.SetGap(true)
	sim.Step(base.Add(time.Hour))
	if buf.Len() != 200 {
		t.Fatalf("expected no reading during a gap, got %d", buf.Len())
	}
}

func TestSimulatedBackfill(t *testing.T) {
	buf := NewBuffer(0)
	sim := NewSimulated(buf, 72, 10*time.Second, rand.New(rand.NewSource(1)))
	fixed := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }
	sim.Backfill(time.Minute)
	if buf.Len() != 7 {
		t.Fatalf("expected 7 backfilled readings, got %d", buf.Len())
	}
}

func TestDecodeMeasurement(t *testing.T) {
	if bpm, ok := DecodeMeasurement([]byte{0x00, 72}); !ok || bpm != 72 {
		t.Fatalf("uint8 format: %v %v", bpm, ok)
	}
	if bpm, ok := DecodeMeasurement([]byte{0x01, 0x2c, 0x01}); !ok || bpm != 300 {
		t.Fatalf("uint16 format: %v %v", bpm, ok)
	}
	if _, ok := DecodeMeasurement([]byte{0x01, 0x2c}); ok {
		t.Fatal("expected short uint16 payload to be rejected")
	}
	if _, ok := DecodeMeasurement(nil); ok {
		t.Fatal("expected empty payload to be rejected")
	}
}
