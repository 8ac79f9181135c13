package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemotePredictPostsWindow(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hungry": 1}`))
	}))
	defer server.Close()

	remote := NewRemote(server.URL+"/", 5*time.Second)
	got, err := remote.Predict(context.Background(), Request{HR: []float64{70, 72.5}, Timestamp: "2025-04-01T12:00:00Z"})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if got != NotHungry {
		t.Fatalf("expected 1, got %d", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
	hr, ok := captured["hr"].([]any)
	if !ok || len(hr) != 2 || hr[1].(float64) != 72.5 {
		t.Fatalf("unexpected hr payload: %v", captured["hr"])
	}
	if captured["timestamp"] != "2025-04-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp payload: %v", captured["timestamp"])
	}
}

func TestRemotePredictDoesNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	remote := NewRemote(server.URL, 5*time.Second)
	if _, err := remote.Predict(context.Background(), Request{HR: []float64{70}}); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestRemotePredictMalformed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prediction": 1}`))
	}))
	defer server.Close()

	remote := NewRemote(server.URL, 5*time.Second)
	if _, err := remote.Predict(context.Background(), Request{HR: []float64{70}}); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestRemotePredictTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	remote := NewRemote(server.URL, 50*time.Millisecond)
	if _, err := remote.Predict(context.Background(), Request{HR: []float64{70}}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestParseResponse(t *testing.T) {
	valid := map[string]int{
		`{"hungry":0}`:             Hungry,
		`{"hungry":1,"extra":"x"}`: NotHungry,
		` { "hungry" : 1 } `:       NotHungry,
	}
	for raw, want := range valid {
		got, err := ParseResponse([]byte(raw))
		if err != nil {
			t.Fatalf("ParseResponse(%s) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseResponse(%s) = %d, want %d", raw, got, want)
		}
	}

	for _, raw := range []string{
		``,
		`null`,
		`[1]`,
		`{}`,
		`{"hungry":null}`,
		`{"hungry":"1"}`,
		`{"hungry":1.5}`,
		`{"hungry":2}`,
		`{"hungry":true}`,
		`<html>`,
	} {
		if _, err := ParseResponse([]byte(raw)); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse for %q, got %v", raw, err)
		}
	}
}

func TestMockPredict(t *testing.T) {
	mock := NewMock(0, rand.New(rand.NewSource(42)))
	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		got, err := mock.Predict(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Predict error: %v", err)
		}
		if got != Hungry && got != NotHungry {
			t.Fatalf("unexpected value %d", got)
		}
		seen[got] = true
	}
	if !seen[Hungry] || !seen[NotHungry] {
		t.Fatalf("expected both outcomes over 50 draws, got %v", seen)
	}
}

func TestMockPredictHonoursContext(t *testing.T) {
	mock := NewMock(time.Hour, rand.New(rand.NewSource(1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Predict(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	if Label(Hungry) != "Hungry" || Label(NotHungry) != "Not Hungry" {
		t.Fatal("unexpected labels")
	}
}
