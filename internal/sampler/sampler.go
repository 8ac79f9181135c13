// Package sampler periodically reads a heart-rate window on the wearable and
// relays it to the phone.
package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/mwiater/hunger/internal/heartrate"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/sensor"
)

// Outcome describes what happened to one sampling cycle.
type Outcome int

const (
	// Sent means one window was handed to the link.
	Sent Outcome = iota
	// Empty means the source had no samples for the window.
	Empty
	// Unreachable means the phone was away and the window was dropped.
	Unreachable
	// Failed means the source or the link returned an error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case Empty:
		return "empty"
	case Unreachable:
		return "unreachable"
	default:
		return "failed"
	}
}

// Recorder observes cycle outcomes.
type Recorder interface {
	RecordSample(Outcome, int)
}

// Sampler reads the trailing Span of readings every Interval.
type Sampler struct {
	Source   sensor.Source
	Link     relay.Link
	Interval time.Duration
	Span     time.Duration
	Recorder Recorder
	Now      func() time.Time
}

// New creates a Sampler with the wearable's default timing.
func New(source sensor.Source, link relay.Link, interval, span time.Duration) *Sampler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if span <= 0 {
		span = 60 * time.Second
	}
	return &Sampler{Source: source, Link: link, Interval: interval, Span: span, Now: time.Now}
}

// Run ticks until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick samples one window and relays it if there is something to send and
// someone to send it to. It never returns an error; the outcome is for
// observers only.
func (s *Sampler) Tick(ctx context.Context) Outcome {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	end := now()
	start := end.Add(-s.Span)

	outcome, count := s.tick(ctx, start, end)
	if s.Recorder != nil {
		s.Recorder.RecordSample(outcome, count)
	}
	return outcome
}

func (s *Sampler) tick(ctx context.Context, start, end time.Time) (Outcome, int) {
	samples, err := s.Source.Window(ctx, start, end)
	if err != nil {
		logging.LogEvent("[SAMPLER] read window failed: %v", err)
		return Failed, 0
	}
	if len(samples) == 0 {
		logging.LogEvent("[SAMPLER] no HR")
		return Empty, 0
	}
	if !s.Link.Reachable() {
		logging.LogEvent("[SAMPLER] phone not reachable, dropping %d samples", len(samples))
		return Unreachable, len(samples)
	}

	window := heartrate.Window{Samples: samples, End: end}
	msg := relay.Message{HR: window.Samples, TS: window.Timestamp()}
	if err := s.Link.Send(ctx, msg); err != nil {
		if errors.Is(err, relay.ErrUnreachable) {
			return Unreachable, len(samples)
		}
		logging.LogEvent("[SAMPLER] send failed: %v", err)
		return Failed, len(samples)
	}
	logging.LogEvent("[SAMPLER] sent HR %d samples @ %s", len(samples), msg.TS)
	return Sent, len(samples)
}
