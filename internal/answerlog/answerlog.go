// Package answerlog appends the user's answers to optional, best-effort logs.
package answerlog

import (
	"errors"
	"time"

	"github.com/mwiater/hunger/internal/logging"
)

// Entry is one answered prompt.
type Entry struct {
	Timestamp  time.Time
	Prediction int
	Yes        bool
	Correct    bool
}

// Recorder persists answer entries.
type Recorder interface {
	Record(Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(Entry) error { return nil }
func (Nop) Close() error       { return nil }

// Multi fans an entry out to several recorders.
type Multi []Recorder

// Record writes e to every recorder and joins their errors.
func (m Multi) Record(e Entry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every recorder and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Write records e and logs any failure. Answer logging never interrupts the
// interaction flow.
func Write(r Recorder, e Entry) {
	if r == nil {
		return
	}
	if err := r.Record(e); err != nil {
		logging.LogEvent("[ANSWERLOG] record failed: %v", err)
	}
}
