package relay

import (
	"context"
	"sync"

	"github.com/mwiater/hunger/internal/logging"
)

// Loopback joins a wearable and a phone running in the same process.
// It implements both Link and Inbox.
type Loopback struct {
	mu        sync.RWMutex
	ch        chan Message
	reachable bool
	closed    bool
}

// NewLoopback creates a reachable loopback holding up to buffer undelivered messages.
func NewLoopback(buffer int) *Loopback {
	if buffer < 1 {
		buffer = 1
	}
	return &Loopback{ch: make(chan Message, buffer), reachable: true}
}

// SetReachable simulates the phone going in and out of range.
func (l *Loopback) SetReachable(reachable bool) {
	l.mu.Lock()
	l.reachable = reachable
	l.mu.Unlock()
}

// Reachable reports whether Send would deliver.
func (l *Loopback) Reachable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reachable && !l.closed
}

// Send delivers a copy of msg, dropping it if the phone is away or backed up.
func (l *Loopback) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.reachable || l.closed {
		return ErrUnreachable
	}
	msg.HR = append([]float64(nil), msg.HR...)
	logging.LogRequest("WATCH->PHONE", "loopback", "hr", msg)
	return offer(l.ch, msg)
}

// Messages returns the phone side of the loopback.
func (l *Loopback) Messages() <-chan Message { return l.ch }

// Close stops delivery and closes the message channel.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.ch)
	}
	return nil
}
