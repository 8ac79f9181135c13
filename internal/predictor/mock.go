package predictor

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Mock stands in for the endpoint with a coin flip after a fixed delay.
type Mock struct {
	delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock creates a Mock drawing from rng.
func NewMock(delay time.Duration, rng *rand.Rand) *Mock {
	return &Mock{delay: delay, rng: rng}
}

// Predict waits for the delay and returns 0 or 1.
func (m *Mock) Predict(ctx context.Context, _ Request) (int, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Intn(2), nil
}
