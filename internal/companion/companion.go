// Package companion is the phone-side handler that turns relayed windows into
// predictions.
package companion

import (
	"context"
	"sync"

	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/relay"
)

// Result is the outcome of one prediction. Err is set when the endpoint
// failed or answered with something unusable; Prediction is then meaningless.
type Result struct {
	Window     relay.Message
	Prediction int
	Err        error
}

// Companion forwards every inbound window to a Predictor.
type Companion struct {
	Predictor predictor.Predictor
	// OnWindow, if set, sees each raw window before its prediction is issued.
	OnWindow func(relay.Message)
	// Publish receives exactly one Result per handled window.
	Publish func(Result)
}

// New creates a Companion.
func New(p predictor.Predictor, publish func(Result)) *Companion {
	return &Companion{Predictor: p, Publish: publish}
}

// Handle issues one prediction for msg and publishes the result. It never retries.
func (c *Companion) Handle(ctx context.Context, msg relay.Message) Result {
	res := Result{Window: msg}
	res.Prediction, res.Err = c.Predictor.Predict(ctx, predictor.Request{HR: msg.HR, Timestamp: msg.TS})
	if res.Err != nil {
		logging.LogEvent("[COMPANION] prediction for %s failed: %v", msg.TS, res.Err)
	} else {
		logging.LogEvent("[COMPANION] prediction for %s: %d (%s)", msg.TS, res.Prediction, predictor.Label(res.Prediction))
	}
	if c.Publish != nil {
		c.Publish(res)
	}
	return res
}

// Run handles windows from inbox until ctx is cancelled or the inbox closes.
// Each window is predicted on its own goroutine, so a later window may resolve
// before an earlier one. Run waits for in-flight predictions before returning.
func (c *Companion) Run(ctx context.Context, inbox relay.Inbox) {
	var wg sync.WaitGroup
	defer wg.Wait()

	messages := inbox.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			logging.LogRequest("PHONE<-WATCH", "relay", "hr", msg)
			if c.OnWindow != nil {
				c.OnWindow(msg)
			}
			wg.Add(1)
			go func(m relay.Message) {
				defer wg.Done()
				c.Handle(ctx, m)
			}(msg)
		}
	}
}
