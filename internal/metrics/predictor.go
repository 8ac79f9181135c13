// internal/metrics/predictor.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/predictor"
)

// Predictor is a decorator that wraps a predictor.Predictor to record metrics.
type Predictor struct {
	wrapped    predictor.Predictor
	aggregator *Aggregator
}

// NewPredictor creates a metrics-enabled predictor that wraps an existing one.
func NewPredictor(wrapped predictor.Predictor, aggregator *Aggregator) *Predictor {
	logging.LogEvent("[METRICS] Wrapping predictor with metrics predictor")
	return &Predictor{wrapped: wrapped, aggregator: aggregator}
}

// Predict times the wrapped call and records its outcome.
func (p *Predictor) Predict(ctx context.Context, req predictor.Request) (int, error) {
	start := time.Now()
	value, err := p.wrapped.Predict(ctx, req)
	if p.aggregator != nil {
		p.aggregator.RecordPrediction(time.Since(start), err)
	}
	return value, err
}

// Wrapped returns the decorated predictor.
func (p *Predictor) Wrapped() predictor.Predictor { return p.wrapped }
