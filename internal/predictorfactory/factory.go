// internal/predictorfactory/factory.go
package predictorfactory

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mwiater/hunger/internal/appconfig"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/metrics"
	"github.com/mwiater/hunger/internal/predictor"
)

// New selects and configures the predictor named by the application
// configuration. It chooses between the remote endpoint and the mock and wraps
// the result with metrics collection when an aggregator is supplied.
func New(cfg *appconfig.Config, aggregator *metrics.Aggregator) (predictor.Predictor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to predictor factory")
	}

	var p predictor.Predictor
	switch cfg.PredictorKind() {
	case appconfig.PredictorRemote:
		remote := predictor.NewRemote(cfg.BaseURL(), cfg.PredictTimeout())
		logging.LogEvent("Remote predictor ready: %s (timeout %s)", remote.Endpoint(), cfg.PredictTimeout())
		p = remote
	case appconfig.PredictorMock:
		logging.LogEvent("Mock predictor ready: delay %s", cfg.MockDelay())
		p = predictor.NewMock(cfg.MockDelay(), rand.New(rand.NewSource(time.Now().UnixNano())))
	default:
		return nil, fmt.Errorf("unsupported predictor kind %q", cfg.Predictor.Kind)
	}

	if aggregator != nil {
		p = metrics.NewPredictor(p, aggregator)
	}
	return p, nil
}
