// Package predictor defines the hunger prediction capability and its remote
// and mock implementations.
package predictor

import (
	"context"
	"errors"
)

// Prediction values returned by the endpoint.
const (
	// Hungry means the window looks like the user has not eaten.
	Hungry = 0
	// NotHungry means the window looks like the user ate recently.
	NotHungry = 1
)

// ErrMalformedResponse is returned when the endpoint answers with something
// other than a JSON object holding an integer hungry field of 0 or 1.
var ErrMalformedResponse = errors.New("predictor: malformed response")

// Request is one heart-rate window submitted for classification.
type Request struct {
	HR        []float64 `json:"hr"`
	Timestamp string    `json:"timestamp"`
}

// Predictor classifies a heart-rate window.
type Predictor interface {
	Predict(ctx context.Context, req Request) (int, error)
}

// Label returns the display name for a prediction value.
func Label(prediction int) string {
	if prediction == NotHungry {
		return "Not Hungry"
	}
	return "Hungry"
}
