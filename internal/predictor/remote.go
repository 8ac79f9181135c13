package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/hunger/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Remote posts windows to <baseURL>/predict.
type Remote struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewRemote constructs a Remote client with a per-request timeout.
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
		timeout: timeout,
	}
}

// Endpoint returns the full prediction URL.
func (r *Remote) Endpoint() string { return r.baseURL + "/predict" }

type predictResponse struct {
	Hungry json.RawMessage `json:"hungry"`
}

// Predict issues exactly one POST and returns the parsed classification. It does not retry.
func (r *Remote) Predict(ctx context.Context, req Request) (int, error) {
	if req.HR == nil {
		req.HR = []float64{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint := r.Endpoint()
	logging.LogRequest("PHONE->API", endpoint, "predict", body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, err
	}
	logging.LogRequest("API->PHONE", endpoint, "predict", raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("predictor: /predict returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return ParseResponse(raw)
}

// ParseResponse extracts the hungry field from a /predict response body.
func ParseResponse(raw []byte) (int, error) {
	var parsed predictResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	field := bytes.TrimSpace(parsed.Hungry)
	if len(field) == 0 || bytes.Equal(field, []byte("null")) {
		return 0, fmt.Errorf("%w: missing hungry field", ErrMalformedResponse)
	}

	var number json.Number
	if field[0] == '"' || json.Unmarshal(field, &number) != nil {
		return 0, fmt.Errorf("%w: hungry is not a number: %s", ErrMalformedResponse, field)
	}
	value, err := number.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: hungry is not an integer: %s", ErrMalformedResponse, field)
	}
	if value != Hungry && value != NotHungry {
		return 0, fmt.Errorf("%w: hungry out of range: %d", ErrMalformedResponse, value)
	}
	return int(value), nil
}
