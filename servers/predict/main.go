// main.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.yaml.in/yaml/v3"

	"github.com/mwiater/hunger/internal/heartrate"
)

const (
	modeRandom    = "random"
	modeThreshold = "threshold"
)

// PredictRequest is the body the phone posts.
type PredictRequest struct {
	HR        []float64 `json:"hr"`
	Timestamp string    `json:"timestamp"`
}

// PredictResponse carries the classification; 1 means the user ate recently.
type PredictResponse struct {
	Hungry   int                `json:"hungry"`
	Features *heartrate.Summary `json:"features,omitempty"`
}

type ErrResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type Server struct {
	mu  sync.Mutex
	cfg *Config
	rng *rand.Rand
}

const requestSchema = `{
  "type": "object",
  "required": ["hr", "timestamp"],
  "properties": {
    "hr": { "type": "array", "items": { "type": "number" } },
    "timestamp": { "type": "string" }
  }
}`

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		panic(err)
	}
	return s
}()

func main() {
	path := os.Getenv("PREDICT_CONFIG")
	if path == "" {
		path = filepath.Join("servers", "predict", "predict.yml")
	}
	cfg, err := loadConfig(path)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	s := newServer(cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("predict config: host=%s port=%d mode=%s threshold_bpm=%.1f features=%v", cfg.Host, cfg.Port, cfg.Mode, cfg.ThresholdBPM, cfg.IncludeFeatures)
	log.Printf("listening on %s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

func newServer(cfg *Config) *Server {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Server{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /predict", s.handlePredict)
	return mux
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, &req, 1<<20 /* 1 MiB */); err != nil {
		log.Printf("predict decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrResp{OK: false, Error: "invalid request: " + err.Error()})
		return
	}
	if _, err := heartrate.ParseTimestamp(req.Timestamp); err != nil {
		log.Printf("predict timestamp not RFC 3339: %q", req.Timestamp)
	}

	summary := heartrate.Summarize(req.HR)
	resp := PredictResponse{Hungry: s.decide(summary)}
	if s.cfg.IncludeFeatures {
		resp.Features = &summary
	}
	log.Printf("predict %s: %d samples mean=%.1f -> hungry=%d", req.Timestamp, summary.Count, summary.Mean, resp.Hungry)
	writeJSON(w, http.StatusOK, resp)
}

// decide returns 1 (not hungry) or 0 (hungry). It is a fixture, not a model.
func (s *Server) decide(summary heartrate.Summary) int {
	switch s.cfg.Mode {
	case modeThreshold:
		if summary.Count > 0 && summary.Mean > s.cfg.ThresholdBPM {
			return 1
		}
		return 0
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rng.Intn(2)
	}
}

type Config struct {
	Host            string  `yaml:"host"`
	Port            int     `yaml:"port"`
	Mode            string  `yaml:"mode"`
	ThresholdBPM    float64 `yaml:"threshold_bpm"`
	Seed            int64   `yaml:"seed"`
	IncludeFeatures bool    `yaml:"include_features"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch cfg.Mode {
	case "":
		cfg.Mode = modeRandom
	case modeRandom, modeThreshold:
	default:
		return nil, fmt.Errorf("invalid mode %q (expected %q or %q)", cfg.Mode, modeRandom, modeThreshold)
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = 5000
	}
	if cfg.ThresholdBPM <= 0 {
		cfg.ThresholdBPM = 85
	}
	return &cfg, nil
}

// decodeJSON validates the body against the request schema before decoding it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return err
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return errors.New(strings.Join(errs, ", "))
	}
	return json.Unmarshal(raw, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
