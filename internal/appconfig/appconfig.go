// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "config.json"
	// DefaultBaseURL is the prediction endpoint the mobile app shipped with.
	DefaultBaseURL = "https://api-server-floral-cherry-861.fly.dev"
	// defaultPredictTimeout bounds a single /predict round trip.
	defaultPredictTimeout = 10 * time.Second
	// defaultMockDelay mirrors the standalone app's fake loading time.
	defaultMockDelay = 2 * time.Second
	// defaultSampleInterval is how often the wearable samples a window.
	defaultSampleInterval = 30 * time.Second
	// defaultSampleSpan is the trailing duration covered by each window.
	defaultSampleSpan = 60 * time.Second
	// defaultRestingBPM seeds the simulated sensor.
	defaultRestingBPM = 72.0
)

// Predictor kinds.
const (
	PredictorRemote = "remote"
	PredictorMock   = "mock"
)

// Relay transports.
const (
	TransportLoopback  = "loopback"
	TransportMQTT      = "mqtt"
	TransportWebSocket = "websocket"
)

// Sensor sources.
const (
	SourceSimulated = "simulated"
	SourceBLE       = "ble"
)

// Agreement rules.
const (
	RuleAgree   = "agree"
	RuleConfirm = "confirm"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug      bool            `json:"debug" mapstructure:"debug"`
	LogFile    string          `json:"logFile,omitempty" mapstructure:"logFile"`
	Predictor  PredictorConfig `json:"predictor" mapstructure:"predictor"`
	Relay      RelayConfig     `json:"relay" mapstructure:"relay"`
	Sampler    SamplerConfig   `json:"sampler" mapstructure:"sampler"`
	Sensor     SensorConfig    `json:"sensor" mapstructure:"sensor"`
	Session    SessionConfig   `json:"session" mapstructure:"session"`
	AnswerLog  AnswerLogConfig `json:"answerLog" mapstructure:"answerLog"`
	Metrics    bool            `json:"metrics" mapstructure:"metrics"`
	ConfigPath string          `json:"-" mapstructure:"-"`
}

// PredictorConfig selects and configures the prediction capability.
type PredictorConfig struct {
	Kind             string `json:"kind" mapstructure:"kind"`
	BaseURL          string `json:"baseURL" mapstructure:"baseURL"`
	TimeoutSeconds   int    `json:"timeout,omitempty" mapstructure:"timeout"`
	MockDelaySeconds int    `json:"mockDelay,omitempty" mapstructure:"mockDelay"`
}

// RelayConfig describes the wearable to phone connection.
type RelayConfig struct {
	Transport   string `json:"transport" mapstructure:"transport"`
	Broker      string `json:"broker,omitempty" mapstructure:"broker"`
	TopicPrefix string `json:"topicPrefix,omitempty" mapstructure:"topicPrefix"`
	DeviceID    string `json:"deviceID,omitempty" mapstructure:"deviceID"`
	Listen      string `json:"listen,omitempty" mapstructure:"listen"`
	URL         string `json:"url,omitempty" mapstructure:"url"`
}

// SamplerConfig controls the wearable's periodic sampling.
type SamplerConfig struct {
	IntervalSeconds int `json:"interval,omitempty" mapstructure:"interval"`
	SpanSeconds     int `json:"span,omitempty" mapstructure:"span"`
}

// SensorConfig selects where heart-rate readings come from.
type SensorConfig struct {
	Source     string  `json:"source" mapstructure:"source"`
	RestingBPM float64 `json:"restingBPM,omitempty" mapstructure:"restingBPM"`
	DeviceName string  `json:"deviceName,omitempty" mapstructure:"deviceName"`
}

// SessionConfig holds interaction flow settings.
type SessionConfig struct {
	AgreementRule string `json:"agreementRule" mapstructure:"agreementRule"`
}

// AnswerLogConfig configures where user answers are appended.
type AnswerLogConfig struct {
	CSVPath     string `json:"csvPath,omitempty" mapstructure:"csvPath"`
	PostgresDSN string `json:"postgresDSN,omitempty" mapstructure:"postgresDSN"`
}

// PredictorKind returns the configured predictor, defaulting to the remote endpoint.
func (c Config) PredictorKind() string {
	if k := strings.ToLower(strings.TrimSpace(c.Predictor.Kind)); k != "" {
		return k
	}
	return PredictorRemote
}

// BaseURL returns the prediction endpoint base without a trailing slash.
func (c Config) BaseURL() string {
	if u := strings.TrimSpace(c.Predictor.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultBaseURL
}

// PredictTimeout returns the timeout duration for a prediction request.
func (c Config) PredictTimeout() time.Duration {
	if c.Predictor.TimeoutSeconds <= 0 {
		return defaultPredictTimeout
	}
	return time.Duration(c.Predictor.TimeoutSeconds) * time.Second
}

// MockDelay returns how long the mock predictor waits before answering.
func (c Config) MockDelay() time.Duration {
	if c.Predictor.MockDelaySeconds <= 0 {
		return defaultMockDelay
	}
	return time.Duration(c.Predictor.MockDelaySeconds) * time.Second
}

// Transport returns the relay transport, defaulting to loopback.
func (c Config) Transport() string {
	if t := strings.ToLower(strings.TrimSpace(c.Relay.Transport)); t != "" {
		return t
	}
	return TransportLoopback
}

// TopicPrefix returns the MQTT topic prefix.
func (c Config) TopicPrefix() string {
	if p := strings.Trim(strings.TrimSpace(c.Relay.TopicPrefix), "/"); p != "" {
		return p
	}
	return "hunger"
}

// DeviceID returns the wearable identifier used in relay topics.
func (c Config) DeviceID() string {
	if id := strings.TrimSpace(c.Relay.DeviceID); id != "" {
		return id
	}
	return "watch"
}

// ListenAddr returns the address the phone's websocket relay listens on.
func (c Config) ListenAddr() string {
	if a := strings.TrimSpace(c.Relay.Listen); a != "" {
		return a
	}
	return "127.0.0.1:8765"
}

// RelayURL returns the websocket URL the wearable dials.
func (c Config) RelayURL() string {
	if u := strings.TrimSpace(c.Relay.URL); u != "" {
		return u
	}
	return "ws://" + c.ListenAddr() + "/relay"
}

// SampleInterval returns the sampling period.
func (c Config) SampleInterval() time.Duration {
	if c.Sampler.IntervalSeconds <= 0 {
		return defaultSampleInterval
	}
	return time.Duration(c.Sampler.IntervalSeconds) * time.Second
}

// SampleSpan returns the trailing window length.
func (c Config) SampleSpan() time.Duration {
	if c.Sampler.SpanSeconds <= 0 {
		return defaultSampleSpan
	}
	return time.Duration(c.Sampler.SpanSeconds) * time.Second
}

// SensorSource returns the heart-rate source, defaulting to the simulator.
func (c Config) SensorSource() string {
	if s := strings.ToLower(strings.TrimSpace(c.Sensor.Source)); s != "" {
		return s
	}
	return SourceSimulated
}

// RestingBPM returns the simulator's baseline heart rate.
func (c Config) RestingBPM() float64 {
	if c.Sensor.RestingBPM <= 0 {
		return defaultRestingBPM
	}
	return c.Sensor.RestingBPM
}

// AgreementRule returns the rule used to mark a prediction correct.
func (c Config) AgreementRule() string {
	if r := strings.ToLower(strings.TrimSpace(c.Session.AgreementRule)); r != "" {
		return r
	}
	return RuleAgree
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "hunger.log"
}

// Validate rejects settings that no component understands.
func (c Config) Validate() error {
	switch c.PredictorKind() {
	case PredictorRemote, PredictorMock:
	default:
		return fmt.Errorf("invalid predictor kind %q (expected %q or %q)", c.Predictor.Kind, PredictorRemote, PredictorMock)
	}
	switch c.Transport() {
	case TransportLoopback, TransportMQTT, TransportWebSocket:
	default:
		return fmt.Errorf("invalid relay transport %q", c.Relay.Transport)
	}
	if c.Transport() == TransportMQTT && strings.TrimSpace(c.Relay.Broker) == "" {
		return errors.New("relay.broker is required for the mqtt transport")
	}
	switch c.SensorSource() {
	case SourceSimulated, SourceBLE:
	default:
		return fmt.Errorf("invalid sensor source %q", c.Sensor.Source)
	}
	switch c.AgreementRule() {
	case RuleAgree, RuleConfirm:
	default:
		return fmt.Errorf("invalid agreement rule %q (expected %q or %q)", c.Session.AgreementRule, RuleAgree, RuleConfirm)
	}
	return nil
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if err := config.Validate(); err != nil {
			return Config{}, err
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, config.Validate()
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.Predictor.TimeoutSeconds <= 0 {
		config.Predictor.TimeoutSeconds = int(defaultPredictTimeout.Seconds())
	}

	return config, nil
}
