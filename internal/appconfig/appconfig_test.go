// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

// TestLoad verifies that a valid configuration file is loaded and that files
// with invalid JSON, unknown settings, or that do not exist are rejected.
func TestLoad(t *testing.T) {
	validConfig := `{
        "predictor": { "kind": "remote", "baseURL": "http://localhost:5050/" },
        "relay": { "transport": "websocket", "listen": "127.0.0.1:9000" },
        "session": { "agreementRule": "confirm" }
    }`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())
	if _, err := tmpfile.Write([]byte(validConfig)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.BaseURL() != "http://localhost:5050" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL())
	}
	if cfg.Predictor.TimeoutSeconds != 10 {
		t.Fatalf("expected default timeout of 10 seconds, got %d", cfg.Predictor.TimeoutSeconds)
	}
	if cfg.PredictTimeout() != 10*time.Second {
		t.Fatalf("expected default predict timeout of 10s, got %v", cfg.PredictTimeout())
	}
	if cfg.RelayURL() != "ws://127.0.0.1:9000/relay" {
		t.Fatalf("unexpected relay url %q", cfg.RelayURL())
	}
	if cfg.AgreementRule() != RuleConfirm {
		t.Fatalf("expected confirm rule, got %q", cfg.AgreementRule())
	}
	if cfg.ConfigPath != tmpfile.Name() {
		t.Fatalf("expected config path to be recorded, got %q", cfg.ConfigPath)
	}

	invalidJSON := `{ "predictor": [`
	tmpfile2, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile2.Name())
	if _, err := tmpfile2.Write([]byte(invalidJSON)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile2.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile2.Name()); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	badRule := `{ "session": { "agreementRule": "xor" } }`
	tmpfile3, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile3.Name())
	if _, err := tmpfile3.Write([]byte(badRule)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile3.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpfile3.Name()); err == nil {
		t.Fatal("Load() with an unknown agreement rule should have failed")
	}

	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.PredictorKind() != PredictorRemote {
		t.Fatalf("expected remote predictor by default, got %q", cfg.PredictorKind())
	}
	if cfg.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", cfg.BaseURL())
	}
	if cfg.MockDelay() != 2*time.Second {
		t.Fatalf("expected 2s mock delay, got %v", cfg.MockDelay())
	}
	if cfg.SampleInterval() != 30*time.Second || cfg.SampleSpan() != 60*time.Second {
		t.Fatalf("unexpected sampling defaults: %v / %v", cfg.SampleInterval(), cfg.SampleSpan())
	}
	if cfg.Transport() != TransportLoopback {
		t.Fatalf("expected loopback transport, got %q", cfg.Transport())
	}
	if cfg.SensorSource() != SourceSimulated {
		t.Fatalf("expected simulated sensor, got %q", cfg.SensorSource())
	}
	if cfg.RestingBPM() != 72 {
		t.Fatalf("expected resting bpm 72, got %v", cfg.RestingBPM())
	}
	if cfg.LogFilePath() != "hunger.log" {
		t.Fatalf("expected default log file, got %q", cfg.LogFilePath())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
}

func TestValidateRejectsMQTTWithoutBroker(t *testing.T) {
	cfg := Config{Relay: RelayConfig{Transport: "MQTT"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for mqtt without broker")
	}
	cfg.Relay.Broker = "tcp://localhost:1883"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TopicPrefix() != "hunger" || cfg.DeviceID() != "watch" {
		t.Fatalf("unexpected topic defaults: %s/%s", cfg.TopicPrefix(), cfg.DeviceID())
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Predictor: PredictorConfig{Kind: PredictorMock}, AnswerLog: AnswerLogConfig{CSVPath: "HungerLog.csv"}}
	ShowConfig(&buf, "", cfg)
	out := buf.String()
	for _, want := range []string{"No config file loaded", "Predictor:        mock", "Mock Delay:       2s", "HungerLog.csv"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}
