// internal/commands/root_flags_test.go
package hunger

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/mwiater/hunger/internal/appconfig"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/tui"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func resetAllFlags() {
	for name := range boolFlags {
		resetFlag(name)
	}
	for name := range stringFlags {
		resetFlag(name)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	prevCfgFile := cfgFile
	cfgFile = path
	viper.SetConfigFile(path)
	resetAllFlags()
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
		resetAllFlags()
		_ = logging.Close()
	})
}

func TestPersistentPreRunEUsesFlagValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "hunger.log")
	configPath := writeTempConfig(t, `{"predictor":{"kind":"remote","baseURL":"http://file.example"},"relay":{"transport":"websocket"}}`)
	useConfig(t, configPath)

	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("predictor", "mock")
	_ = rootCmd.PersistentFlags().Set("agreementRule", "confirm")
	_ = rootCmd.PersistentFlags().Set("logFile", logPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s, got %+v", configPath, currentConfig)
	}
	if !currentConfig.Debug || currentConfig.PredictorKind() != "mock" || currentConfig.AgreementRule() != "confirm" {
		t.Fatalf("expected flag values to flow into config: %+v", currentConfig)
	}
	if currentConfig.BaseURL() != "http://file.example" || currentConfig.Transport() != "websocket" {
		t.Fatalf("expected file values to be kept: %+v", currentConfig)
	}
	if currentConfig.LogFilePath() != logPath {
		t.Fatalf("expected log path %s, got %s", logPath, currentConfig.LogFilePath())
	}
}

func TestPersistentPreRunEInvalidConfig(t *testing.T) {
	useConfig(t, writeTempConfig(t, `{"logFile":"`+filepath.ToSlash(filepath.Join(t.TempDir(), "x.log"))+`"}`))
	_ = rootCmd.PersistentFlags().Set("transport", "carrier-pigeon")

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err == nil {
		t.Fatal("expected error for an unknown transport")
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	logPath := filepath.ToSlash(filepath.Join(t.TempDir(), "hunger.log"))
	configPath := writeTempConfig(t, `{"logFile":"`+logPath+`"}`)
	useConfig(t, configPath)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--agreementRule", "confirm", "show", "config"})
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "Agreement Rule:   confirm") {
		t.Fatalf("expected agreement rule in output, got %s", out)
	}
}

func TestPredictCommand(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hungry": 1}`))
	}))
	defer server.Close()

	logPath := filepath.ToSlash(filepath.Join(t.TempDir(), "hunger.log"))
	useConfig(t, writeTempConfig(t, `{"logFile":"`+logPath+`"}`))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"predict", "--baseURL", server.URL, "--hr", "70,80", "--timestamp", "2025-04-01T12:00:00Z"})
	t.Cleanup(func() {
		rootCmd.SetArgs([]string{})
		predictHR, predictTimestamp = "", ""
	})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v\n%s", err, buf.String())
	}

	if !strings.Contains(body, `"hr":[70,80]`) || !strings.Contains(body, `"timestamp":"2025-04-01T12:00:00Z"`) {
		t.Fatalf("unexpected request body %s", body)
	}
	out := buf.String()
	if !strings.Contains(out, "Prediction: 1 (Not Hungry)") || !strings.Contains(out, "mean 75.0 bpm") {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestPredictCommandRejectsEmptyWindow(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"hungry": 0}`))
	}))
	defer server.Close()

	logPath := filepath.ToSlash(filepath.Join(t.TempDir(), "hunger.log"))
	useConfig(t, writeTempConfig(t, `{"logFile":"`+logPath+`"}`))

	t.Cleanup(func() {
		rootCmd.SetArgs([]string{})
		predictHR, predictTimestamp = "", ""
	})
	for _, hr := range []string{"", " , ,"} {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetErr(&buf)
		rootCmd.SetArgs([]string{"predict", "--baseURL", server.URL, "--hr", hr})
		_, err := rootCmd.ExecuteC()
		if err == nil || !strings.Contains(err.Error(), "at least one sample") {
			t.Fatalf("--hr %q: expected empty window error, got %v", hr, err)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no requests for an empty window, got %d", n)
	}
}

func TestRunInteractiveStartsProducersAfterLogRedirect(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "hunger.log")
	cfg := &appconfig.Config{LogFile: logPath}

	stdout, err := os.Create(filepath.Join(dir, "stdout.txt"))
	if err != nil {
		t.Fatalf("create stdout file: %v", err)
	}
	origStdout, origTUI := os.Stdout, runTUI
	os.Stdout = stdout
	t.Cleanup(func() {
		os.Stdout, runTUI = origStdout, origTUI
		_ = logging.Close()
		_ = stdout.Close()
	})

	var order []string
	runTUI = func(context.Context, tui.Options) error {
		order = append(order, "tui")
		return nil
	}
	start := func() {
		order = append(order, "start")
		logging.LogEvent("[SAMPLER] first tick")
	}
	if err := runInteractive(context.Background(), cfg, fixedPredictor{}, relay.NewLoopback(1), false, start); err != nil {
		t.Fatalf("runInteractive error: %v", err)
	}

	if strings.Join(order, ",") != "start,tui" {
		t.Fatalf("expected start before the UI, got %v", order)
	}
	logged, _ := os.ReadFile(logPath)
	if !strings.Contains(string(logged), "first tick") {
		t.Fatalf("expected the tick in the log file, got %q", logged)
	}
	printed, _ := os.ReadFile(stdout.Name())
	if strings.Contains(string(printed), "first tick") {
		t.Fatalf("tick leaked to stdout: %q", printed)
	}
}

type fixedPredictor struct{ value int }

func (f fixedPredictor) Predict(context.Context, predictor.Request) (int, error) {
	return f.value, nil
}

func TestRunHeadless(t *testing.T) {
	loop := relay.NewLoopback(2)
	if err := loop.Send(context.Background(), relay.Message{HR: []float64{70, 71}, TS: "2025-04-01T12:00:00Z"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	_ = loop.Close()

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	runHeadless(ctx, &buf, fixedPredictor{value: predictor.Hungry}, loop)

	out := buf.String()
	if !strings.Contains(out, "2 samples @ 2025-04-01T12:00:00Z") || !strings.Contains(out, "Hungry") {
		t.Fatalf("unexpected headless output %s", out)
	}
}

func TestLoopbackRejectedStandalone(t *testing.T) {
	cfg := &appconfig.Config{}
	if _, err := buildInbox(cfg); err == nil {
		t.Fatal("expected loopback inbox to be rejected outside demo")
	}
	if _, _, err := buildLink(context.Background(), cfg); err == nil {
		t.Fatal("expected loopback link to be rejected outside demo")
	}
}
