package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Predictor:        %s\n", cfg.PredictorKind())
	if cfg.PredictorKind() == PredictorRemote {
		fmt.Fprintf(out, "  Base URL:         %s\n", cfg.BaseURL())
		fmt.Fprintf(out, "  Predict Timeout:  %s\n", cfg.PredictTimeout())
	} else {
		fmt.Fprintf(out, "  Mock Delay:       %s\n", cfg.MockDelay())
	}
	fmt.Fprintf(out, "  Relay Transport:  %s\n", cfg.Transport())
	switch cfg.Transport() {
	case TransportMQTT:
		fmt.Fprintf(out, "  MQTT Broker:      %s\n", cfg.Relay.Broker)
		fmt.Fprintf(out, "  MQTT Topic:       %s/%s/hr\n", cfg.TopicPrefix(), cfg.DeviceID())
	case TransportWebSocket:
		fmt.Fprintf(out, "  Relay Listen:     %s\n", cfg.ListenAddr())
		fmt.Fprintf(out, "  Relay URL:        %s\n", cfg.RelayURL())
	}
	fmt.Fprintf(out, "  Sample Interval:  %s\n", cfg.SampleInterval())
	fmt.Fprintf(out, "  Sample Span:      %s\n", cfg.SampleSpan())
	fmt.Fprintf(out, "  Sensor Source:    %s\n", cfg.SensorSource())
	fmt.Fprintf(out, "  Agreement Rule:   %s\n", cfg.AgreementRule())
	if cfg.AnswerLog.CSVPath != "" {
		fmt.Fprintf(out, "  Answer Log CSV:   %s\n", cfg.AnswerLog.CSVPath)
	}
	if cfg.AnswerLog.PostgresDSN != "" {
		fmt.Fprintln(out, "  Answer Log DB:    postgres")
	}
	fmt.Fprintf(out, "  Metrics:          %v\n", cfg.Metrics)
}
