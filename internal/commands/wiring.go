// internal/commands/wiring.go
package hunger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mwiater/hunger/internal/answerlog"
	"github.com/mwiater/hunger/internal/appconfig"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/metrics"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/sensor"
)

const (
	// inboxBuffer is how many undelivered windows the phone holds.
	inboxBuffer = 16
	// simulatedCadence is the simulator's reading interval.
	simulatedCadence = 5 * time.Second
)

var errLoopbackStandalone = errors.New("the loopback transport only connects a watch and phone in the same process; use `hunger demo` or pick mqtt/websocket")

// buildAggregator returns an aggregator when metrics are enabled, else nil.
func buildAggregator(cfg *appconfig.Config) *metrics.Aggregator {
	if !cfg.Metrics {
		return nil
	}
	return metrics.NewAggregator()
}

// buildSource starts the configured heart-rate source. The returned stop
// function releases it.
func buildSource(ctx context.Context, cfg *appconfig.Config) (sensor.Source, func(), error) {
	buf := sensor.NewBuffer(2 * cfg.SampleSpan())

	switch cfg.SensorSource() {
	case appconfig.SourceBLE:
		strap := sensor.NewStrap(buf, cfg.Sensor.DeviceName)
		if err := strap.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect heart-rate strap: %w", err)
		}
		return buf, func() { _ = strap.Close() }, nil
	default:
		sim := sensor.NewSimulated(buf, cfg.RestingBPM(), simulatedCadence, rand.New(rand.NewSource(time.Now().UnixNano())))
		sim.Backfill(cfg.SampleSpan())
		go sim.Run(ctx)
		logging.LogEvent("[WATCH] simulated sensor around %.0f bpm", cfg.RestingBPM())
		return sim, func() {}, nil
	}
}

func mqttOptions(cfg *appconfig.Config) relay.MQTTOptions {
	return relay.MQTTOptions{
		Broker:      cfg.Relay.Broker,
		TopicPrefix: cfg.TopicPrefix(),
		DeviceID:    cfg.DeviceID(),
	}
}

// buildLink opens the watch side of the configured relay.
func buildLink(ctx context.Context, cfg *appconfig.Config) (relay.Link, func() error, error) {
	switch cfg.Transport() {
	case appconfig.TransportMQTT:
		link, err := relay.DialMQTT(mqttOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		return link, link.Close, nil
	case appconfig.TransportWebSocket:
		link := relay.NewWSLink(cfg.RelayURL())
		go link.Run(ctx)
		return link, link.Close, nil
	default:
		return nil, nil, errLoopbackStandalone
	}
}

// buildInbox opens the phone side of the configured relay.
func buildInbox(cfg *appconfig.Config) (relay.Inbox, error) {
	switch cfg.Transport() {
	case appconfig.TransportMQTT:
		return relay.SubscribeMQTT(mqttOptions(cfg), inboxBuffer)
	case appconfig.TransportWebSocket:
		return relay.ListenWebSocket(cfg.ListenAddr(), inboxBuffer)
	default:
		return nil, errLoopbackStandalone
	}
}

// buildRecorder opens every configured answer log. A log that cannot be
// opened is reported and skipped.
func buildRecorder(cfg *appconfig.Config) answerlog.Recorder {
	var recorders answerlog.Multi
	if path := cfg.AnswerLog.CSVPath; path != "" {
		csvLog, err := answerlog.OpenCSV(path)
		if err != nil {
			logging.LogEvent("[ANSWERLOG] csv disabled: %v", err)
		} else {
			recorders = append(recorders, csvLog)
		}
	}
	if dsn := cfg.AnswerLog.PostgresDSN; dsn != "" {
		pg, err := answerlog.OpenPostgres(dsn)
		if err != nil {
			logging.LogEvent("[ANSWERLOG] postgres disabled: %v", err)
		} else {
			recorders = append(recorders, pg)
		}
	}
	switch len(recorders) {
	case 0:
		return answerlog.Nop{}
	case 1:
		return recorders[0]
	default:
		return recorders
	}
}
