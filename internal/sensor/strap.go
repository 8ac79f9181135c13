package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/hunger/internal/logging"
	"tinygo.org/x/bluetooth"
)

// Strap reads a Bluetooth LE chest strap or watch exposing the standard Heart Rate service.
type Strap struct {
	*Buffer

	adapter    *bluetooth.Adapter
	deviceName string
	device     *bluetooth.Device
	now        func() time.Time
}

// NewStrap creates a Strap. An empty deviceName accepts the first device
// advertising the Heart Rate service.
func NewStrap(buf *Buffer, deviceName string) *Strap {
	return &Strap{
		Buffer:     buf,
		adapter:    bluetooth.DefaultAdapter,
		deviceName: strings.TrimSpace(deviceName),
		now:        time.Now,
	}
}

// Connect enables the adapter, scans for the strap and subscribes to measurements.
func (s *Strap) Connect(ctx context.Context) error {
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- s.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !s.matches(result) {
				return
			}
			select {
			case found <- result:
				_ = adapter.StopScan()
			default:
			}
		})
	}()

	var target bluetooth.ScanResult
	select {
	case <-ctx.Done():
		_ = s.adapter.StopScan()
		return ctx.Err()
	case err := <-scanErr:
		if err == nil {
			err = errors.New("scan stopped before a heart-rate device was found")
		}
		return err
	case target = <-found:
	}

	logging.LogEvent("[SENSOR] connecting to %s (%s)", target.LocalName(), target.Address.String())
	device, err := s.adapter.Connect(target.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", target.Address.String(), err)
	}
	s.device = &device

	services, err := device.DiscoverServices([]bluetooth.UUID{bluetooth.ServiceUUIDHeartRate})
	if err != nil {
		return fmt.Errorf("discover heart rate service: %w", err)
	}
	for _, srv := range services {
		chars, err := srv.DiscoverCharacteristics([]bluetooth.UUID{bluetooth.CharacteristicUUIDHeartRateMeasurement})
		if err != nil {
			return fmt.Errorf("discover heart rate measurement: %w", err)
		}
		for _, char := range chars {
			if err := char.EnableNotifications(s.handleMeasurement); err != nil {
				return fmt.Errorf("enable notifications: %w", err)
			}
			logging.LogEvent("[SENSOR] subscribed to heart rate measurements")
			return nil
		}
	}
	return errors.New("device does not expose a heart rate measurement characteristic")
}

// Close disconnects from the strap.
func (s *Strap) Close() error {
	if s.device == nil {
		return nil
	}
	err := s.device.Disconnect()
	s.device = nil
	return err
}

func (s *Strap) matches(result bluetooth.ScanResult) bool {
	if s.deviceName != "" {
		return result.LocalName() == s.deviceName
	}
	return result.HasServiceUUID(bluetooth.ServiceUUIDHeartRate)
}

func (s *Strap) handleMeasurement(buf []byte) {
	bpm, ok := DecodeMeasurement(buf)
	if !ok {
		return
	}
	s.Buffer.Add(s.now(), bpm)
}

// DecodeMeasurement parses a Heart Rate Measurement characteristic value.
// Bit 0 of the flags byte selects a uint16 rather than uint8 rate.
func DecodeMeasurement(buf []byte) (float64, bool) {
	if len(buf) < 2 {
		return 0, false
	}
	if buf[0]&0x01 == 0 {
		return float64(buf[1]), true
	}
	if len(buf) < 3 {
		return 0, false
	}
	return float64(binary.LittleEndian.Uint16(buf[1:3])), true
}
