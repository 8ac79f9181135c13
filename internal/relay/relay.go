// Package relay carries heart-rate windows from the wearable to the phone.
//
// Delivery is best effort. A Link never acknowledges, queues or retries: if
// the phone is not reachable when a window is ready, the window is dropped.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnreachable is returned by Send when no phone is connected.
	ErrUnreachable = errors.New("relay: phone not reachable")
	// ErrInvalidMessage is returned by Decode for payloads that are not a window.
	ErrInvalidMessage = errors.New("relay: invalid message")
	// ErrDropped is returned when the receiving side had no room for the message.
	ErrDropped = errors.New("relay: message dropped")
)

// Message is the wire shape of a relayed window.
type Message struct {
	HR []float64 `json:"hr"`
	TS string    `json:"ts"`
}

// Link is the wearable's handle on the phone connection.
type Link interface {
	Reachable() bool
	Send(ctx context.Context, msg Message) error
}

// Inbox is the phone's handle on windows arriving from the wearable.
type Inbox interface {
	Messages() <-chan Message
	Reachable() bool
	Close() error
}

const messageSchema = `{
  "type": "object",
  "required": ["hr", "ts"],
  "properties": {
    "hr": { "type": "array", "items": { "type": "number" } },
    "ts": { "type": "string" }
  }
}`

var schema = mustSchema(messageSchema)

func mustSchema(def string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(fmt.Sprintf("relay: compile message schema: %v", err))
	}
	return s
}

// Encode serializes msg for the wire.
func Encode(msg Message) ([]byte, error) {
	if msg.HR == nil {
		msg.HR = []float64{}
	}
	return json.Marshal(msg)
}

// Decode parses and validates a relayed payload.
func Decode(raw []byte) (Message, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return Message{}, fmt.Errorf("%w: %s", ErrInvalidMessage, strings.Join(errs, ", "))
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}

// offer hands msg to ch without blocking.
func offer(ch chan<- Message, msg Message) error {
	select {
	case ch <- msg:
		return nil
	default:
		return ErrDropped
	}
}
