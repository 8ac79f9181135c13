package relay

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDecodeValidatesShape(t *testing.T) {
	msg, err := Decode([]byte(`{"hr":[72,73.5],"ts":"2025-04-01T12:00:00Z"}`))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(msg.HR) != 2 || msg.HR[1] != 73.5 || msg.TS != "2025-04-01T12:00:00Z" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	for _, raw := range []string{
		`{"hr":[72]}`,
		`{"ts":"2025-04-01T12:00:00Z"}`,
		`{"hr":["72"],"ts":"x"}`,
		`{"hr":72,"ts":"x"}`,
		`[1,2,3]`,
		`not json`,
	} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrInvalidMessage) {
			t.Fatalf("expected ErrInvalidMessage for %s, got %v", raw, err)
		}
	}
}

func TestEncodeEmptySamples(t *testing.T) {
	raw, err := Encode(Message{TS: "t"})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if string(raw) != `{"hr":[],"ts":"t"}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestLoopbackDelivery(t *testing.T) {
	lb := NewLoopback(1)
	ctx := context.Background()

	samples := []float64{70, 71}
	if err := lb.Send(ctx, Message{HR: samples, TS: "a"}); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	samples[0] = 0
	if err := lb.Send(ctx, Message{HR: []float64{1}, TS: "b"}); !errors.Is(err, ErrDropped) {
		t.Fatalf("expected ErrDropped on full buffer, got %v", err)
	}

	got := <-lb.Messages()
	if got.TS != "a" || got.HR[0] != 70 {
		t.Fatalf("expected delivered copy of first message, got %+v", got)
	}

	lb.SetReachable(false)
	if lb.Reachable() {
		t.Fatal("expected loopback unreachable")
	}
	if err := lb.Send(ctx, Message{TS: "c"}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}

	lb.SetReachable(true)
	_ = lb.Close()
	_ = lb.Close()
	if err := lb.Send(ctx, Message{TS: "d"}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable after close, got %v", err)
	}
	if _, ok := <-lb.Messages(); ok {
		t.Fatal("expected closed message channel")
	}
}

func TestWebSocketRelay(t *testing.T) {
	in := NewWSInbox(4)
	server := httptest.NewServer(in.Handler())
	defer server.Close()
	defer in.Close()

	link := NewWSLink("ws" + strings.TrimPrefix(server.URL, "http"))
	if link.Reachable() {
		t.Fatal("link should not be reachable before dialing")
	}
	if err := link.Send(context.Background(), Message{HR: []float64{70}, TS: "x"}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable before dialing, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for !(link.Reachable() && in.Reachable()) {
		if time.Now().After(deadline) {
			t.Fatal("link never became reachable")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := link.Send(context.Background(), Message{HR: []float64{70, 72}, TS: "2025-04-01T12:00:00Z"}); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	select {
	case msg := <-in.Messages():
		if len(msg.HR) != 2 || msg.TS != "2025-04-01T12:00:00Z" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relayed window")
	}
}

func TestMQTTTopics(t *testing.T) {
	o := MQTTOptions{TopicPrefix: "hunger", DeviceID: "watch-1"}
	if o.WindowTopic() != "hunger/watch-1/hr" {
		t.Fatalf("unexpected window topic %q", o.WindowTopic())
	}
	if o.SubscriptionTopic() != "hunger/+/hr" {
		t.Fatalf("unexpected subscription topic %q", o.SubscriptionTopic())
	}
}
