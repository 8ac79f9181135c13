package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/mwiater/hunger/internal/logging"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTOptions configures either end of an MQTT relay.
type MQTTOptions struct {
	Broker      string
	TopicPrefix string
	DeviceID    string
	Username    string
	Password    string
}

// WindowTopic is the topic a wearable publishes its windows to.
func (o MQTTOptions) WindowTopic() string {
	return fmt.Sprintf("%s/%s/hr", o.TopicPrefix, o.DeviceID)
}

// SubscriptionTopic matches windows from every wearable under the prefix.
func (o MQTTOptions) SubscriptionTopic() string {
	return o.TopicPrefix + "/+/hr"
}

func (o MQTTOptions) clientOptions(role string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(fmt.Sprintf("hunger-%s-%s", role, uuid.NewString()[:8]))
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logging.LogEvent("[RELAY] mqtt %s connection lost: %v", role, err)
	}
	return opts
}

func connect(client mqtt.Client) error {
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return errors.New("relay: mqtt connect timed out")
	}
	return token.Error()
}

// MQTTLink publishes windows to a broker the phone subscribes to.
type MQTTLink struct {
	client mqtt.Client
	topic  string
	broker string
}

// DialMQTT connects the wearable side.
func DialMQTT(o MQTTOptions) (*MQTTLink, error) {
	client := mqtt.NewClient(o.clientOptions("watch"))
	if err := connect(client); err != nil {
		return nil, fmt.Errorf("relay: connect %s: %w", o.Broker, err)
	}
	logging.LogEvent("[RELAY] mqtt watch connected to %s, publishing on %s", o.Broker, o.WindowTopic())
	return &MQTTLink{client: client, topic: o.WindowTopic(), broker: o.Broker}, nil
}

// Reachable reports whether the broker connection is up.
func (l *MQTTLink) Reachable() bool {
	return l.client.IsConnectionOpen()
}

// Send publishes msg at QoS 0.
func (l *MQTTLink) Send(ctx context.Context, msg Message) error {
	if !l.Reachable() {
		return ErrUnreachable
	}
	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	logging.LogRequest("WATCH->PHONE", l.broker+"/"+l.topic, "hr", payload)
	token := l.client.Publish(l.topic, 0, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (l *MQTTLink) Close() error {
	l.client.Disconnect(250)
	return nil
}

// MQTTInbox receives windows published by wearables.
type MQTTInbox struct {
	client mqtt.Client
	msgs   chan Message
	mu     sync.RWMutex
	closed bool
}

// SubscribeMQTT connects the phone side and subscribes to every wearable's windows.
func SubscribeMQTT(o MQTTOptions, buffer int) (*MQTTInbox, error) {
	if buffer < 1 {
		buffer = 1
	}
	in := &MQTTInbox{msgs: make(chan Message, buffer)}

	opts := o.clientOptions("phone")
	topic := o.SubscriptionTopic()
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(topic, 0, in.handle)
		token.Wait()
		if err := token.Error(); err != nil {
			logging.LogEvent("[RELAY] mqtt subscribe %s failed: %v", topic, err)
			return
		}
		logging.LogEvent("[RELAY] mqtt phone subscribed to %s", topic)
	}

	in.client = mqtt.NewClient(opts)
	if err := connect(in.client); err != nil {
		return nil, fmt.Errorf("relay: connect %s: %w", o.Broker, err)
	}
	return in, nil
}

func (in *MQTTInbox) handle(_ mqtt.Client, m mqtt.Message) {
	msg, err := Decode(m.Payload())
	if err != nil {
		logging.LogEvent("[RELAY] dropping message on %s: %v", m.Topic(), err)
		return
	}
	logging.LogRequest("WATCH->PHONE", m.Topic(), "hr", m.Payload())
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.closed {
		return
	}
	if err := offer(in.msgs, msg); err != nil {
		logging.LogEvent("[RELAY] %v", err)
	}
}

// Messages returns the inbound window stream.
func (in *MQTTInbox) Messages() <-chan Message { return in.msgs }

// Reachable reports whether the broker connection is up.
func (in *MQTTInbox) Reachable() bool {
	return in.client.IsConnectionOpen()
}

// Close disconnects and closes the message channel.
func (in *MQTTInbox) Close() error {
	in.client.Disconnect(250)
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.closed = true
		close(in.msgs)
	}
	return nil
}
