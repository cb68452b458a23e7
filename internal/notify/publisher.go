package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/rpc"
)

// Publisher delivers snapshots to subscribers.
type Publisher interface {
	Publish(ctx context.Context, snapshot *detector.Snapshot) error
	Close()
}

// Noop drops every snapshot.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, *detector.Snapshot) error { return nil }

// Close does nothing.
func (Noop) Close() {}

const (
	// connectRetryInterval is the pause between broker reconnect attempts.
	connectRetryInterval = 5 * time.Second
	// disconnectQuiesce is how long Close waits for in-flight messages, in milliseconds.
	disconnectQuiesce = 250
)

var (
	// ErrNotConnected is returned when publishing without a broker connection.
	ErrNotConnected = errors.New("mqtt not connected")
	// errPublishTimeout is returned when the broker does not acknowledge in time.
	errPublishTimeout = errors.New("mqtt publish timed out")
)

// MQTTPublisher publishes snapshots to an MQTT topic.
type MQTTPublisher struct {
	// client is the paho client connected to the broker.
	client mqtt.Client
	// topic receives every snapshot.
	topic string
	// qos is the MQTT quality of service level.
	qos byte
	// retained keeps the last snapshot on the broker.
	retained bool
	// timeout bounds connect and publish acknowledgements.
	timeout time.Duration
}

// New returns an MQTT publisher when a broker is configured, Noop otherwise.
//
//nolint:ireturn // Callers pick the implementation from config.
func New(ctx context.Context, cfg *config.Config) (Publisher, error) {
	if cfg.MQTT.Broker == "" {
		logger.Debug(ctx, "MQTT broker not configured, state publishing disabled")

		return Noop{}, nil
	}

	publisher, err := Connect(ctx, &cfg.MQTT, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return publisher, nil
}

// Connect establishes the broker connection.
func Connect(ctx context.Context, cfg *config.MQTT, timeout time.Duration) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WarnKV(ctx, "MQTT connection lost", "broker", cfg.Broker, "error", err)
		})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		// Connect retry keeps running in the background; publishing fails until it succeeds.
		logger.WarnKV(ctx, "MQTT broker not reachable yet", "broker", cfg.Broker, "timeout", timeout.String())
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	logger.InfoKV(ctx, "MQTT publisher ready", "broker", cfg.Broker, "topic", cfg.Topic)

	return newMQTTPublisher(client, cfg, timeout), nil
}

// newMQTTPublisher wraps an already created client.
func newMQTTPublisher(client mqtt.Client, cfg *config.MQTT, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{
		client:   client,
		topic:    cfg.Topic,
		qos:      cfg.QoS,
		retained: cfg.Retained,
		timeout:  timeout,
	}
}

// Publish sends the snapshot to the configured topic.
func (p *MQTTPublisher) Publish(_ context.Context, snapshot *detector.Snapshot) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := EncodePayload(snapshot)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, p.retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return errPublishTimeout
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(disconnectQuiesce)
}

// EncodePayload renders the snapshot as compact protobuf JSON.
func EncodePayload(snapshot *detector.Snapshot) ([]byte, error) {
	msg, err := rpc.EncodeSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	payload, err := protojson.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	return payload, nil
}
