package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/rpc"
)

var errTestBroker = errors.New("not authorized")

// fakeToken is a completed or never-completing paho token.
type fakeToken struct {
	// done is closed when the flow completed.
	done chan struct{}
	// err is the outcome of the flow.
	err error
}

// newFakeToken returns a token that has completed with err, or one that never completes.
func newFakeToken(completed bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(t.done)
	}

	return t
}

// Wait blocks until the token completes.
func (t *fakeToken) Wait() bool {
	<-t.done

	return true
}

// WaitTimeout reports whether the token completed within d.
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Done returns the completion channel.
func (t *fakeToken) Done() <-chan struct{} { return t.done }

// Error returns the outcome of the flow.
func (t *fakeToken) Error() error { return t.err }

// publishCall is one recorded Publish invocation.
type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  any
}

// fakeClient records publishes and answers with a fixed token.
// Methods the publisher never calls panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	// connected is returned from IsConnected.
	connected bool
	// token is returned from Publish.
	token mqtt.Token
	// calls records every Publish.
	calls []publishCall
	// quiesce is the last value passed to Disconnect.
	quiesce uint
}

// IsConnected returns the configured connection flag.
func (c *fakeClient) IsConnected() bool { return c.connected }

// Publish records the call and returns the configured token.
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.calls = append(c.calls, publishCall{topic: topic, qos: qos, retained: retained, payload: payload})

	return c.token
}

// Disconnect records the quiesce period.
func (c *fakeClient) Disconnect(quiesce uint) { c.quiesce = quiesce }

// testSnapshot is the snapshot published by the MQTT tests.
func testSnapshot() *detector.Snapshot {
	return &detector.Snapshot{
		Timestamp:  time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		State:      detector.StateFire,
		LastAction: detector.ActionEndTime,
	}
}

// testMQTT is the broker section used by the MQTT tests.
func testMQTT() *config.MQTT {
	return &config.MQTT{
		Broker:   "tcp://127.0.0.1:1883",
		ClientID: "people-detector",
		Topic:    "hall/detector/state",
		QoS:      1,
		Retained: true,
	}
}

// TestMQTTPublisher_Publish sends the encoded snapshot with the configured topic, qos and retain flag.
func TestMQTTPublisher_Publish(t *testing.T) {
	t.Parallel()

	client := &fakeClient{connected: true, token: newFakeToken(true, nil)}
	p := newMQTTPublisher(client, testMQTT(), time.Second)

	snapshot := testSnapshot()
	require.NoError(t, p.Publish(context.Background(), snapshot))

	want, err := EncodePayload(snapshot)
	require.NoError(t, err)

	require.Equal(t, []publishCall{{
		topic:    "hall/detector/state",
		qos:      1,
		retained: true,
		payload:  want,
	}}, client.calls)

	p.Close()
	require.EqualValues(t, disconnectQuiesce, client.quiesce)
}

// TestMQTTPublisher_PublishNotConnected fails fast without touching the broker.
func TestMQTTPublisher_PublishNotConnected(t *testing.T) {
	t.Parallel()

	client := &fakeClient{token: newFakeToken(true, nil)}
	p := newMQTTPublisher(client, testMQTT(), time.Second)

	err := p.Publish(context.Background(), testSnapshot())
	require.ErrorIs(t, err, ErrNotConnected)
	require.Empty(t, client.calls)
}

// TestMQTTPublisher_PublishTimeout reports a broker that never acknowledges.
func TestMQTTPublisher_PublishTimeout(t *testing.T) {
	t.Parallel()

	client := &fakeClient{connected: true, token: newFakeToken(false, nil)}
	p := newMQTTPublisher(client, testMQTT(), 10*time.Millisecond)

	err := p.Publish(context.Background(), testSnapshot())
	require.ErrorIs(t, err, errPublishTimeout)
	require.Len(t, client.calls, 1)
}

// TestMQTTPublisher_PublishTokenError wraps the error the broker answered with.
func TestMQTTPublisher_PublishTokenError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{connected: true, token: newFakeToken(true, errTestBroker)}
	p := newMQTTPublisher(client, testMQTT(), time.Second)

	err := p.Publish(context.Background(), testSnapshot())
	require.ErrorIs(t, err, errTestBroker)
	require.ErrorContains(t, err, "mqtt publish")
}

// TestMQTTPublisher_PublishInvalidSnapshot never sends a snapshot it cannot encode.
func TestMQTTPublisher_PublishInvalidSnapshot(t *testing.T) {
	t.Parallel()

	client := &fakeClient{connected: true, token: newFakeToken(true, nil)}
	p := newMQTTPublisher(client, testMQTT(), time.Second)

	err := p.Publish(context.Background(), &detector.Snapshot{State: detector.State(detector.NotUsed)})
	require.ErrorIs(t, err, detector.ErrUnknownState)
	require.Empty(t, client.calls)
}

// TestNew_NoBroker ensures publishing is disabled without a broker.
func TestNew_NoBroker(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), &config.Config{ServerAddress: "127.0.0.1:0"})
	require.NoError(t, err)
	require.IsType(t, Noop{}, p)
	require.NoError(t, p.Publish(context.Background(), &detector.Snapshot{}))

	p.Close()
}

// TestEncodePayload verifies the payload decodes back into the same snapshot.
func TestEncodePayload(t *testing.T) {
	t.Parallel()

	want := &detector.Snapshot{
		Timestamp:  time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		State:      detector.StateDelay,
		LastAction: detector.ActionTrigger,
		Source: &detector.Source{
			Hostname: "hall-sensor",
			Username: "detector",
		},
	}

	payload, err := EncodePayload(want)
	require.NoError(t, err)

	var msg structpb.Struct
	require.NoError(t, protojson.Unmarshal(payload, &msg))

	got, err := rpc.DecodeSnapshot(&msg)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = EncodePayload(nil)
	require.Error(t, err)
}
