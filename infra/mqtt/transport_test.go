package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/iqrfdash/core/session"
)

type subscription struct {
	topic   string
	qos     byte
	handler paho.MessageHandler
}

type publication struct {
	topic   string
	qos     byte
	payload []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts        *paho.ClientOptions
	connectErr  error
	connected   bool
	subscribed  []subscription
	published   []publication
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return m.connected }

func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	m.connected = true
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}

func (m *mockClient) Disconnect(uint) { m.connected = false }

func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.published = append(m.published, publication{topic, qos, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) Subscribe(topic string, qos byte, h paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, subscription{topic, qos, h})
	return &dummyToken{}
}

func (m *mockClient) loseConnection(err error) {
	m.connected = false
	m.opts.OnConnectionLost(nil, err)
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (pendingToken) Error() error                   { return nil }

type mockMessage struct {
	topic string
	qos   byte
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return m.qos }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

type eventLog struct {
	mu     sync.Mutex
	events []session.Event
}

func (l *eventLog) handle(ev session.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestTransportConnectSubscribeReceive(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	log := &eventLog{}
	tr, err := NewPahoTransport(Config{Broker: "tcp://gw.local:1883", ClientID: "id"}, log.handle)
	require.NoError(t, err)
	assert.Equal(t, "gw.local:1883", tr.Endpoint())

	require.NoError(t, tr.Connect(context.Background()))
	assert.False(t, mc.opts.AutoReconnect)
	require.Len(t, log.events, 1)
	assert.Equal(t, session.EventConnected, log.events[0].Kind)

	require.NoError(t, tr.Subscribe("b827eb26c73d/sensors/thermometers", 2))
	require.Len(t, mc.subscribed, 1)
	assert.Equal(t, byte(2), mc.subscribed[0].qos)

	mc.subscribed[0].handler(nil, mockMessage{topic: "b827eb26c73d/sensors/thermometers", qos: 2, p: []byte(`{"e":[]}`)})
	require.Len(t, log.events, 2)
	ev := log.events[1]
	assert.Equal(t, session.EventMessageArrived, ev.Kind)
	assert.Equal(t, "b827eb26c73d/sensors/thermometers", ev.Message.Topic)
	assert.Equal(t, byte(2), ev.Message.QoS)
	assert.False(t, ev.Message.Arrived.IsZero())

	mc.loseConnection(errors.New("EOF"))
	require.Len(t, log.events, 3)
	assert.Equal(t, session.EventConnectionLost, log.events[2].Kind)
	assert.EqualError(t, log.events[2].Err, "EOF")
}

func TestTransportPublish(t *testing.T) {
	mc := &mockClient{publishErrs: []error{nil, errors.New("net fail")}}
	withMock(t, mc)
	tr, err := NewPahoTransport(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.Publish("t", []byte("x"), 2), session.ErrNotConnected)
	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Publish("b827eb26c73d/actuators/leds", []byte(`{}`), 2))
	require.Len(t, mc.published, 1)
	assert.Equal(t, byte(2), mc.published[0].qos)
	assert.Error(t, tr.Publish("b827eb26c73d/actuators/leds", []byte(`{}`), 2))

	tr.Disconnect()
	assert.False(t, mc.connected)
	assert.ErrorIs(t, tr.Publish("t", []byte("x"), 2), session.ErrNotConnected)
}

func TestTransportConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	withMock(t, mc)
	tr, err := NewPahoTransport(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, tr.Connect(context.Background()), "refused")
}

func TestTransportWaitHonoursContextAndTimeout(t *testing.T) {
	tr, err := NewPahoTransport(Config{Broker: "tcp://localhost:1883", ClientID: "id", ConnectTimeoutMS: 10}, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.wait(context.Background(), pendingToken{}, "connect"), ErrTokenTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr.timeout = time.Minute
	assert.ErrorIs(t, tr.wait(ctx, pendingToken{}, "connect"), context.Canceled)
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	tr, err := NewPahoTransport(Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, tr.Connect(context.Background()))
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
	tr.Disconnect()
	assert.Empty(t, mc.published)
}

func TestTransportReconnectReplacesClient(t *testing.T) {
	var clients []*mockClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient {
		mc := &mockClient{opts: o}
		clients = append(clients, mc)
		return mc
	}
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })

	log := &eventLog{}
	tr, err := NewPahoTransport(Config{Broker: "tcp://localhost:1883", ClientID: "fixed"}, log.handle)
	require.NoError(t, err)

	require.NoError(t, tr.Connect(context.Background()))
	require.NoError(t, tr.Connect(context.Background()))
	require.Len(t, clients, 2)
	assert.False(t, clients[0].connected)
	assert.True(t, clients[1].connected)
	require.Len(t, log.events, 2)

	clients[0].loseConnection(errors.New("session taken over"))
	assert.Len(t, log.events, 2)

	clients[1].loseConnection(errors.New("EOF"))
	require.Len(t, log.events, 3)
	assert.Equal(t, session.EventConnectionLost, log.events[2].Kind)

	tr.Disconnect()
	clients[1].loseConnection(errors.New("late"))
	assert.Len(t, log.events, 3)
}
