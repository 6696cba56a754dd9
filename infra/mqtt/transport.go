package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/session"
	"github.com/kilianp07/iqrfdash/infra/logger"
)

// pahoClient is the part of paho.Client the transport relies on.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ErrTokenTimeout is returned when the broker does not confirm an operation in time.
var ErrTokenTimeout = errors.New("mqtt: operation timed out")

// Handler receives transport callbacks.
type Handler func(session.Event)

// PahoTransport adapts the Paho client to session.Transport.
type PahoTransport struct {
	cfg     Config
	handler Handler
	log     logger.Logger
	timeout time.Duration

	mu  sync.Mutex
	cli pahoClient
}

// NewPahoTransport prepares a transport; nothing is dialled until Connect.
func NewPahoTransport(cfg Config, handler Handler) (*PahoTransport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		handler = func(session.Event) {}
	}
	return &PahoTransport{
		cfg:     cfg,
		handler: handler,
		log:     logger.New("mqtt_transport"),
		timeout: time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
	}, nil
}

// Endpoint returns the broker host:port.
func (t *PahoTransport) Endpoint() string { return t.cfg.Endpoint() }

// ClientID returns the MQTT client identifier in use.
func (t *PahoTransport) ClientID() string { return t.cfg.ClientID }

// Connect dials the broker. A fresh client is built for every attempt and
// any previous client is closed first; callbacks from a replaced client are
// dropped.
func (t *PahoTransport) Connect(ctx context.Context) error {
	opts, err := NewClientOptions(t.cfg)
	if err != nil {
		return err
	}
	var c pahoClient
	opts.SetOnConnectHandler(func(paho.Client) {
		if !t.isCurrent(c) {
			return
		}
		t.log.Infof("connected to %s as %s", t.Endpoint(), t.cfg.ClientID)
		t.handler(session.Connected())
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		if !t.isCurrent(c) {
			t.log.Debugf("ignore connection lost from replaced client: %v", err)
			return
		}
		t.log.Warnf("connection lost: %v", err)
		t.handler(session.ConnectionLost(err))
	})

	c = newMQTTClient(opts)
	t.mu.Lock()
	prev := t.cli
	t.cli = c
	t.mu.Unlock()
	if prev != nil && prev != c && prev.IsConnected() {
		t.log.Warnf("closing previous client before reconnecting")
		prev.Disconnect(250)
	}
	return t.wait(ctx, c.Connect(), "connect")
}

func (t *PahoTransport) isCurrent(c pahoClient) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return c != nil && t.cli == c
}

func (t *PahoTransport) client() (pahoClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cli == nil {
		return nil, session.ErrNotConnected
	}
	return t.cli, nil
}

func (t *PahoTransport) wait(ctx context.Context, tok paho.Token, op string) error {
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("mqtt %s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%s: %w", op, ErrTokenTimeout)
	}
}

// Subscribe registers topic; every inbound publication is forwarded to the
// handler as a MessageArrived event.
func (t *PahoTransport) Subscribe(topic string, qos byte) error {
	c, err := t.client()
	if err != nil {
		return err
	}
	return t.wait(context.Background(), c.Subscribe(topic, qos, t.onMessage), "subscribe "+topic)
}

func (t *PahoTransport) onMessage(_ paho.Client, msg paho.Message) {
	t.handler(session.MessageArrived(model.Message{
		Topic:   msg.Topic(),
		Payload: msg.Payload(),
		QoS:     msg.Qos(),
		Arrived: time.Now(),
	}))
}

// Publish sends payload without the retain flag.
func (t *PahoTransport) Publish(topic string, payload []byte, qos byte) error {
	c, err := t.client()
	if err != nil {
		return err
	}
	if !c.IsConnected() {
		return session.ErrNotConnected
	}
	return t.wait(context.Background(), c.Publish(topic, qos, false, payload), "publish "+topic)
}

// Disconnect gracefully closes the MQTT connection.
func (t *PahoTransport) Disconnect() {
	t.mu.Lock()
	c := t.cli
	t.cli = nil
	t.mu.Unlock()
	if c != nil && c.IsConnected() {
		c.Disconnect(250)
	}
}
