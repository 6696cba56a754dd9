package session

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when a command is sent without a live connection.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyConnected is returned by Connect while a connection is live or
// being established.
var ErrAlreadyConnected = errors.New("already connected")

// Transport is the MQTT client collaborator. Implementations report inbound
// messages and connection changes back through Session.Notify.
type Transport interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, qos byte) error
	Publish(topic string, payload []byte, qos byte) error
	Disconnect()
	// Endpoint is the broker address shown in the status line, host:port.
	Endpoint() string
}
