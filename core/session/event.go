package session

import "github.com/kilianp07/iqrfdash/core/model"

// EventKind enumerates the transport callbacks a session reacts to.
type EventKind int

const (
	EventConnected EventKind = iota
	EventConnectionLost
	EventMessageArrived
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventConnectionLost:
		return "connection_lost"
	case EventMessageArrived:
		return "message_arrived"
	default:
		return "unknown"
	}
}

// Event is one transport callback. Err is set for EventConnectionLost when
// the loss was abnormal; Message is set for EventMessageArrived.
type Event struct {
	Kind    EventKind
	Err     error
	Message model.Message
}

// Connected builds an EventConnected.
func Connected() Event { return Event{Kind: EventConnected} }

// ConnectionLost builds an EventConnectionLost.
func ConnectionLost(err error) Event { return Event{Kind: EventConnectionLost, Err: err} }

// MessageArrived builds an EventMessageArrived.
func MessageArrived(m model.Message) Event { return Event{Kind: EventMessageArrived, Message: m} }
