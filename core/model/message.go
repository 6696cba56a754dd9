package model

import "time"

// Message is an inbound publication as handed over by the transport.
type Message struct {
	Topic   string    `json:"topic"`
	Payload []byte    `json:"payload"`
	QoS     byte      `json:"qos"`
	Arrived time.Time `json:"arrived"`
}
