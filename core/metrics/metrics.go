package metrics

import (
	"time"

	"github.com/kilianp07/iqrfdash/core/model"
)

// MessageEvent describes one inbound publication that decoded successfully.
type MessageEvent struct {
	Topic   string
	Kind    model.RecordKind
	Variant model.Variant
	Time    time.Time
}

// MetricsSink records dashboard traffic for observability purposes.
type MetricsSink interface {
	RecordMessage(ev MessageEvent) error
}

// TemperatureEvent is a displayed thermometer reading.
type TemperatureEvent struct {
	Variant model.Variant
	Value   float64
	Unit    string
	Time    time.Time
}

// TemperatureRecorder records temperature readings.
type TemperatureRecorder interface {
	RecordTemperature(ev TemperatureEvent) error
}

// CommandEvent captures an LED command published by the session.
type CommandEvent struct {
	Actuator model.Actuator
	Action   model.Action
	PID      int
	Error    string
	Time     time.Time
}

// CommandRecorder records outbound commands.
type CommandRecorder interface {
	RecordCommand(ev CommandEvent) error
}

// ActuatorReportEvent captures a handled LED report.
type ActuatorReportEvent struct {
	Actuator model.Actuator
	Action   model.Action
	RCode    model.RCode
	PID      int
	Variant  model.Variant
	Time     time.Time
}

// ActuatorReportRecorder records LED reports.
type ActuatorReportRecorder interface {
	RecordActuatorReport(ev ActuatorReportEvent) error
}

// DecodeFailureEvent is an inbound payload that was dropped.
type DecodeFailureEvent struct {
	Topic  string
	Reason string
	Time   time.Time
}

// DecodeFailureRecorder records dropped payloads.
type DecodeFailureRecorder interface {
	RecordDecodeFailure(ev DecodeFailureEvent) error
}

// Connection states reported through ConnectionEvent.
const (
	ConnConnecting   = "connecting"
	ConnConnected    = "connected"
	ConnLost         = "lost"
	ConnDisconnected = "disconnected"
)

// ConnectionEvent is a broker connection state change.
type ConnectionEvent struct {
	State    string
	Endpoint string
	Error    string
	Time     time.Time
}

// ConnectionRecorder records connection state changes.
type ConnectionRecorder interface {
	RecordConnection(ev ConnectionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordMessage(MessageEvent) error               { return nil }
func (NopSink) RecordTemperature(TemperatureEvent) error       { return nil }
func (NopSink) RecordCommand(CommandEvent) error               { return nil }
func (NopSink) RecordActuatorReport(ActuatorReportEvent) error { return nil }
func (NopSink) RecordDecodeFailure(DecodeFailureEvent) error   { return nil }
func (NopSink) RecordConnection(ConnectionEvent) error         { return nil }
