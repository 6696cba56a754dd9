package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/iqrfdash/core/metrics"
)

// PromSink exposes dashboard traffic as Prometheus metrics.
type PromSink struct {
	messages    *prometheus.CounterVec
	commands    *prometheus.CounterVec
	reports     *prometheus.CounterVec
	decodeErrs  prometheus.Counter
	temperature *prometheus.GaugeVec
	connected   prometheus.Gauge
	connections *prometheus.CounterVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.messages, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqrfdash_messages_total",
		Help: "Decoded inbound messages",
	}, []string{"kind", "variant"})); err != nil {
		return nil, err
	}
	if s.commands, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqrfdash_commands_total",
		Help: "LED commands published",
	}, []string{"actuator", "action", "result"})); err != nil {
		return nil, err
	}
	if s.reports, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqrfdash_actuator_reports_total",
		Help: "LED reports carrying a result code",
	}, []string{"actuator", "action", "rcode"})); err != nil {
		return nil, err
	}
	if s.decodeErrs, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iqrfdash_decode_errors_total",
		Help: "Inbound payloads dropped as malformed",
	})); err != nil {
		return nil, err
	}
	if s.temperature, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iqrfdash_temperature",
		Help: "Last displayed temperature",
	}, []string{"variant", "unit"})); err != nil {
		return nil, err
	}
	if s.connected, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iqrfdash_broker_connected",
		Help: "1 while the broker session is connected",
	})); err != nil {
		return nil, err
	}
	if s.connections, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iqrfdash_connection_events_total",
		Help: "Broker connection state changes",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered collector.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordMessage(ev coremetrics.MessageEvent) error {
	s.messages.WithLabelValues(ev.Kind.String(), ev.Variant.String()).Inc()
	return nil
}

func (s *PromSink) RecordTemperature(ev coremetrics.TemperatureEvent) error {
	s.temperature.WithLabelValues(ev.Variant.String(), ev.Unit).Set(ev.Value)
	return nil
}

func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	result := "ok"
	if ev.Error != "" {
		result = "error"
	}
	s.commands.WithLabelValues(string(ev.Actuator), string(ev.Action), result).Inc()
	return nil
}

func (s *PromSink) RecordActuatorReport(ev coremetrics.ActuatorReportEvent) error {
	s.reports.WithLabelValues(string(ev.Actuator), string(ev.Action), string(ev.RCode)).Inc()
	return nil
}

func (s *PromSink) RecordDecodeFailure(coremetrics.DecodeFailureEvent) error {
	s.decodeErrs.Inc()
	return nil
}

func (s *PromSink) RecordConnection(ev coremetrics.ConnectionEvent) error {
	s.connections.WithLabelValues(ev.State).Inc()
	if ev.State == coremetrics.ConnConnected {
		s.connected.Set(1)
	} else {
		s.connected.Set(0)
	}
	return nil
}
