package metrics

import "errors"

// MultiSink fans events out to several sinks. Every sink is called even when
// an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func fanout[R any](sinks []MetricsSink, call func(R) error) error {
	var errs []error
	for _, s := range sinks {
		if r, ok := s.(R); ok {
			if err := call(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordMessage(ev MessageEvent) error {
	return fanout(m.Sinks, func(s MetricsSink) error { return s.RecordMessage(ev) })
}

func (m *MultiSink) RecordTemperature(ev TemperatureEvent) error {
	return fanout(m.Sinks, func(r TemperatureRecorder) error { return r.RecordTemperature(ev) })
}

func (m *MultiSink) RecordCommand(ev CommandEvent) error {
	return fanout(m.Sinks, func(r CommandRecorder) error { return r.RecordCommand(ev) })
}

func (m *MultiSink) RecordActuatorReport(ev ActuatorReportEvent) error {
	return fanout(m.Sinks, func(r ActuatorReportRecorder) error { return r.RecordActuatorReport(ev) })
}

func (m *MultiSink) RecordDecodeFailure(ev DecodeFailureEvent) error {
	return fanout(m.Sinks, func(r DecodeFailureRecorder) error { return r.RecordDecodeFailure(ev) })
}

func (m *MultiSink) RecordConnection(ev ConnectionEvent) error {
	return fanout(m.Sinks, func(r ConnectionRecorder) error { return r.RecordConnection(ev) })
}
