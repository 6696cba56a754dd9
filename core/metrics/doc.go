// Package metrics defines the recorder interfaces used to observe dashboard
// traffic. A sink only has to implement MetricsSink; the optional recorders
// (temperatures, commands, LED reports, decode failures, connection changes)
// are discovered by type assertion. Sinks are built from configuration via
// NewMetricsSink, which wraps several sinks in a MultiSink.
package metrics
