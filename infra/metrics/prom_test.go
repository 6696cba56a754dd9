package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/core/model"
)

func TestPromSinkCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	now := time.Now()

	require.NoError(t, sink.RecordMessage(coremetrics.MessageEvent{Kind: model.KindTemperature, Variant: model.VariantLowPower, Time: now}))
	require.NoError(t, sink.RecordMessage(coremetrics.MessageEvent{Kind: model.KindTemperature, Variant: model.VariantLowPower, Time: now}))
	require.NoError(t, sink.RecordCommand(coremetrics.CommandEvent{Actuator: model.ActuatorRed, Action: model.ActionPulse, PID: 1}))
	require.NoError(t, sink.RecordCommand(coremetrics.CommandEvent{Actuator: model.ActuatorRed, Action: model.ActionPulse, PID: 2, Error: "boom"}))
	require.NoError(t, sink.RecordDecodeFailure(coremetrics.DecodeFailureEvent{Topic: "x"}))

	expected := `
# HELP iqrfdash_messages_total Decoded inbound messages
# TYPE iqrfdash_messages_total counter
iqrfdash_messages_total{kind="temperature",variant="lp"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(sink.messages, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.commands.WithLabelValues("ledr", "pulse", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.commands.WithLabelValues("ledr", "pulse", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.decodeErrs))
}

func TestPromSinkGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordTemperature(coremetrics.TemperatureEvent{Variant: model.VariantStandard, Value: 23.5, Unit: "Cel"}))
	assert.Equal(t, 23.5, testutil.ToFloat64(sink.temperature.WithLabelValues("std", "Cel")))

	require.NoError(t, sink.RecordConnection(coremetrics.ConnectionEvent{State: coremetrics.ConnConnected}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.connected))
	require.NoError(t, sink.RecordConnection(coremetrics.ConnectionEvent{State: coremetrics.ConnLost}))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.connected))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.connections.WithLabelValues("lost")))

	require.NoError(t, sink.RecordActuatorReport(coremetrics.ActuatorReportEvent{Actuator: model.ActuatorGreen, Action: model.ActionOn, RCode: model.RCodeNoError}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.reports.WithLabelValues("ledg", "on", "no_error")))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordDecodeFailure(coremetrics.DecodeFailureEvent{}))
	require.NoError(t, second.RecordDecodeFailure(coremetrics.DecodeFailureEvent{}))
	assert.Equal(t, 2.0, testutil.ToFloat64(first.decodeErrs))
}
