package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/core/model"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.lines = append(l.lines, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[len(l.lines)-1]
}

func TestInfluxSinkRecordTemperature(t *testing.T) {
	var rec lineRecorder
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordTemperature(coremetrics.TemperatureEvent{
		Variant: model.VariantLowPower, Value: 21.23456, Unit: "Cel", Time: now,
	}))
	p := write.NewPointWithMeasurement("temperature").
		AddTag("variant", "lp").
		AddTag("unit", "Cel").
		AddField("value", 21.235).
		SetTime(now)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), rec.last())
}

func TestInfluxSinkRecordReportAndCommand(t *testing.T) {
	var rec lineRecorder
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	require.NoError(t, sink.RecordActuatorReport(coremetrics.ActuatorReportEvent{
		Actuator: model.ActuatorRed, Action: model.ActionOn, RCode: model.RCodeErrorNAdr, PID: 3, Time: time.Now(),
	}))
	for _, part := range []string{"led_report,", "actuator=ledr", "action=on", "rcode=error_nadr", "variant=std"} {
		assert.Contains(t, rec.last(), part)
	}
	assert.Contains(t, rec.last(), "ok=false")

	require.NoError(t, sink.RecordCommand(coremetrics.CommandEvent{
		Actuator: model.ActuatorGreen, Action: model.ActionPulse, PID: 4, Error: "not connected", Time: time.Now(),
	}))
	assert.Contains(t, rec.last(), "led_command,")
	assert.Contains(t, rec.last(), "actuator=ledg")
	assert.Contains(t, rec.last(), `error="not connected"`)

	require.NoError(t, sink.RecordConnection(coremetrics.ConnectionEvent{
		State: coremetrics.ConnConnected, Endpoint: "broker:1883", Time: time.Now(),
	}))
	assert.Contains(t, rec.last(), "connected=true")
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux)
	assert.True(t, called)
}
