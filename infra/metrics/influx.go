package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxSink writes dashboard events to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A trailing
// /api/v2/write is accepted and stripped.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: writeTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordMessage(ev coremetrics.MessageEvent) error {
	return s.write(write.NewPointWithMeasurement("message_received").
		AddTag("kind", ev.Kind.String()).
		AddTag("variant", ev.Variant.String()).
		AddTag("topic", ev.Topic).
		AddField("count", 1).
		SetTime(ev.Time))
}

func (s *InfluxSink) RecordTemperature(ev coremetrics.TemperatureEvent) error {
	p := write.NewPointWithMeasurement("temperature").
		AddTag("variant", ev.Variant.String())
	if ev.Unit != "" {
		p = p.AddTag("unit", ev.Unit)
	}
	return s.write(p.AddField("value", round3(ev.Value)).SetTime(ev.Time))
}

func (s *InfluxSink) RecordCommand(ev coremetrics.CommandEvent) error {
	p := write.NewPointWithMeasurement("led_command").
		AddTag("actuator", string(ev.Actuator)).
		AddTag("action", string(ev.Action)).
		AddField("pid", ev.PID)
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return s.write(p.SetTime(ev.Time))
}

func (s *InfluxSink) RecordActuatorReport(ev coremetrics.ActuatorReportEvent) error {
	return s.write(write.NewPointWithMeasurement("led_report").
		AddTag("actuator", string(ev.Actuator)).
		AddTag("action", string(ev.Action)).
		AddTag("rcode", string(ev.RCode)).
		AddTag("variant", ev.Variant.String()).
		AddField("pid", ev.PID).
		AddField("ok", ev.RCode.OK()).
		SetTime(ev.Time))
}

func (s *InfluxSink) RecordDecodeFailure(ev coremetrics.DecodeFailureEvent) error {
	return s.write(write.NewPointWithMeasurement("decode_failure").
		AddTag("topic", ev.Topic).
		AddField("reason", ev.Reason).
		SetTime(ev.Time))
}

func (s *InfluxSink) RecordConnection(ev coremetrics.ConnectionEvent) error {
	p := write.NewPointWithMeasurement("broker_connection").
		AddTag("state", ev.State).
		AddTag("endpoint", ev.Endpoint).
		AddField("connected", ev.State == coremetrics.ConnConnected)
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return s.write(p.SetTime(ev.Time))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
