package metrics_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kilianp07/iqrfdash/core/factory"
	metrics "github.com/kilianp07/iqrfdash/core/metrics"
	_ "github.com/kilianp07/iqrfdash/infra/metrics"
)

/*
TestMetricsFactory_Builtins verifies registration via infra/metrics/factory.go.

	Cases:
	- instantiate builtin nop sink
	- unknown type returns error
*/
func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if s == nil {
		t.Fatal("expected sink instance")
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

type countingSink struct{ n int }

func (c *countingSink) RecordMessage(metrics.MessageEvent) error {
	c.n++
	return nil
}

func init() {
	_ = metrics.RegisterMetricsSink("counting", func(map[string]any) (metrics.MetricsSink, error) {
		return &countingSink{}, nil
	})
}

/*
TestNewMetricsSink_Multi validates NewMetricsSink behavior with zero, one, and multiple configs.
Cases:
  - no config -> NopSink
  - nop entries are skipped
  - one real sink is returned unwrapped
  - two real sinks -> MultiSink
*/
func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("create nops: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink for nop-only config, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "counting"}})
	if err != nil {
		t.Fatalf("create single: %v", err)
	}
	if _, ok := s.(*countingSink); !ok {
		t.Fatalf("expected unwrapped countingSink, got %T", s)
	}

	var cfg metrics.Config
	if err := json.Unmarshal([]byte(`{"sinks":[{"type":"counting"},{"type":"nop"},{"type":"counting"}]}`), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	s, err = metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}

func TestNewMetricsSink_ErrorNamesEntry(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "statsd"}})
	if err == nil || !strings.Contains(err.Error(), "metrics sink 1 (statsd)") {
		t.Fatalf("expected error naming entry 1, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (metrics.Config{PrometheusPort: ":2112", Sinks: []factory.ModuleConfig{{Type: "nop"}}}).Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}
	if err := (metrics.Config{Sinks: []factory.ModuleConfig{{}}}).Validate(); err == nil {
		t.Fatal("expected error for sink without type")
	}
	if err := (metrics.Config{PrometheusPort: "2112"}).Validate(); err == nil {
		t.Fatal("expected error for address without colon")
	}
}
