package monitoring

import (
	"testing"

	coremon "github.com/kilianp07/iqrfdash/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(Config{DSN: "://not-a-dsn"}); err == nil {
		t.Fatal("expected error for invalid DSN")
	}
}
