// Package history persists accepted inbound messages so they survive a
// restart and can be exported. The in-memory table shown by the dashboard is
// kept by the presentation package; this store is its durable counterpart.
package history

import (
	"context"
	"fmt"
	"time"
)

// Entry is one accepted inbound message.
type Entry struct {
	Time    time.Time `json:"time"`
	Topic   string    `json:"topic"`
	Payload string    `json:"payload"`
	QoS     byte      `json:"qos"`
	Kind    string    `json:"kind"`
	Variant string    `json:"variant"`
}

// Query filters entries. Zero fields match everything; Limit <= 0 is unbounded.
type Query struct {
	Start time.Time
	End   time.Time
	Topic string
	Kind  string
	Limit int
}

// Matches reports whether e passes every filter except Limit.
func (q Query) Matches(e Entry) bool {
	if !q.Start.IsZero() && e.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Time.After(q.End) {
		return false
	}
	if q.Topic != "" && e.Topic != q.Topic {
		return false
	}
	if q.Kind != "" && e.Kind != q.Kind {
		return false
	}
	return true
}

// Store persists entries and supports querying them in time order.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Backends accepted by Config.Backend.
const (
	BackendNone   = "none"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and tunes the persistent backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendJSONL:
			c.Path = "data/history.jsonl"
		case BackendSQLite:
			c.Path = "data/history.db"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendNone, BackendJSONL, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("history: unknown backend %q", c.Backend)
	}
}

// Open builds the store selected by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendJSONL:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return NopStore{}, nil
	}
}

// NopStore discards entries.
type NopStore struct{}

func (NopStore) Append(context.Context, Entry) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                                  { return nil }
