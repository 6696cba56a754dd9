package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/iqrfdash/config"
	"github.com/kilianp07/iqrfdash/core/factory"
	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/session"
)

func TestNewServiceWiresComponents(t *testing.T) {
	cfg := &config.Config{}
	cfg.History.Backend = history.BackendJSONL
	cfg.History.Path = filepath.Join(t.TempDir(), "history.jsonl")
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, session.StatusIdle, svc.Session.View().Status)
	assert.Equal(t, "localhost:1883", svc.Transport.Endpoint())

	rr := httptest.NewRecorder()
	svc.api.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	svc.api.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/leds/r/on", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	require.NoError(t, svc.Close())
}

func TestNewServiceRejectsUnknownSink(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}
