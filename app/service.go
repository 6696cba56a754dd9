// Package app wires the dashboard service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/iqrfdash/api/dashboard"
	"github.com/kilianp07/iqrfdash/config"
	"github.com/kilianp07/iqrfdash/core/history"
	coremetrics "github.com/kilianp07/iqrfdash/core/metrics"
	"github.com/kilianp07/iqrfdash/core/monitoring"
	"github.com/kilianp07/iqrfdash/core/presentation"
	"github.com/kilianp07/iqrfdash/core/session"
	"github.com/kilianp07/iqrfdash/core/topics"
	"github.com/kilianp07/iqrfdash/infra/logger"
	"github.com/kilianp07/iqrfdash/infra/metrics"
	infmon "github.com/kilianp07/iqrfdash/infra/monitoring"
	"github.com/kilianp07/iqrfdash/infra/mqtt"
)

// Service owns the dashboard, the broker session and the HTTP API.
type Service struct {
	Dashboard *presentation.Dashboard
	Session   *session.Session
	Transport *mqtt.PahoTransport

	cfg   *config.Config
	store history.Store
	sink  coremetrics.MetricsSink
	api   *dashboard.Server
	log   logger.Logger
}

// New creates a Service from the configuration. The broker is not contacted
// until Connect or Run.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logg := logger.New("service")

	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	board := presentation.New(presentation.Options{
		PulsePeriod: cfg.Dashboard.PulsePeriod,
		StatsWindow: cfg.Dashboard.StatsWindow,
		Logger:      logger.New("dashboard"),
	})

	// The transport only calls back after Connect, when sess is set.
	var sess *session.Session
	transport, err := mqtt.NewPahoTransport(cfg.MQTT, func(ev session.Event) { sess.Notify(ev) })
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("mqtt transport: %w", err)
	}
	sess, err = session.New(session.Options{
		Transport: transport,
		Topics:    topics.New(cfg.Gateway.DeviceID),
		Dashboard: board,
		Store:     store,
		Metrics:   sink,
		Logger:    logger.New("session"),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	api := dashboard.NewServer(dashboard.Options{
		Dashboard:  board,
		Controller: sess,
		Store:      store,
		Token:      cfg.HTTP.Token,
		Logger:     logger.New("api"),
	})

	return &Service{
		Dashboard: board,
		Session:   sess,
		Transport: transport,
		cfg:       cfg,
		store:     store,
		sink:      sink,
		api:       api,
		log:       logg,
	}, nil
}

// Start runs the session loop in the background.
func (s *Service) Start(ctx context.Context) {
	go func() {
		if err := s.Session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("session: %v", err)
		}
	}()
}

// Run starts the session loop, the metrics endpoint and the HTTP API, and
// blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.Start(ctx)

	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cfg.Dashboard.AutoConnect {
		if err := s.Session.Connect(ctx); err != nil {
			s.log.Errorf("auto connect: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Address,
		Handler:           s.api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("dashboard API listening on %s", s.cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close disconnects and releases every resource.
func (s *Service) Close() error {
	if s.Session.View().Connected {
		s.Session.Disconnect()
	}
	s.Session.Close()
	s.Dashboard.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	monitoring.Flush(2 * time.Second)
	return s.store.Close()
}
