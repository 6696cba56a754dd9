// Package dashboard serves the dashboard state over HTTP and streams its
// updates over a websocket.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/logger"
	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/presentation"
)

// Controller drives the broker session.
type Controller interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendCommand(ctx context.Context, actuator, action string) (model.Command, error)
}

// Options configures a Server. Store may be nil.
type Options struct {
	Dashboard  *presentation.Dashboard
	Controller Controller
	Store      history.Store
	// Token protects the mutating routes with "Authorization: Bearer <token>"
	// when not empty.
	Token  string
	Logger logger.Logger
}

// Server exposes the dashboard API.
type Server struct {
	board    *presentation.Dashboard
	ctl      Controller
	store    history.Store
	token    string
	log      logger.Logger
	upgrader websocket.Upgrader
	router   *mux.Router
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	s := &Server{
		board: opts.Dashboard,
		ctl:   opts.Controller,
		store: opts.Store,
		token: opts.Token,
		log:   logger.OrNop(opts.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if s.store == nil {
		s.store = history.NopStore{}
	}
	s.router = mux.NewRouter()
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router.PathPrefix("/api").Subrouter()
	r.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/history", s.auth(s.handleClearHistory)).Methods(http.MethodDelete)
	r.HandleFunc("/history/stored", s.handleStoredHistory).Methods(http.MethodGet)
	r.HandleFunc("/last-messages", s.handleLastMessages).Methods(http.MethodGet)
	r.HandleFunc("/leds/{led}/animation", s.auth(s.handleCancelAnimation)).Methods(http.MethodDelete)
	r.HandleFunc("/leds/{led}/{action}", s.auth(s.handleCommand)).Methods(http.MethodPost)
	r.HandleFunc("/connection", s.auth(s.handleConnect)).Methods(http.MethodPost)
	r.HandleFunc("/connection", s.auth(s.handleDisconnect)).Methods(http.MethodDelete)
	r.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	s.router.Use(compress, recovery(s.log))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// compress gzips responses except websocket upgrades, which need the raw
// connection.
func compress(h http.Handler) http.Handler {
	compressed := handlers.CompressHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			h.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

type recoveryLogger struct{ log logger.Logger }

func (l recoveryLogger) Println(v ...any) { l.log.Errorf("http panic: %v", v) }

func recovery(log logger.Logger) mux.MiddlewareFunc {
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log}))
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
