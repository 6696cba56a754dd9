package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/monitoring"
	"github.com/kilianp07/iqrfdash/core/session"
)

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.board.History(r.URL.Query().Get("topic"), limit))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.board.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLastMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.LastMessages())
}

func (s *Server) handleStoredHistory(w http.ResponseWriter, r *http.Request) {
	q := history.Query{
		Topic: r.URL.Query().Get("topic"),
		Kind:  r.URL.Query().Get("kind"),
	}
	var err error
	if q.Start, err = timeParam(r, "start"); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if q.End, err = timeParam(r, "end"); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if q.Limit, err = intParam(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.store.Query(r.Context(), q)
	if err != nil {
		s.log.Errorf("query history: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cmd, err := s.ctl.SendCommand(r.Context(), vars["led"], vars["action"])
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, cmd)
	case errors.Is(err, model.ErrUnknownActuator), errors.Is(err, model.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, session.ErrNotConnected):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleCancelAnimation(w http.ResponseWriter, r *http.Request) {
	led, err := model.ParseActuator(mux.Vars(r)["led"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.board.CancelToggle(led)})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Connect(r.Context()); err != nil {
		if errors.Is(err, session.ErrAlreadyConnected) {
			writeError(w, http.StatusConflict, err)
			return
		}
		monitoring.Capture(err, "api", "connect")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.board.Snapshot().Connection)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.ctl.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}
