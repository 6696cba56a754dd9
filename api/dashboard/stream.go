package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kilianp07/iqrfdash/core/presentation"
)

const writeWait = 5 * time.Second

// streamMessage is the first frame sent on /api/stream; later frames are
// presentation.Update values.
type streamMessage struct {
	Kind     string                 `json:"kind"`
	Snapshot *presentation.Snapshot `json:"snapshot"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	updates := s.board.Updates().Subscribe()
	defer s.board.Updates().Unsubscribe(updates)

	snap := s.board.Snapshot()
	if err := s.send(conn, streamMessage{Kind: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	// The client never sends anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Debugf("stream read: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err := s.send(conn, u); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		s.log.Debugf("stream write: %v", err)
		return err
	}
	return nil
}
