package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/abhisek/mathsprint/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// newUpgrader accepts the same origins as the CORS middleware. Requests
// without an Origin header come from non-browser clients and are allowed.
func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origins, origin)
		},
	}
}

// Events handles GET /api/sessions/{id}/events. Every session event is
// written as one JSON text message; the stream closes when the session ends.
func (h *sessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	log := h.log.With(zap.String("session_id", s.ID()))

	send := make(chan []byte, sendBuffer)
	cancel := s.Subscribe(func(ev session.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Error("failed to encode event", zap.Error(err))
			return
		}
		select {
		case send <- data:
		default:
			log.Warn("dropping event for slow websocket client", zap.Stringer("kind", ev.Kind))
		}
	})
	defer cancel()

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, send, closed, s.Done())
}

// readPump discards client messages and closes closed when the peer goes
// away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards events until the peer goes away or the session ends.
// The final state change is published before done closes, so draining send
// after done delivers it.
func writePump(conn *websocket.Conn, send <-chan []byte, closed, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(msg []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, msg) == nil
	}

	for {
		select {
		case msg := <-send:
			if !write(msg) {
				return
			}
		case <-done:
			for len(send) > 0 {
				if !write(<-send) {
					return
				}
			}
			closeConn(conn)
			return
		case <-closed:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeConn(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(writeWait))
}
