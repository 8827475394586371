package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/smart-home/internal/status"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12
)

var upgrader = websocket.Upgrader{
	// The panel is served from the device itself on the LAN.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams a status frame on connect and after every control cycle.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	frames := s.tracker.Subscribe()
	defer s.tracker.Unsubscribe(frames)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.writeFrame(conn, s.tracker.Snapshot()); err != nil {
		s.log.Debugw("ws initial write failed", "err", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debugw("ws ping failed", "err", err)
				return
			}
		case msg, ok := <-frames:
			if !ok {
				return
			}
			snap, isSnap := msg.(status.Snapshot)
			if !isSnap {
				continue
			}
			if err := s.writeFrame(conn, snap); err != nil {
				s.log.Debugw("ws write failed", "err", err)
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, snap status.Snapshot) error {
	data, err := formatFrame(snap)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
