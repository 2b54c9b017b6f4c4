package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit  = 64 * 1024
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// KindChart opens a chart over the WebSocket.
const KindChart = "chart"

// websocket handles GET /sessions/{id}/ws. Clients send submissions as JSON
// ({"type":"message","text":"1"}, {"type":"edit","index":0,"text":"2"},
// {"type":"restart"}, {"type":"chart","index":4}) and receive the same events
// SSE subscribers do. Failed commands are answered with an error event on
// this connection only.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.chat.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, "WebSocket", err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.allowOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()
	if s.observer != nil {
		s.observer.StreamOpened()
		defer s.observer.StreamClosed()
	}
	s.logger.Info("WebSocket: Client connected", "session_id", id, "remote", r.RemoteAddr)

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	replies := make(chan Event, 4)
	v := s.chat.View(sess)
	replies <- Event{Type: EventView, View: &v}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, conn, ch, replies)
	}()

	s.readLoop(ctx, conn, id, replies)
	stop()
	<-done
	s.logger.Info("WebSocket: Client disconnected", "session_id", id)
}

// readLoop runs commands until the client goes away.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, id string, replies chan<- Event) {
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed", "session_id", id, "err", err)
			}
			return
		}

		var cmd submission
		if err := json.Unmarshal(msg, &cmd); err != nil {
			s.reply(ctx, replies, Event{Type: EventError, Error: "invalid command"})
			continue
		}

		if cmd.Kind == KindChart {
			_, err = s.chart(ctx, id, cmd.Index)
		} else {
			_, err = s.submit(ctx, id, cmd)
		}
		if err != nil {
			msg := err.Error()
			if statusOf(err) == http.StatusInternalServerError {
				s.logger.Error("WebSocket command failed", "session_id", id, "type", cmd.Kind, "err", err)
				msg = "internal error"
			}
			s.reply(ctx, replies, Event{Type: EventError, Error: msg})
		}
	}
}

func (s *Server) reply(ctx context.Context, replies chan<- Event, e Event) {
	select {
	case replies <- e:
	case <-ctx.Done():
	}
}

// writeLoop owns all writes to conn.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan []byte, replies <-chan Event) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err = conn.WriteMessage(websocket.TextMessage, msg)
		case e := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err = conn.WriteJSON(e)
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			s.logger.Debug("WebSocket write failed", "err", err)
			conn.Close()
			return
		}
	}
}
