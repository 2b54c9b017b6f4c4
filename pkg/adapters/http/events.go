package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// events handles GET /sessions/{id}/events (SSE). The optional "watch" query
// parameter is a comma-separated list of event types to receive.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.logger.Error("SSE: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	sess, err := s.chat.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Events", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()
	if s.observer != nil {
		s.observer.StreamOpened()
		defer s.observer.StreamClosed()
	}
	s.logger.Info("SSE: Subscribing to session updates", "session_id", id)

	watch := parseWatch(r.URL.Query().Get("watch"))

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	v := s.chat.View(sess)
	if watch.allows(EventView) {
		if initial, err := json.Marshal(Event{Type: EventView, View: &v}); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", initial)
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !watch.allowsPayload(msg) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watchList filters events by type. An empty list passes everything.
type watchList map[EventType]bool

func parseWatch(raw string) watchList {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	w := watchList{}
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			w[EventType(field)] = true
		}
	}
	return w
}

func (w watchList) allows(t EventType) bool {
	return len(w) == 0 || w[t]
}

func (w watchList) allowsPayload(msg []byte) bool {
	if len(w) == 0 {
		return true
	}
	var head struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return false
	}
	return w[head.Type]
}
