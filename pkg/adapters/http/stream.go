package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/view"
)

// EventType names what a pushed event carries.
type EventType string

const (
	// EventView carries the committed view and its diff against the previous snapshot.
	EventView EventType = "view"
	// EventProgress carries an intermediate view, such as the "Processing…" placeholder.
	EventProgress EventType = "progress"
	// EventChart carries a chart opened for the session.
	EventChart EventType = "chart"
	// EventChartClosed tells the widget to destroy its chart instance.
	EventChartClosed EventType = "chart_closed"
	// EventEnded tells the widget the session was deleted.
	EventEnded EventType = "ended"
	// EventError answers a WebSocket command that failed.
	EventError EventType = "error"
)

// Event is the payload pushed over SSE and WebSocket connections.
type Event struct {
	Type  EventType           `json:"type"`
	View  *view.View          `json:"view,omitempty"`
	Diff  *domain.SessionDiff `json:"diff,omitempty"`
	Chart *view.Chart         `json:"chart,omitempty"`
	Error string              `json:"error,omitempty"`
}

const subscriberBuffer = 16

// StreamManager fans session events out to live subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan []byte]struct{} // SessionID -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for sessionID. The returned function
// unregisters it and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, subscriberBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan []byte]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers returns how many subscribers sessionID has.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends e to every subscriber of sessionID. Slow subscribers whose
// buffer is full miss the event.
func (sm *StreamManager) Broadcast(sessionID string, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("Failed to encode event", "session_id", sessionID, "type", e.Type, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- payload:
		default:
			sm.logger.Warn("Stream buffer full, dropping event", "session_id", sessionID, "type", e.Type)
		}
	}
}

// ProgressHooks returns lifecycle hooks that push intermediate snapshots to
// subscribers while a submission is still running. The placeholder is the
// last message of such a snapshot, so no option buttons are rendered and the
// graph is not needed.
func (sm *StreamManager) ProgressHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnProgress: func(ctx context.Context, e *domain.ProgressEvent) {
			if e.Session == nil {
				return
			}
			v := view.Render(e.Session, nil)
			sm.Broadcast(e.SessionID, Event{Type: EventProgress, View: &v})
		},
	}
}
