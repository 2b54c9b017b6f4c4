package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/graph"
	"github.com/aretw0/citychat/pkg/runner"
	"github.com/aretw0/citychat/pkg/view"
)

// Chat is the conversation surface the server exposes. *citychat.Engine
// satisfies it.
type Chat interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Send(ctx context.Context, sessionID, input string) (*domain.Session, error)
	Edit(ctx context.Context, sessionID string, index int, text string) (*domain.Session, error)
	Restart(ctx context.Context, sessionID string) (*domain.Session, error)
	End(ctx context.Context, sessionID string) error
	Chart(ctx context.Context, sessionID string, index int) (*view.Chart, error)
	View(s *domain.Session) view.View
	Graph() *graph.Graph
}

// Observer records submission outcomes and live stream counts.
// *metrics.Metrics satisfies it.
type Observer interface {
	ObserveSubmission(kind, outcome string)
	StreamOpened()
	StreamClosed()
}

// Submission kinds, as reported to the Observer.
const (
	KindMessage = "message"
	KindEdit    = "edit"
	KindRestart = "restart"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeStale    = "stale"
	outcomeError    = "error"
)

// Server hosts the chat widget and its JSON API.
type Server struct {
	chat     Chat
	streams  *StreamManager
	charts   *view.ChartSlot
	observer Observer
	metrics  http.Handler
	origins  []string
	maxInput int
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager, typically the one whose ProgressHooks
// were registered on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithObserver records submissions and streams.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAllowedOrigins restricts cross-origin callers. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxInputSize bounds submitted text, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a server over chat.
func NewServer(chat Chat, opts ...Option) *Server {
	s := &Server{
		chat:    chat,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	s.charts = view.NewChartSlot(func(sessionID string, c *view.Chart) {
		s.logger.Debug("Chart disposed", "session_id", sessionID, "parameter", c.Parameter)
		s.streams.Broadcast(sessionID, Event{Type: EventChartClosed})
	})
	return s
}

// NewHandler creates the HTTP handler for chat.
func NewHandler(chat Chat, opts ...Option) http.Handler {
	return NewServer(chat, opts...).Handler()
}

// Streams returns the server's StreamManager.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Charts returns the per-session chart slot.
func (s *Server) Charts() *view.ChartSlot {
	return s.charts
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/widget", http.StatusFound)
	})
	r.Get("/widget", s.widgetPage)
	r.Get("/widget/*", s.widgetAssets)

	r.Get("/openapi.yaml", s.openAPI)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/graph", s.graph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.sendMessage)
			r.Put("/messages/{index}", s.editMessage)
			r.Post("/restart", s.restart)
			r.Post("/charts", s.openChart)
			r.Get("/chart", s.getChart)
			r.Delete("/chart", s.closeChart)
			r.Get("/events", s.events)
			r.Get("/ws", s.websocket)
		})
	})
	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			switch {
			case slices.Contains(s.origins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(s.origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>CityChat API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Meta --

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := loadSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "citychat-http",
		"version":     strings.TrimSpace(citychat.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	g := s.chat.Graph()
	writeJSON(w, http.StatusOK, map[string]any{
		"root":  g.Root(),
		"nodes": g.Nodes(),
	})
}

// -- Sessions --

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type textRequest struct {
	Text string `json:"text"`
}

type chartRequest struct {
	Index int `json:"index"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.chat.Start(r.Context(), strings.TrimSpace(body.SessionID))
	if err != nil {
		s.fail(w, r, "Start", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.chat.View(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chat.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "Session", err)
		return
	}
	writeJSON(w, http.StatusOK, s.chat.View(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.chat.End(r.Context(), id); err != nil {
		s.fail(w, r, "End", err)
		return
	}
	s.charts.Clear(id)
	s.streams.Broadcast(id, Event{Type: EventEnded})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body textRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respond(w, r, submission{Kind: KindMessage, Text: body.Text})
}

func (s *Server) editMessage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "message index must be a number")
		return
	}
	var body textRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respond(w, r, submission{Kind: KindEdit, Index: index, Text: body.Text})
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, submission{Kind: KindRestart})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, sub submission) {
	v, err := s.submit(r.Context(), chi.URLParam(r, "id"), sub)
	if err != nil {
		s.fail(w, r, sub.Kind, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// submission is one user action against a session.
type submission struct {
	Kind  string `json:"type"`
	Index int    `json:"index,omitempty"`
	Text  string `json:"text,omitempty"`
}

// submit applies sub, then pushes the committed view and its diff to the
// session's subscribers.
func (s *Server) submit(ctx context.Context, id string, sub submission) (*view.View, error) {
	old, err := s.chat.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Kind != KindRestart {
		clean, err := runner.SanitizeInputLimit(sub.Text, s.maxInput)
		if err != nil {
			s.observe(sub.Kind, outcomeRejected)
			return nil, err
		}
		sub.Text = clean
	}

	var next *domain.Session
	switch sub.Kind {
	case KindMessage:
		next, err = s.chat.Send(ctx, id, sub.Text)
	case KindEdit:
		next, err = s.chat.Edit(ctx, id, sub.Index, sub.Text)
	case KindRestart:
		next, err = s.chat.Restart(ctx, id)
		if err == nil {
			s.charts.Clear(id)
		}
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, sub.Kind)
	}
	if err != nil {
		s.observe(sub.Kind, outcomeOf(err))
		return nil, err
	}
	s.observe(sub.Kind, outcomeOK)

	v := s.chat.View(next)
	s.streams.Broadcast(id, Event{Type: EventView, View: &v, Diff: domain.Diff(old, next)})
	return &v, nil
}

func (s *Server) observe(kind, outcome string) {
	if s.observer != nil {
		s.observer.ObserveSubmission(kind, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrNotEditable):
		return outcomeRejected
	case errors.Is(err, domain.ErrStaleSession):
		return outcomeStale
	}
	return outcomeError
}

// -- Charts --

func (s *Server) openChart(w http.ResponseWriter, r *http.Request) {
	var body chartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.chart(r.Context(), chi.URLParam(r, "id"), body.Index)
	if err != nil {
		s.fail(w, r, "Chart", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// chart builds the chart of message index and makes it the session's only chart.
func (s *Server) chart(ctx context.Context, id string, index int) (*view.Chart, error) {
	c, err := s.chat.Chart(ctx, id, index)
	if err != nil {
		return nil, err
	}
	s.charts.Replace(id, c)
	s.streams.Broadcast(id, Event{Type: EventChart, Chart: c})
	return c, nil
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.charts.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no chart open")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) closeChart(w http.ResponseWriter, r *http.Request) {
	s.charts.Clear(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

var errUnknownCommand = errors.New("unknown command")

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, citychat.ErrNothingToChart):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, errUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotEditable),
		errors.Is(err, domain.ErrStaleSession):
		return http.StatusConflict
	case errors.Is(err, view.ErrNoChartData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Internal failures are logged and their
// detail is not exposed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed", "op", op, "path", r.URL.Path, "err", err)
		writeError(w, status, "internal error")
		return
	}
	s.logger.DebugContext(r.Context(), "Request rejected", "op", op, "path", r.URL.Path, "err", err)
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
