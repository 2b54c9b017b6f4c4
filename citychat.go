package citychat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/internal/runtime"
	"github.com/aretw0/citychat/pkg/adapters/memory"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/gateway"
	"github.com/aretw0/citychat/pkg/graph"
	"github.com/aretw0/citychat/pkg/menu"
	"github.com/aretw0/citychat/pkg/ports"
	"github.com/aretw0/citychat/pkg/session"
	"github.com/aretw0/citychat/pkg/view"
)

// ErrNothingToChart is returned when a chart is requested for a message that
// carries no visualization query.
var ErrNothingToChart = errors.New("message has nothing to chart")

// Engine is the high-level entry point for the citychat library.
// It binds the conversation runtime to a session store so hosts (terminal,
// HTTP widget, MCP) work with session IDs instead of snapshots.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	graph    *graph.Graph
	gateway  ports.DataGateway
	store    ports.SessionStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithGraph replaces the built-in smart-city conversation tree.
func WithGraph(g *graph.Graph) Option {
	return func(e *Engine) {
		e.graph = g
	}
}

// WithGateway injects the smart-city backend client.
func WithGateway(gw ports.DataGateway) Option {
	return func(e *Engine) {
		e.gateway = gw
	}
}

// WithStore sets the session store (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a citychat Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.graph == nil {
		e.graph = menu.Default()
	}
	if e.gateway == nil {
		e.gateway = gateway.New(gateway.WithLogger(e.logger))
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	e.runtime = runtime.NewEngine(e.graph, e.gateway,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	return e, nil
}

// Start returns the session with the given ID, creating it at the graph root
// when it does not exist. An empty ID starts a session with a fresh UUID.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return e.sessions.LoadOrStart(ctx, sessionID, func(ctx context.Context) *domain.Session {
		return e.runtime.Start(ctx, sessionID)
	})
}

// Session returns the stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Send submits user input to the session and returns the updated session.
func (e *Engine) Send(ctx context.Context, sessionID, input string) (*domain.Session, error) {
	return e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return e.runtime.Submit(ctx, s, input)
	})
}

// Edit rewrites the user message at index and replays the conversation from it.
func (e *Engine) Edit(ctx context.Context, sessionID string, index int, text string) (*domain.Session, error) {
	return e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return e.runtime.Edit(ctx, s, index, text)
	})
}

// Restart clears the conversation and starts over at the graph root.
func (e *Engine) Restart(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		return e.runtime.Restart(ctx, s), nil
	})
}

// End deletes the session.
func (e *Engine) End(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Sessions lists the stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Chart builds the chart for the message at index, which must carry a
// visualization query.
func (e *Engine) Chart(ctx context.Context, sessionID string, index int) (*view.Chart, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.Messages) || s.Messages[index].Visualize == "" {
		return nil, fmt.Errorf("%w: message %d", ErrNothingToChart, index)
	}
	return e.ChartFor(ctx, s.Messages[index].Visualize)
}

// ChartFor builds a chart for an arbitrary query.
func (e *Engine) ChartFor(ctx context.Context, query string) (*view.Chart, error) {
	vis, err := e.gateway.FetchVisualizationData(ctx, query)
	if err != nil {
		return nil, err
	}
	return view.BuildChart(vis, query)
}

// View renders the widget model of a session.
func (e *Engine) View(s *domain.Session) view.View {
	return view.Render(s, e.graph)
}

// Graph returns the conversation graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Gateway returns the backend client.
func (e *Engine) Gateway() ports.DataGateway {
	return e.gateway
}

// Store returns the session store.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}
