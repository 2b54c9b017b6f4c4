package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/graph"
	"github.com/aretw0/citychat/pkg/ports"
)

// Processing is the text of the placeholder shown while a backend call is in flight.
const Processing = "Processing…"

// Engine is the conversation state machine.
//
// It never mutates the session it is given: every submission works on a clone
// whose Generation is one above its input, so a caller committing results can
// tell a fresh answer from a stale one.
type Engine struct {
	graph   *graph.Graph
	gateway ports.DataGateway
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over a validated graph and a data gateway.
func NewEngine(g *graph.Graph, gw ports.DataGateway, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:   g,
		gateway: gw,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the conversation graph the engine runs.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Start creates a session positioned at the graph root with the root prompt as
// its first message.
func (e *Engine) Start(ctx context.Context, sessionID string) *domain.Session {
	root, _ := e.graph.Node(e.graph.Root())

	s := domain.NewSession(sessionID, root.Name)
	now := e.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	e.show(ctx, s, root, false)

	e.logger.DebugContext(ctx, "Session started", "session_id", sessionID, "node", root.Name)
	return s
}

// Restart returns a fresh conversation for the same session ID. The generation
// keeps counting so results computed before the restart are recognized as stale.
func (e *Engine) Restart(ctx context.Context, current *domain.Session) *domain.Session {
	s := e.Start(ctx, current.ID)
	s.CreatedAt = current.CreatedAt
	s.Generation = current.Generation + 1
	return s
}

// Submit handles one user submission and returns the resulting session.
//
// Conversation-level failures (unknown option, missing data, unreachable
// backend) become bot messages. An error is returned only for empty input or
// a session whose current node is not part of the graph.
func (e *Engine) Submit(ctx context.Context, current *domain.Session, input string) (*domain.Session, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, domain.ErrEmptyInput
	}

	next := e.advance(current)
	cp := next.Checkpoint()
	next.Messages = append(next.Messages, domain.Message{
		Text:       input,
		Sender:     domain.SenderUser,
		Checkpoint: &cp,
	})

	if err := e.dispatch(ctx, next, input); err != nil {
		return nil, err
	}
	return next, nil
}

// Edit replaces the text of the user message at index and replays the
// conversation from the state captured when it was first submitted. Every
// message after index is discarded.
func (e *Engine) Edit(ctx context.Context, current *domain.Session, index int, text string) (*domain.Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}
	if index < 0 || index >= len(current.Messages) {
		return nil, fmt.Errorf("%w: index %d out of range", domain.ErrNotEditable, index)
	}
	msg := current.Messages[index]
	if msg.Sender != domain.SenderUser || msg.Checkpoint == nil {
		return nil, fmt.Errorf("%w: message %d", domain.ErrNotEditable, index)
	}

	next := e.advance(current)
	next.Restore(*msg.Checkpoint)
	next.Suggestions = nil
	if node, ok := e.graph.Node(next.CurrentNode); ok {
		next.Suggestions = slices.Clone(node.RecommendedQuestions)
	}
	next.Messages = next.Messages[:index+1]
	next.Messages[index].Text = text

	e.logger.DebugContext(ctx, "Replaying edited message", "session_id", next.ID, "index", index, "node", next.CurrentNode)

	if err := e.dispatch(ctx, next, text); err != nil {
		return nil, err
	}
	return next, nil
}

// advance clones current into the next generation.
func (e *Engine) advance(current *domain.Session) *domain.Session {
	next := current.Clone()
	next.Generation++
	next.UpdatedAt = e.now()
	return next
}

// NodeNotFoundError is returned when a session points at a node the graph does not define.
type NodeNotFoundError struct {
	Node string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found in conversation graph", e.Node)
}
