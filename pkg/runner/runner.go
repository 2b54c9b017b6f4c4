package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/view"
)

// Conversation is the part of the citychat engine the runner drives.
type Conversation interface {
	Start(ctx context.Context, sessionID string) (*domain.Session, error)
	Send(ctx context.Context, sessionID, input string) (*domain.Session, error)
	Edit(ctx context.Context, sessionID string, index int, text string) (*domain.Session, error)
	Restart(ctx context.Context, sessionID string) (*domain.Session, error)
	Chart(ctx context.Context, sessionID string, index int) (*view.Chart, error)
	View(s *domain.Session) view.View
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Runner drives one chat session over an IOHandler.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler (or a JSONHandler
	// when Headless) is built over Input and Output.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	SessionID    string
	Headless     bool
	Renderer     ContentRenderer
	Input        io.Reader
	Output       io.Writer
	MaxInputSize int
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run starts (or resumes) the session and loops over user input until EOF,
// an exit command or context cancellation. Lines starting with "/" are
// commands; see Help.
func (r *Runner) Run(ctx context.Context, chat Conversation) error {
	handler := r.resolveHandler()

	s, err := chat.Start(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.Logger.Debug("Session started", "session_id", s.ID)

	v := chat.View(s)
	if err := handler.Output(ctx, v, v.Messages); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	seen := len(v.Messages)

	for {
		input, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				if err := handler.SystemOutput(ctx, err.Error()); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}
		if input == "" {
			continue
		}

		cmd := parseCommand(input)
		if cmd.name == cmdExit {
			return nil
		}

		next, from, err := r.apply(ctx, chat, handler, s, cmd, seen)
		if err != nil {
			if !recoverable(err) {
				return err
			}
			r.Logger.Debug("Command rejected", "session_id", s.ID, "input", input, "err", err)
			if err := handler.SystemOutput(ctx, err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		if next == nil {
			continue
		}

		s = next
		v = chat.View(s)
		from = min(from, len(v.Messages))
		if err := handler.Output(ctx, v, v.Messages[from:]); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		seen = len(v.Messages)
	}
}

// apply executes one command. It returns the updated session (nil when the
// session did not change) and the first message index the user has not seen.
func (r *Runner) apply(ctx context.Context, chat Conversation, handler IOHandler, s *domain.Session, cmd command, seen int) (*domain.Session, int, error) {
	switch cmd.name {
	case cmdHelp:
		return nil, 0, handler.SystemOutput(ctx, Help)

	case cmdRestart:
		next, err := chat.Restart(ctx, s.ID)
		return next, 0, err

	case cmdEdit:
		next, err := chat.Edit(ctx, s.ID, cmd.index, cmd.text)
		return next, cmd.index + 1, err

	case cmdChart:
		chart, err := chat.Chart(ctx, s.ID, cmd.index)
		if err != nil {
			r.Logger.Debug("Chart unavailable", "session_id", s.ID, "index", cmd.index, "err", err)
			return nil, 0, handler.SystemOutput(ctx, "Chart unavailable: "+err.Error())
		}
		return nil, 0, handler.SystemOutput(ctx, DescribeChart(chart))

	case cmdInvalid:
		return nil, 0, fmt.Errorf("%w: %s", ErrBadCommand, cmd.text)

	default:
		next, err := chat.Send(ctx, s.ID, cmd.text)
		return next, seen, err
	}
}

// DescribeChart summarizes a chart for text-only frontends.
func DescribeChart(c *view.Chart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s chart of %s (%d points on %s)", c.Type, c.Parameter, len(c.Labels), c.XTitle)
	for _, ds := range c.Datasets {
		if len(ds.Data) == 0 {
			continue
		}
		last := ds.Data[len(ds.Data)-1]
		fmt.Fprintf(&b, "\n  %s: %s = %s", ds.Label, last.X, strconv.FormatFloat(last.Y, 'f', -1, 64))
	}
	return b.String()
}

func recoverable(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, domain.ErrNotEditable) ||
		errors.Is(err, ErrBadCommand)
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	if r.Headless {
		h := NewJSONHandler(r.Input, r.Output)
		h.MaxInputSize = r.MaxInputSize
		return h
	}
	return NewTextHandler(r.Input, r.Output,
		WithTextHandlerRenderer(r.Renderer),
		WithTextHandlerMaxInput(r.MaxInputSize),
	)
}
