package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/view"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	source      io.Reader
	interactive bool
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer

	// MaxInputSize bounds a single line; <= 0 uses MaxInputSize().
	MaxInputSize int

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerMaxInput bounds the size of one input line.
func WithTextHandlerMaxInput(limit int) TextHandlerOption {
	return func(h *TextHandler) {
		h.MaxInputSize = limit
	}
}

// WithTextHandlerInteractive forces prompt drawing on or off.
func WithTextHandlerInteractive(interactive bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.interactive = interactive
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source:      r,
		interactive: isInteractive(r),
		Reader:      bufio.NewReader(r),
		Writer:      w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// A final line without a newline still counts.
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Output prints the fresh bot messages. User messages are not echoed: the
// user just typed them.
func (h *TextHandler) Output(ctx context.Context, v view.View, fresh []view.Message) error {
	for _, msg := range fresh {
		if msg.Sender != domain.SenderBot || msg.Pending {
			continue
		}
		fmt.Fprintln(h.Writer, h.render(strings.Join(msg.Lines, "\n")))
		if msg.Link != "" {
			fmt.Fprintf(h.Writer, "  %s\n", msg.Link)
		}
		if msg.Visualize {
			fmt.Fprintf(h.Writer, "  (chart available: /chart %d)\n", msg.Index)
		}
	}

	if len(v.Suggestions) > 0 {
		fmt.Fprintln(h.Writer, "Try asking:")
		for _, q := range slices.Concat(v.Suggestions, v.MoreSuggestions) {
			fmt.Fprintf(h.Writer, "  - %s\n", q)
		}
	}
	return nil
}

func (h *TextHandler) render(text string) string {
	if h.Renderer == nil {
		return text
	}
	rendered, err := h.Renderer(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}

// Input returns the next sanitized line. Rejected lines are reported and
// the user is asked again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		if h.interactive {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
				fmt.Fprint(h.Writer, "> ")
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInputLimit(strings.TrimSpace(res.text), h.MaxInputSize)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}
