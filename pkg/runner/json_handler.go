package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/citychat/pkg/view"
)

// Frame is one JSON line emitted by JSONHandler.
type Frame struct {
	Type   string         `json:"type"`
	View   *view.View     `json:"view,omitempty"`
	Fresh  []view.Message `json:"fresh,omitempty"`
	System string         `json:"system,omitempty"`
}

// Frame types.
const (
	FrameUpdate = "update"
	FrameSystem = "system"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	MaxInputSize int
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, v view.View, fresh []view.Message) error {
	return h.Encoder.Encode(Frame{Type: FrameUpdate, View: &v, Fresh: fresh})
}

// Input reads one line. A JSON string is unquoted; anything else is taken
// verbatim.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if json.Unmarshal([]byte(text), &val) == nil {
		text = val
	}
	return SanitizeInputLimit(text, h.MaxInputSize)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Frame{Type: FrameSystem, System: msg})
}
