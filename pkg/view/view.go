package view

import (
	"strings"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/graph"
)

// VisibleSuggestions is how many recommended questions are shown before the
// "show more" disclosure.
const VisibleSuggestions = 3

// Input placeholders per mode.
const (
	PlaceholderSelecting = "Enter an option number..."
	PlaceholderFreeText  = "Enter any question..."
)

// Message is one rendered transcript entry.
type Message struct {
	Index   int           `json:"index"`
	Sender  domain.Sender `json:"sender"`
	Lines   []string      `json:"lines"`
	Pending bool          `json:"pending,omitempty"`

	// Editable marks user messages the widget offers to edit in place.
	Editable bool `json:"editable,omitempty"`

	// Visualize is set on answers that can be opened as a chart.
	Visualize bool   `json:"visualize,omitempty"`
	Link      string `json:"link,omitempty"`

	// Options are the buttons inlined under the latest bot message.
	Options []string `json:"options,omitempty"`
}

// View is the complete widget state for one session.
type View struct {
	SessionID  string      `json:"session_id"`
	Generation uint64      `json:"generation"`
	Node       string      `json:"node"`
	Mode       domain.Mode `json:"mode"`
	Ended      bool        `json:"ended,omitempty"`
	Messages   []Message   `json:"messages"`

	Suggestions     []string `json:"suggestions,omitempty"`
	MoreSuggestions []string `json:"more_suggestions,omitempty"`

	Placeholder string `json:"placeholder"`
}

// Render builds the view of s. The graph supplies the option labels of the
// current node; a nil graph renders no option buttons.
func Render(s *domain.Session, g *graph.Graph) View {
	v := View{
		SessionID:   s.ID,
		Generation:  s.Generation,
		Node:        s.CurrentNode,
		Mode:        s.Mode,
		Ended:       s.Ended,
		Messages:    make([]Message, len(s.Messages)),
		Placeholder: PlaceholderSelecting,
	}
	if s.AwaitingFreeText() {
		v.Placeholder = PlaceholderFreeText
	}

	for i, m := range s.Messages {
		v.Messages[i] = Message{
			Index:     i,
			Sender:    m.Sender,
			Lines:     Lines(m.Text),
			Pending:   m.Pending,
			Editable:  m.Sender == domain.SenderUser && m.Checkpoint != nil,
			Visualize: m.Visualize != "",
			Link:      m.Link,
		}
	}

	if last := s.LastBotIndex(); last >= 0 && last == len(s.Messages)-1 && !s.Messages[last].Pending {
		v.Messages[last].Options = options(s, g)
	}

	if n := len(s.Suggestions); n > 0 {
		cut := min(n, VisibleSuggestions)
		v.Suggestions = append([]string(nil), s.Suggestions[:cut]...)
		if n > cut {
			v.MoreSuggestions = append([]string(nil), s.Suggestions[cut:]...)
		}
	}
	return v
}

func options(s *domain.Session, g *graph.Graph) []string {
	if g == nil || s.AwaitingFreeText() || s.Ended {
		return nil
	}
	node, ok := g.Node(s.CurrentNode)
	if !ok || len(node.Options) == 0 {
		return nil
	}
	return node.Labels()
}

// Lines splits a message into display lines. Trailing newlines produce no empty line.
func Lines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
