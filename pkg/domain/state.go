package domain

import (
	"slices"
	"time"
)

// Mode defines whether the session expects a menu selection or typed input.
type Mode string

const (
	ModeSelecting Mode = "selecting"
	ModeFreeText  Mode = "free_text"
)

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Identifiers are the filter values accumulated by menu selections.
type Identifiers struct {
	BuildingID  string      `json:"building_id,omitempty"`
	VerticalID  string      `json:"vertical_id,omitempty"`
	FloorID     string      `json:"floor_id,omitempty"`
	Accumulator Accumulator `json:"accumulator,omitempty"`
}

// Set stores value in the field named by slot. Unknown slots are ignored.
func (ids *Identifiers) Set(slot Slot, value string) {
	switch slot {
	case SlotBuilding:
		ids.BuildingID = value
	case SlotVertical:
		ids.VerticalID = value
	case SlotFloor:
		ids.FloorID = value
	}
}

// Checkpoint is the dispatch state captured when a user message was submitted.
// Editing the message restores it before replaying the input.
type Checkpoint struct {
	Node        string      `json:"node"`
	Mode        Mode        `json:"mode"`
	Identifiers Identifiers `json:"identifiers"`

	LastQuestion string `json:"last_question,omitempty"`
	Ended        bool   `json:"ended,omitempty"`
}

// Message is a transcript entry.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`

	// Pending marks the placeholder shown while a network call is in flight.
	Pending bool `json:"pending,omitempty"`

	// Visualize holds the query a chart can be built from, if any.
	Visualize string `json:"visualize,omitempty"`

	// Link is an external resource attached to the message (published data table).
	Link string `json:"link,omitempty"`

	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

// Session represents the current snapshot of one conversation.
type Session struct {
	ID          string `json:"id"`
	CurrentNode string `json:"current_node"`
	Mode        Mode   `json:"mode"`

	Identifiers

	// LastQuestion is the most recent natural-language question, used for refinements.
	LastQuestion string `json:"last_question,omitempty"`

	// Suggestions are the recommended questions of the current node.
	Suggestions []string `json:"suggestions,omitempty"`

	Messages []Message `json:"messages"`

	// Generation increases by one on every committed submission.
	Generation uint64 `json:"generation"`

	// Ended indicates the conversation reached a terminal node.
	Ended bool `json:"ended,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries the encrypted session when it is stored as an opaque envelope.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a clean session positioned at node.
func NewSession(id, node string) *Session {
	return &Session{
		ID:          id,
		CurrentNode: node,
		Mode:        ModeSelecting,
		Messages:    []Message{},
	}
}

// AwaitingFreeText reports whether the next input is typed text rather than a selection.
func (s *Session) AwaitingFreeText() bool {
	return s.Mode == ModeFreeText
}

// Checkpoint captures the dispatch state of the session.
func (s *Session) Checkpoint() Checkpoint {
	return Checkpoint{
		Node:         s.CurrentNode,
		Mode:         s.Mode,
		Identifiers:  s.Identifiers,
		LastQuestion: s.LastQuestion,
		Ended:        s.Ended,
	}
}

// Restore applies a checkpoint.
func (s *Session) Restore(cp Checkpoint) {
	s.CurrentNode = cp.Node
	s.Mode = cp.Mode
	s.Identifiers = cp.Identifiers
	s.LastQuestion = cp.LastQuestion
	s.Ended = cp.Ended
}

// ClearIdentifiers resets the accumulated filter values.
func (s *Session) ClearIdentifiers() {
	s.Identifiers = Identifiers{}
}

// LastBotIndex returns the index of the latest bot message, or -1.
func (s *Session) LastBotIndex() int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Sender == SenderBot {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Suggestions = slices.Clone(s.Suggestions)
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.Checkpoint != nil {
			cp := *m.Checkpoint
			m.Checkpoint = &cp
		}
		c.Messages[i] = m
	}
	return &c
}
