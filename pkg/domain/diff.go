package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the widget.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNode *string `json:"current_node,omitempty"`
	Mode        *Mode   `json:"mode,omitempty"`
	Ended       *bool   `json:"ended,omitempty"`

	// Truncate is the transcript length to cut to before applying the message deltas.
	// It is set when an edit shortened the transcript.
	Truncate *int `json:"truncate,omitempty"`

	// Replaced holds messages changed in place, keyed by index.
	// The pending placeholder is replaced this way once the response arrives.
	Replaced map[int]Message `json:"replaced,omitempty"`

	// Appended holds messages added after the common prefix.
	Appended []Message `json:"appended,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new session (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: new.ID}

	if old == nil || old.CurrentNode != new.CurrentNode {
		diff.CurrentNode = &new.CurrentNode
	}
	if old == nil || old.Mode != new.Mode {
		diff.Mode = &new.Mode
	}
	if old == nil {
		if new.Ended {
			diff.Ended = &new.Ended
		}
	} else if old.Ended != new.Ended {
		diff.Ended = &new.Ended
	}
	if old == nil || !reflect.DeepEqual(old.Suggestions, new.Suggestions) {
		if len(new.Suggestions) > 0 || old != nil {
			diff.Suggestions = append([]string{}, new.Suggestions...)
		}
	}

	diffMessages(diff, old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffMessages(diff *SessionDiff, old, new *Session) {
	if old == nil {
		if len(new.Messages) > 0 {
			diff.Appended = append([]Message{}, new.Messages...)
		}
		return
	}

	oldLen, newLen := len(old.Messages), len(new.Messages)
	common := min(oldLen, newLen)

	// A user message changed means an edit rewrote the tail: cut back to it.
	for i := 0; i < common; i++ {
		if old.Messages[i].Sender == SenderUser && !reflect.DeepEqual(old.Messages[i], new.Messages[i]) {
			cut := i
			diff.Truncate = &cut
			diff.Appended = append([]Message{}, new.Messages[i:]...)
			return
		}
	}

	if newLen < oldLen {
		diff.Truncate = &newLen
	}
	for i := 0; i < common; i++ {
		if !reflect.DeepEqual(old.Messages[i], new.Messages[i]) {
			if diff.Replaced == nil {
				diff.Replaced = make(map[int]Message)
			}
			diff.Replaced[i] = new.Messages[i]
		}
	}
	if newLen > oldLen {
		diff.Appended = append([]Message{}, new.Messages[oldLen:]...)
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentNode == nil &&
		d.Mode == nil &&
		d.Ended == nil &&
		d.Truncate == nil &&
		len(d.Replaced) == 0 &&
		len(d.Appended) == 0 &&
		d.Suggestions == nil
}
