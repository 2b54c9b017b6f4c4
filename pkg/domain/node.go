package domain

// Slot names the piece of information a node collects.
//
// Selecting nodes use it to decide which session identifier an option's
// Identifier fills. Free-text nodes use it to decide how typed input is handled.
type Slot string

const (
	SlotNone     Slot = ""
	SlotBuilding Slot = "building"
	SlotVertical Slot = "vertical"
	SlotFloor    Slot = "floor"
	SlotNodeID   Slot = "node_id"
	SlotQuestion Slot = "question"
	SlotLocation Slot = "location"
)

// IsIdentifier reports whether the slot is filled by menu selection.
func (s Slot) IsIdentifier() bool {
	return s == SlotBuilding || s == SlotVertical || s == SlotFloor
}

// IsFreeText reports whether the slot is filled by typed input.
func (s Slot) IsFreeText() bool {
	return s == SlotNodeID || s == SlotQuestion || s == SlotLocation
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s == SlotNone || s.IsIdentifier() || s.IsFreeText()
}

// Accumulator selects the reduction applied when aggregating sensor readings.
type Accumulator string

const (
	AccumulatorNone Accumulator = ""
	AccumulatorAvg  Accumulator = "avg"
	AccumulatorMax  Accumulator = "max"
	AccumulatorMin  Accumulator = "min"
	AccumulatorMode Accumulator = "mode"
)

// Valid reports whether a is a known accumulator.
func (a Accumulator) Valid() bool {
	switch a {
	case AccumulatorNone, AccumulatorAvg, AccumulatorMax, AccumulatorMin, AccumulatorMode:
		return true
	}
	return false
}

// Node represents a logical unit in the conversation tree.
type Node struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Message string `json:"message" yaml:"message" mapstructure:"message"`

	// Options are the selectable entries of a menu node.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`

	// InputExpected marks a node that accepts typed input instead of a selection.
	InputExpected bool `json:"input_expected,omitempty" yaml:"input_expected,omitempty" mapstructure:"input_expected"`

	// Expects tags what this node collects. See Slot.
	Expects Slot `json:"expects,omitempty" yaml:"expects,omitempty" mapstructure:"expects"`

	// Next is the follow-up of a free-text node, or the restart point of a terminal node.
	Next string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`

	RecommendedQuestions []string `json:"recommended_questions,omitempty" yaml:"recommended_questions,omitempty" mapstructure:"recommended_questions"`

	// Terminal nodes end the conversation.
	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty" mapstructure:"terminal"`
}

// Option returns the option whose label equals label exactly.
func (n *Node) Option(label string) (Option, bool) {
	for _, o := range n.Options {
		if o.Label == label {
			return o, true
		}
	}
	return Option{}, false
}

// Labels returns the option labels in declaration order.
func (n *Node) Labels() []string {
	labels := make([]string, len(n.Options))
	for i, o := range n.Options {
		labels[i] = o.Label
	}
	return labels
}

// Option is a selectable menu entry.
type Option struct {
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Next  string `json:"next" yaml:"next" mapstructure:"next"`

	// Identifier is merged into the session slot named by the owning node's Expects.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty" mapstructure:"identifier"`

	Accumulator Accumulator `json:"accumulator,omitempty" yaml:"accumulator,omitempty" mapstructure:"accumulator"`

	// RequiresFreeText switches the session to free-text mode after the transition.
	RequiresFreeText bool `json:"requires_free_text,omitempty" yaml:"requires_free_text,omitempty" mapstructure:"requires_free_text"`

	// Terminal triggers a data fetch with the accumulated identifiers.
	Terminal bool `json:"terminal,omitempty" yaml:"terminal,omitempty" mapstructure:"terminal"`
}
