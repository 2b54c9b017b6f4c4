package dsl

import "github.com/aretw0/citychat/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

// OptionFunc customizes an option added with NodeBuilder.Option.
type OptionFunc func(*domain.Option)

// Identifier tags the option with a building, vertical or floor code.
func Identifier(id string) OptionFunc {
	return func(o *domain.Option) { o.Identifier = id }
}

// Accumulate tags the option with an aggregation method.
func Accumulate(a domain.Accumulator) OptionFunc {
	return func(o *domain.Option) { o.Accumulator = a }
}

// FreeText switches the session to typed input after the option is picked.
func FreeText() OptionFunc {
	return func(o *domain.Option) { o.RequiresFreeText = true }
}

// Fetch makes the option query sensor data with the accumulated identifiers.
func Fetch() OptionFunc {
	return func(o *domain.Option) { o.Terminal = true }
}

// Say sets the prompt of the node.
func (n *NodeBuilder) Say(message string) *NodeBuilder {
	n.node.Message = message
	return n
}

// Expects tags what the node collects.
func (n *NodeBuilder) Expects(slot domain.Slot) *NodeBuilder {
	n.node.Expects = slot
	return n
}

// Input marks the node as a free-text prompt collecting slot, continuing at next.
func (n *NodeBuilder) Input(slot domain.Slot, next string) *NodeBuilder {
	n.node.InputExpected = true
	n.node.Expects = slot
	n.node.Next = next
	return n
}

// Option appends a selectable entry leading to next.
func (n *NodeBuilder) Option(label, next string, fns ...OptionFunc) *NodeBuilder {
	o := domain.Option{Label: label, Next: next}
	for _, fn := range fns {
		fn(&o)
	}
	n.node.Options = append(n.node.Options, o)
	return n
}

// Recommend adds recommended questions shown as shortcuts.
func (n *NodeBuilder) Recommend(questions ...string) *NodeBuilder {
	n.node.RecommendedQuestions = append(n.node.RecommendedQuestions, questions...)
	return n
}

// Terminal marks the node as the end of the conversation.
// A later submission restarts at restart.
func (n *NodeBuilder) Terminal(restart string) *NodeBuilder {
	n.node.Terminal = true
	n.node.Next = restart
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
