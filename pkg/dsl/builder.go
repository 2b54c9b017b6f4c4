package dsl

import (
	"fmt"

	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/graph"
)

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			Name: name,
		},
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Nodes returns the declared nodes in declaration order.
func (b *Builder) Nodes() []domain.Node {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, name := range b.order {
		nodes = append(nodes, b.nodes[name].Build())
	}
	return nodes
}

// Build compiles and validates the graph rooted at root.
func (b *Builder) Build(root string) (*graph.Graph, error) {
	g, err := graph.New(root, b.Nodes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
