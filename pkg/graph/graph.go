package graph

import (
	"fmt"

	"github.com/aretw0/citychat/pkg/domain"
)

// Graph is an immutable, validated conversation graph.
type Graph struct {
	root  string
	order []string
	nodes map[string]domain.Node
}

// New builds a graph rooted at root and validates it: the root exists, every
// option and follow-up target resolves, at least one terminal node exists,
// labels are unique per node and slot tags are known.
func New(root string, nodes ...domain.Node) (*Graph, error) {
	g := &Graph{
		root:  root,
		nodes: make(map[string]domain.Node, len(nodes)),
	}

	var errs []error
	for _, n := range nodes {
		if n.Name == "" {
			errs = append(errs, &ValidationError{Reason: "node without name"})
			continue
		}
		if _, dup := g.nodes[n.Name]; dup {
			errs = append(errs, &ValidationError{Node: n.Name, Reason: "duplicate node"})
			continue
		}
		g.nodes[n.Name] = cloneNode(n)
		g.order = append(g.order, n.Name)
	}

	errs = append(errs, g.validate()...)
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return g, nil
}

// Root returns the name of the start node.
func (g *Graph) Root() string { return g.root }

// Node returns a copy of the named node.
func (g *Graph) Node(name string) (domain.Node, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return domain.Node{}, false
	}
	return cloneNode(n), true
}

// Has reports whether the graph defines name.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Names returns node names in declaration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Nodes returns copies of all nodes in declaration order.
func (g *Graph) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, cloneNode(g.nodes[name]))
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

func (g *Graph) validate() []error {
	var errs []error

	if _, ok := g.nodes[g.root]; !ok {
		errs = append(errs, &ValidationError{Reason: fmt.Sprintf("root node %q not found", g.root)})
	}

	terminal := false
	for _, name := range g.order {
		n := g.nodes[name]
		if n.Terminal {
			terminal = true
		}
		if !n.Expects.Valid() {
			errs = append(errs, &ValidationError{Node: name, Field: "expects", Reason: fmt.Sprintf("unknown slot %q", n.Expects)})
		}
		if n.InputExpected && !n.Expects.IsFreeText() {
			errs = append(errs, &ValidationError{Node: name, Field: "expects", Reason: "input node must expect node_id, question or location"})
		}
		if n.InputExpected && n.Next == "" {
			errs = append(errs, &ValidationError{Node: name, Field: "next", Reason: "input node needs a follow-up node"})
		}
		if n.Next != "" {
			if _, ok := g.nodes[n.Next]; !ok {
				errs = append(errs, &ValidationError{Node: name, Field: "next", Reason: fmt.Sprintf("target %q not found", n.Next)})
			}
		}

		seen := make(map[string]bool, len(n.Options))
		for i, o := range n.Options {
			field := fmt.Sprintf("options[%d]", i)
			if o.Label == "" {
				errs = append(errs, &ValidationError{Node: name, Field: field + ".label", Reason: "empty label"})
			}
			if seen[o.Label] {
				errs = append(errs, &ValidationError{Node: name, Field: field + ".label", Reason: fmt.Sprintf("duplicate label %q", o.Label)})
			}
			seen[o.Label] = true
			if _, ok := g.nodes[o.Next]; !ok {
				errs = append(errs, &ValidationError{Node: name, Field: field + ".next", Reason: fmt.Sprintf("target %q not found", o.Next)})
			}
			if !o.Accumulator.Valid() {
				errs = append(errs, &ValidationError{Node: name, Field: field + ".accumulator", Reason: fmt.Sprintf("unknown accumulator %q", o.Accumulator)})
			}
		}
	}

	if !terminal {
		errs = append(errs, &ValidationError{Reason: "graph has no terminal node"})
	}
	return errs
}

// Unreachable returns the nodes that cannot be reached from the root, in declaration order.
func (g *Graph) Unreachable() []string {
	visited := map[string]bool{}
	queue := []string{g.root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		n, ok := g.nodes[name]
		if !ok {
			continue
		}
		if n.Next != "" {
			queue = append(queue, n.Next)
		}
		for _, o := range n.Options {
			queue = append(queue, o.Next)
		}
	}

	var out []string
	for _, name := range g.order {
		if !visited[name] {
			out = append(out, name)
		}
	}
	return out
}

func cloneNode(n domain.Node) domain.Node {
	n.Options = append([]domain.Option(nil), n.Options...)
	n.RecommendedQuestions = append([]string(nil), n.RecommendedQuestions...)
	return n
}
