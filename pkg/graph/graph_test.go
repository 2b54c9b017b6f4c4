package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/domain"
)

func validNodes() []domain.Node {
	return []domain.Node{
		{Name: "root", Message: "menu", Expects: domain.SlotVertical, Options: []domain.Option{
			{Label: "1", Next: "end", Identifier: "AQ", Terminal: true},
			{Label: "2", Next: "ask", RequiresFreeText: true},
		}},
		{Name: "ask", Message: "question?", InputExpected: true, Expects: domain.SlotQuestion, Next: "root"},
		{Name: "end", Message: "bye", Terminal: true, Next: "root"},
	}
}

func TestNew_Valid(t *testing.T) {
	g, err := New("root", validNodes()...)
	require.NoError(t, err)
	assert.Equal(t, "root", g.Root())
	assert.Equal(t, 3, g.Len())
	assert.Empty(t, g.Unreachable())

	n, ok := g.Node("root")
	require.True(t, ok)
	n.Options[0].Next = "mutated"
	again, _ := g.Node("root")
	assert.Equal(t, "end", again.Options[0].Next, "graph is immutable")
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		mutate func([]domain.Node) []domain.Node
		want   string
	}{
		{"Missing Root", "nope", nil, `root node "nope" not found`},
		{"Dangling Option", "root", func(n []domain.Node) []domain.Node {
			n[0].Options[0].Next = "FinalNode"
			return n
		}, `options[0].next: target "FinalNode" not found`},
		{"Dangling Next", "root", func(n []domain.Node) []domain.Node {
			n[1].Next = "gone"
			return n
		}, `next: target "gone" not found`},
		{"No Terminal", "root", func(n []domain.Node) []domain.Node {
			n[2].Terminal = false
			return n
		}, "graph has no terminal node"},
		{"Duplicate Label", "root", func(n []domain.Node) []domain.Node {
			n[0].Options[1].Label = "1"
			return n
		}, `duplicate label "1"`},
		{"Unknown Slot", "root", func(n []domain.Node) []domain.Node {
			n[0].Expects = "planet"
			return n
		}, `unknown slot "planet"`},
		{"Input Without Free Text Slot", "root", func(n []domain.Node) []domain.Node {
			n[1].Expects = domain.SlotBuilding
			return n
		}, "input node must expect"},
		{"Duplicate Node", "root", func(n []domain.Node) []domain.Node {
			return append(n, domain.Node{Name: "end", Terminal: true})
		}, "duplicate node"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := validNodes()
			if tt.mutate != nil {
				nodes = tt.mutate(nodes)
			}
			_, err := New(tt.root, nodes...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NotEmpty(t, ValidationErrors(err))
		})
	}
}

func TestUnreachable(t *testing.T) {
	nodes := append(validNodes(), domain.Node{Name: "island", Message: "alone"})
	g, err := New("root", nodes...)
	require.NoError(t, err)
	assert.Equal(t, []string{"island"}, g.Unreachable())
}

func TestLoadYAML(t *testing.T) {
	src := `
root: root
nodes:
  - name: root
    message: "menu"
    expects: vertical
    options:
      - {label: 1, next: end, identifier: AQ, accumulator: avg, terminal: true}
  - name: end
    message: "bye"
    terminal: true
    next: root
`
	g, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)

	root, _ := g.Node("root")
	require.Len(t, root.Options, 1)
	assert.Equal(t, "1", root.Options[0].Label)
	assert.Equal(t, domain.AccumulatorAvg, root.Options[0].Accumulator)
	assert.Equal(t, domain.SlotVertical, root.Expects)
}

func TestLoadYAML_Errors(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("root: [unclosed"))
	assert.Error(t, err)

	_, err = LoadYAML(strings.NewReader("root: a\nnodes:\n  - name: a\n    mesage: typo\n    terminal: true\n"))
	assert.ErrorContains(t, err, "mesage")

	_, err = LoadYAML(strings.NewReader("nodes: []\n"))
	assert.ErrorContains(t, err, "missing root")
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	g, err := New("root", validNodes()...)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, g))

	loaded, err := LoadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), loaded.Nodes())
}
