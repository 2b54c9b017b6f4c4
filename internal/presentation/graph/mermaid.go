package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/citychat/pkg/domain"
	cgraph "github.com/aretw0/citychat/pkg/graph"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromSession marks the nodes a session passed through (the node each
// user message was submitted at) and the node it is at now.
func OverlayFromSession(s *domain.Session) *GraphOverlay {
	o := &GraphOverlay{CurrentNode: s.CurrentNode}
	for _, m := range s.Messages {
		if m.Checkpoint != nil {
			o.VisitedNodes = append(o.VisitedNodes, m.Checkpoint.Node)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of g.
// It applies semantic styling:
// - Root: ((Circle))
// - Free-text input: [/Parallelogram/]
// - Terminal: ([Stadium])
// - Default: [Rectangle]
//
// Options sharing a target are drawn as one edge labelled with every option.
// Options that fetch sensor data use a thick arrow; free-text follow-ups a
// dotted one. Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(g *cgraph.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		switch {
		case node.Name == g.Root():
			opener, closer = "((", "))"
		case node.Terminal:
			opener, closer = "([", "])"
		case node.InputExpected:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, node.Name, closer)

		for _, e := range edges(node) {
			arrow := "-->"
			if e.fetch {
				arrow = "==>"
			}
			label := strings.ReplaceAll(strings.Join(e.labels, ", "), "\"", "'")
			fmt.Fprintf(&sb, "    %s %s|\"%s\"| %s\n", safeID, arrow, label, sanitizeMermaidID(e.to))
		}

		if node.Next != "" {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", safeID, sanitizeMermaidID(node.Next))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && g.Has(id) {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

type edge struct {
	to     string
	fetch  bool
	labels []string
}

// edges groups the options of node by target, keeping declaration order.
func edges(node domain.Node) []edge {
	var out []edge
	index := make(map[[2]string]int)
	for _, o := range node.Options {
		key := [2]string{o.Next, fmt.Sprint(o.Terminal)}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, edge{to: o.Next, fetch: o.Terminal})
		}
		out[i].labels = append(out[i].labels, o.Label)
	}
	return out
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
