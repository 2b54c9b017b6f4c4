package graph

import (
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/citychat/pkg/domain"
)

// document is the on-disk representation of a graph.
type document struct {
	Root  string        `yaml:"root" mapstructure:"root"`
	Nodes []domain.Node `yaml:"nodes" mapstructure:"nodes"`
}

// LoadYAML reads a graph definition:
//
//	root: Root
//	nodes:
//	  - name: Root
//	    message: "Pick one"
//	    expects: vertical
//	    options:
//	      - {label: "1", next: Done, identifier: WE, terminal: true}
//
// Unknown keys are rejected so typos surface as errors instead of silent defaults.
func LoadYAML(r io.Reader) (*Graph, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}

	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	if doc.Root == "" {
		return nil, &ValidationError{Reason: "missing root"}
	}
	return New(doc.Root, doc.Nodes...)
}

// WriteYAML writes g in the format read by LoadYAML.
func WriteYAML(w io.Writer, g *Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Root: g.Root(), Nodes: g.Nodes()}); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return enc.Close()
}
