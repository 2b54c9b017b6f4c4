package sensor

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// seriesExcluded are point keys that are never plotted.
var seriesExcluded = map[string]bool{
	"node_id":    true,
	"timestamp":  true,
	"id":         true,
	"name":       true,
	"created_at": true,
}

// Point is one plotted value.
type Point struct {
	Node  string  `json:"node"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series holds every point of one parameter.
type Series struct {
	Parameter string  `json:"parameter"`
	Points    []Point `json:"points"`
}

// Visualization is the chartable data returned by the debug endpoint.
// Temporal data is labelled by timestamp, snapshot data by node.
type Visualization struct {
	Temporal bool     `json:"temporal"`
	Series   []Series `json:"series"`
}

// Parameters returns the parameter names in first-seen order.
func (v *Visualization) Parameters() []string {
	names := make([]string, len(v.Series))
	for i, s := range v.Series {
		names[i] = s.Parameter
	}
	return names
}

// Lookup returns the series of parameter.
func (v *Visualization) Lookup(parameter string) (Series, bool) {
	for _, s := range v.Series {
		if s.Parameter == parameter {
			return s, true
		}
	}
	return Series{}, false
}

func (v *Visualization) add(param string, p Point) {
	for i := range v.Series {
		if v.Series[i].Parameter == param {
			v.Series[i].Points = append(v.Series[i].Points, p)
			return
		}
	}
	v.Series = append(v.Series, Series{Parameter: param, Points: []Point{p}})
}

type debugResponse struct {
	IsTemporal bool                       `json:"is_temporal"`
	NodeData   map[string]json.RawMessage `json:"node_data"`
}

type temporalNode struct {
	FilteredData map[string]struct {
		Data []Reading `json:"data"`
	} `json:"filtered_data"`
}

// ParseVisualization decodes a debug endpoint response. Nodes and categories
// are visited in lexical order so the resulting series are deterministic.
func ParseVisualization(data []byte) (*Visualization, error) {
	var resp debugResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse visualization: %w", err)
	}

	vis := &Visualization{Temporal: resp.IsTemporal}
	for _, nodeID := range sortedKeys(resp.NodeData) {
		raw := resp.NodeData[nodeID]
		if resp.IsTemporal {
			var node temporalNode
			if err := json.Unmarshal(raw, &node); err != nil {
				continue
			}
			for _, cat := range sortedKeys(node.FilteredData) {
				vis.addPoints(nodeID, node.FilteredData[cat].Data, timeLabel)
			}
			continue
		}

		var categories map[string]json.RawMessage
		if err := json.Unmarshal(raw, &categories); err != nil {
			continue
		}
		for _, cat := range sortedKeys(categories) {
			var points []Reading
			if err := json.Unmarshal(categories[cat], &points); err != nil {
				continue
			}
			vis.addPoints(nodeID, points, nameLabel)
		}
	}
	return vis, nil
}

func (v *Visualization) addPoints(nodeID string, points []Reading, label func(string, Reading) string) {
	if len(points) == 0 {
		return
	}
	// The first point defines which parameters the category carries.
	for _, param := range points[0].Keys() {
		if seriesExcluded[param] {
			continue
		}
		for _, p := range points {
			raw, _ := p.Get(param)
			n, _, ok := ParseValue(raw)
			if !ok {
				continue
			}
			v.add(param, Point{Node: nodeID, Label: label(nodeID, p), Value: n})
		}
	}
}

func timeLabel(_ string, p Reading) string {
	raw, ok := p.Get("timestamp")
	if !ok || raw == nil {
		raw, _ = p.Get("created_at")
	}
	s := FormatValue(raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.DateTime)
	}
	return s
}

func nameLabel(nodeID string, p Reading) string {
	if name, ok := p.Get("name"); ok && name != nil && FormatValue(name) != "" {
		return FormatValue(name)
	}
	return nodeID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
