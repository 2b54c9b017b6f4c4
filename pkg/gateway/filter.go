package gateway

import (
	"fmt"
	"strings"

	"github.com/aretw0/citychat/pkg/sensor"
)

// Criteria are the identifiers readings are filtered by. Empty fields do not filter.
type Criteria struct {
	BuildingID string
	VerticalID string
	FloorID    string
	NodeID     string
}

// Labels returns the non-empty criteria as "Building - VN" style labels.
func (c Criteria) Labels() []string {
	var out []string
	for _, kv := range [][2]string{
		{"Building", c.BuildingID},
		{"Vertical", c.VerticalID},
		{"Floor", c.FloorID},
		{"Node", c.NodeID},
	} {
		if kv[1] != "" {
			out = append(out, kv[0]+" - "+kv[1])
		}
	}
	return out
}

// Header returns the non-node criteria as markdown table header lines.
func (c Criteria) Header() []string {
	var out []string
	if c.BuildingID != "" {
		out = append(out, "Building: "+c.BuildingID)
	}
	if c.VerticalID != "" {
		out = append(out, "Vertical: "+c.VerticalID)
	}
	if c.FloorID != "" {
		out = append(out, "Floor: "+c.FloorID)
	}
	return out
}

// NoDataMessage is the chat text reported when the criteria match nothing.
func (c Criteria) NoDataMessage() string {
	return "No data found for the identifiers: " + strings.Join(c.Labels(), ", ")
}

// FilterResult is the outcome of FilterReadings.
type FilterResult struct {
	Readings []sensor.Reading

	// Notice is set when the node ID was replaced by its closest known match.
	Notice string

	// Substitute is the node ID used instead of the requested one.
	Substitute string
}

// FilterReadings narrows all by the criteria.
//
// A vertical matches a node_id that starts with it or whose first four
// characters contain it. Buildings and floors match anywhere in node_id. A node
// ID must match exactly; when it does not, the closest known node_id by edit
// distance is used instead and Notice explains the substitution.
func FilterReadings(all []sensor.Reading, c Criteria) FilterResult {
	out := all
	if c.VerticalID != "" {
		out = keep(out, func(id string) bool {
			return strings.HasPrefix(id, c.VerticalID) || strings.Contains(prefix(id, 4), c.VerticalID)
		})
	}
	if c.BuildingID != "" {
		out = keep(out, func(id string) bool { return strings.Contains(id, c.BuildingID) })
	}
	if c.FloorID != "" {
		out = keep(out, func(id string) bool { return strings.Contains(id, c.FloorID) })
	}
	if c.NodeID == "" {
		return FilterResult{Readings: out}
	}

	exact := keep(out, func(id string) bool { return id == c.NodeID })
	if len(exact) > 0 || len(all) == 0 {
		return FilterResult{Readings: exact}
	}

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.NodeID()
	}
	closest, _ := sensor.Closest(c.NodeID, ids)
	return FilterResult{
		Readings:   keep(all, func(id string) bool { return id == closest }),
		Notice:     fmt.Sprintf("No data found for the node %s. One of the closest match is %s", c.NodeID, closest),
		Substitute: closest,
	}
}

func keep(in []sensor.Reading, fn func(id string) bool) []sensor.Reading {
	var out []sensor.Reading
	for _, r := range in {
		if fn(r.NodeID()) {
			out = append(out, r)
		}
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
