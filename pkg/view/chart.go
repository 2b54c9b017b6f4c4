package view

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/citychat/pkg/sensor"
)

// ChartType is the chart.js chart kind.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// ErrNoChartData is returned when a visualization holds nothing plottable for a query.
var ErrNoChartData = errors.New("no suitable parameter found for visualization")

// XY is one plotted point.
type XY struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Dataset is one plotted series.
type Dataset struct {
	Label           string `json:"label"`
	Data            []XY   `json:"data"`
	BorderColor     string `json:"borderColor,omitempty"`
	BackgroundColor string `json:"backgroundColor"`
	Fill            bool   `json:"fill,omitempty"`
}

// Chart is a chart definition the widget hands to chart.js.
type Chart struct {
	Type      ChartType `json:"type"`
	Query     string    `json:"query"`
	Parameter string    `json:"parameter"`
	XTitle    string    `json:"x_title"`
	Labels    []string  `json:"labels"`
	Datasets  []Dataset `json:"datasets"`
}

// BuildChart picks the parameter named by query and turns its series into a
// chart: one line per node over time for temporal data, one bar per node
// otherwise. Without a parameter in the query the first series is used.
func BuildChart(vis *sensor.Visualization, query string) (*Chart, error) {
	if vis == nil || len(vis.Series) == 0 {
		return nil, ErrNoChartData
	}

	param := vis.Series[0].Parameter
	if kind := sensor.ParameterFromQuery(query); kind != "" {
		param = sensor.MatchParameter(kind, vis.Parameters())
		if param == "" {
			return nil, fmt.Errorf("%w: no %s data for %q", ErrNoChartData, kind, query)
		}
	}
	series, _ := vis.Lookup(param)

	chart := &Chart{Query: query, Parameter: param, Labels: []string{}}
	if vis.Temporal {
		chart.Type = ChartLine
		chart.XTitle = "Time"
		chart.Labels, chart.Datasets = lines(series)
	} else {
		chart.Type = ChartBar
		chart.XTitle = "Nodes"
		chart.Datasets = []Dataset{{Label: param, BackgroundColor: rgba(0, 0.7)}}
		for _, p := range series.Points {
			chart.Labels = append(chart.Labels, p.Label)
			chart.Datasets[0].Data = append(chart.Datasets[0].Data, XY{X: p.Label, Y: p.Value})
		}
	}
	return chart, nil
}

// lines groups temporal points per node, keeping first-seen order for both
// nodes and labels.
func lines(series sensor.Series) ([]string, []Dataset) {
	labels := []string{}
	seen := map[string]bool{}
	var datasets []Dataset
	index := map[string]int{}

	for _, p := range series.Points {
		if !seen[p.Label] {
			seen[p.Label] = true
			labels = append(labels, p.Label)
		}
		i, ok := index[p.Node]
		if !ok {
			i = len(datasets)
			index[p.Node] = i
			datasets = append(datasets, Dataset{
				Label:           "Node " + p.Node,
				BorderColor:     NodeColor(p.Node, 1),
				BackgroundColor: NodeColor(p.Node, 0.1),
				Fill:            true,
			})
		}
		datasets[i].Data = append(datasets[i].Data, XY{X: p.Label, Y: p.Value})
	}
	return labels, datasets
}

var palette = [][3]int{
	{74, 123, 250},
	{255, 99, 132},
	{54, 162, 235},
	{255, 206, 86},
	{75, 192, 192},
	{153, 102, 255},
	{255, 159, 64},
}

// NodeColor maps a node ID to a stable palette colour: the number formed by its
// digits, modulo the palette size.
func NodeColor(nodeID string, alpha float64) string {
	idx := 0
	for _, r := range nodeID {
		if r >= '0' && r <= '9' {
			idx = (idx*10 + int(r-'0')) % len(palette)
		}
	}
	return rgba(idx, alpha)
}

func rgba(idx int, alpha float64) string {
	c := palette[idx]
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c[0], c[1], c[2], alpha)
}

// ChartSlot holds at most one chart per session. Replacing a chart disposes the
// previous one before the new one becomes visible.
type ChartSlot struct {
	mu      sync.Mutex
	charts  map[string]*Chart
	dispose func(sessionID string, c *Chart)
}

// NewChartSlot creates a slot. dispose, if not nil, is called synchronously
// for every chart that is replaced or cleared.
func NewChartSlot(dispose func(sessionID string, c *Chart)) *ChartSlot {
	return &ChartSlot{
		charts:  make(map[string]*Chart),
		dispose: dispose,
	}
}

// Replace installs c as the session's chart.
func (s *ChartSlot) Replace(sessionID string, c *Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(sessionID)
	s.charts[sessionID] = c
}

// Get returns the session's current chart.
func (s *ChartSlot) Get(sessionID string) (*Chart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charts[sessionID]
	return c, ok
}

// Clear disposes the session's chart, if any.
func (s *ChartSlot) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(sessionID)
}

// Len returns the number of live charts.
func (s *ChartSlot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.charts)
}

func (s *ChartSlot) release(sessionID string) {
	old, ok := s.charts[sessionID]
	if !ok {
		return
	}
	delete(s.charts, sessionID)
	if s.dispose != nil {
		s.dispose(sessionID, old)
	}
}
