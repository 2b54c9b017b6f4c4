package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/pkg/sensor"
)

type fakeGateway struct {
	readings []sensor.Reading
	asked    []string
}

func (g *fakeGateway) FetchLatestReadings(context.Context) ([]sensor.Reading, error) {
	return g.readings, nil
}

func (g *fakeGateway) AskNaturalLanguage(_ context.Context, q string) string {
	g.asked = append(g.asked, q)
	return "26°C"
}

func (g *fakeGateway) PublishTable(context.Context, string) (string, error) {
	return "", nil
}

func (g *fakeGateway) FetchVisualizationData(context.Context, string) (*sensor.Visualization, error) {
	return &sensor.Visualization{
		Temporal: true,
		Series: []sensor.Series{{
			Parameter: "temperature",
			Points:    []sensor.Point{{Node: "WE-TH01-00", Label: "10:00", Value: 25}},
		}},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{readings: []sensor.Reading{
		sensor.NewReading("node_id", "WE-TH01-00", "temperature", "24 C"),
		sensor.NewReading("node_id", "WE-TH02-00", "temperature", "26 C"),
		sensor.NewReading("node_id", "AQ-VN00-00", "pm25", "12"),
	}}
	eng, err := citychat.New(citychat.WithGateway(gw))
	require.NoError(t, err)
	return NewServer(eng), gw
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestChatTools(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	start, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1"})
	require.NoError(t, err)
	assert.Equal(t, "Root", start.View.Node)
	require.Len(t, start.Fresh, 1)

	sent, err := s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1", "text": "4"})
	require.NoError(t, err)
	assert.Equal(t, "ConversationalModeOptions", sent.View.Node)
	require.Len(t, sent.Fresh, 2)
	assert.Equal(t, 1, sent.Fresh[0].Index)

	edited, err := s.handleEdit(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1", "index": float64(1), "text": "2"})
	require.NoError(t, err)
	require.Len(t, edited.Fresh, 2)
	assert.Equal(t, []string{"2"}, edited.Fresh[0].Lines)
	assert.Contains(t, edited.Fresh[1].Lines[0], "You chose Vertical Specific Data.")

	restarted, err := s.handleRestart(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1"})
	require.NoError(t, err)
	assert.Len(t, restarted.View.Messages, 1)
	assert.Len(t, restarted.Fresh, 1)

	_, err = s.handleEdit(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1", "index": float64(0), "text": "2"})
	assert.ErrorContains(t, err, "message is not editable")

	_, err = s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1", "text": ""})
	assert.ErrorContains(t, err, "empty input")
}

func TestChartTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	for _, in := range []string{"4", "1", "Show the temperature over the last day"} {
		_, err := s.handleSend(ctx, mcp.CallToolRequest{}, map[string]interface{}{"session_id": "m1", "text": in})
		require.NoError(t, err)
	}

	res, err := s.handleChart(ctx, call(map[string]any{"session_id": "m1", "index": float64(6)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	var chart map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &chart))
	assert.Equal(t, "line", chart["type"])

	res, err = s.handleChart(ctx, call(map[string]any{"session_id": "m1", "index": float64(0)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSensorReadingsTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleReadings(ctx, call(map[string]any{"vertical": "WE", "accumulator": "max"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out struct {
		Criteria  []string         `json:"criteria"`
		Readings  []map[string]any `json:"readings"`
		Aggregate map[string]any   `json:"aggregate"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, []string{"Vertical - WE"}, out.Criteria)
	assert.Len(t, out.Readings, 2)
	assert.Equal(t, "26 C", out.Aggregate["temperature"])

	res, err = s.handleReadings(ctx, call(map[string]any{"building": "NI"}))
	require.NoError(t, err)
	assert.Equal(t, "No data found for the identifiers: Building - NI", text(t, res))

	res, err = s.handleReadings(ctx, call(map[string]any{"accumulator": "median"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAskQuestionTool(t *testing.T) {
	s, gw := newTestServer(t)

	res, err := s.handleAsk(context.Background(), call(map[string]any{"question": "How warm is T-Hub?"}))
	require.NoError(t, err)
	assert.Equal(t, "26°C", text(t, res))
	assert.Equal(t, []string{"How warm is T-Hub?"}, gw.asked)

	res, err = s.handleAsk(context.Background(), call(map[string]any{"question": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGraphJSON(t *testing.T) {
	s, _ := newTestServer(t)

	raw, err := s.graphJSON()
	require.NoError(t, err)
	var g struct {
		Root  string           `json:"root"`
		Nodes []map[string]any `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(raw, &g))
	assert.Equal(t, "Root", g.Root)
	assert.NotEmpty(t, g.Nodes)
}

func TestIntArg(t *testing.T) {
	n, ok := intArg(map[string]interface{}{"i": float64(3)}, "i")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = intArg(map[string]interface{}{"i": 2.5}, "i")
	assert.False(t, ok)

	_, ok = intArg(map[string]interface{}{}, "i")
	assert.False(t, ok)
}
