package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/pkg/runner"
	"github.com/aretw0/citychat/pkg/sensor"
)

type fakeGateway struct{}

func (fakeGateway) FetchLatestReadings(context.Context) ([]sensor.Reading, error) {
	return nil, nil
}

func (fakeGateway) AskNaturalLanguage(context.Context, string) string {
	return "26°C"
}

func (fakeGateway) PublishTable(context.Context, string) (string, error) {
	return "", nil
}

func (fakeGateway) FetchVisualizationData(context.Context, string) (*sensor.Visualization, error) {
	return &sensor.Visualization{
		Temporal: true,
		Series: []sensor.Series{{
			Parameter: "temperature",
			Points: []sensor.Point{
				{Node: "WE-TH01-00", Label: "10:00", Value: 25},
				{Node: "WE-TH01-00", Label: "11:00", Value: 26.5},
			},
		}},
	}, nil
}

func newEngine(t *testing.T) *citychat.Engine {
	t.Helper()
	eng, err := citychat.New(citychat.WithGateway(fakeGateway{}))
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, eng *citychat.Engine, input string, opts ...runner.Option) string {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]runner.Option{
		runner.WithIO(strings.NewReader(input), out),
		runner.WithSessionID("cli"),
	}, opts...)
	require.NoError(t, runner.NewRunner(opts...).Run(context.Background(), eng))
	return out.String()
}

func TestRunner_Conversation(t *testing.T) {
	eng := newEngine(t)
	out := run(t, eng, "4\n1\nHow warm is T-Hub?\nexit\n")

	assert.Contains(t, out, "Hey 👋, how can I help you?")
	assert.Contains(t, out, "You chose Ask a Question.")
	assert.Contains(t, out, "Please enter your question:")
	assert.Contains(t, out, "Try asking:")
	assert.Contains(t, out, "26°C")
	assert.Contains(t, out, "Would you like to:")
	// User lines are not echoed back.
	assert.NotContains(t, out, "How warm is T-Hub?")

	s, err := eng.Session(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s.Generation)
}

func TestRunner_EOFEndsQuietly(t *testing.T) {
	out := run(t, newEngine(t), "")
	assert.Contains(t, out, "Hey 👋")
}

func TestRunner_BlankLinesAreSkipped(t *testing.T) {
	eng := newEngine(t)
	run(t, eng, "\n   \n")

	s, err := eng.Session(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), s.Generation)
}

func TestRunner_InvalidOption(t *testing.T) {
	out := run(t, newEngine(t), "9\n")
	assert.Contains(t, out, "Error: Invalid option selected")
	assert.Equal(t, 2, strings.Count(out, "Hey 👋"), "the prompt is repeated after the error")
}

func TestRunner_Commands(t *testing.T) {
	eng := newEngine(t)
	out := run(t, eng, strings.Join([]string{
		"4", "1", "Show the temperature over the last day",
		"/chart 6",
		"/chart 0",
		"/edit 1 2",
		"/edit x",
		"/help",
		"/restart",
		"quit",
	}, "\n")+"\n")

	assert.Contains(t, out, "(chart available: /chart 6)")
	assert.Contains(t, out, "[System] line chart of temperature (2 points on Time)")
	assert.Contains(t, out, "Node WE-TH01-00: 11:00 = 26.5")
	assert.Contains(t, out, "[System] Chart unavailable: message has nothing to chart")
	assert.Contains(t, out, "You chose Vertical Specific Data.")
	assert.Contains(t, out, "[System] unknown or malformed command: /edit x")
	assert.Contains(t, out, "/restart              start the conversation over")

	s, err := eng.Session(context.Background(), "cli")
	require.NoError(t, err)
	assert.Len(t, s.Messages, 1, "restart leaves only the greeting")
}

func TestRunner_EditRejected(t *testing.T) {
	out := run(t, newEngine(t), "/edit 0 hello\n")
	assert.Contains(t, out, "[System] message is not editable")
}

func TestRunner_InputTooLarge(t *testing.T) {
	eng := newEngine(t)
	out := run(t, eng, "12345678\n4\n", runner.WithMaxInputSize(4))

	assert.Contains(t, out, "input exceeds maximum allowed size")
	assert.Contains(t, out, "You chose Ask a Question.")
}

func TestRunner_Renderer(t *testing.T) {
	out := run(t, newEngine(t), "", runner.WithRenderer(func(s string) (string, error) {
		return "<<" + s + ">>", nil
	}))
	assert.Contains(t, out, "<<Hey 👋")
}

func TestRunner_Headless(t *testing.T) {
	out := run(t, newEngine(t), "\"4\"\n/bogus\n", runner.WithHeadless(true))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var first runner.Frame
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, runner.FrameUpdate, first.Type)
	require.NotNil(t, first.View)
	assert.Equal(t, "Root", first.View.Node)
	assert.Equal(t, []string{"1", "2", "3", "4"}, first.View.Messages[0].Options)

	var second runner.Frame
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ConversationalModeOptions", second.View.Node)
	require.Len(t, second.Fresh, 2)
	assert.Equal(t, "4", second.Fresh[0].Lines[0])

	// Unknown slash words are ordinary chat input.
	var third runner.Frame
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Contains(t, third.Fresh[1].Lines, "Error: Invalid option selected")
}
