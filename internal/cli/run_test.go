package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/config"
	"github.com/aretw0/citychat/pkg/domain"
)

func send(t *testing.T, eng *citychat.Engine, id string, inputs ...string) *domain.Session {
	t.Helper()
	var s *domain.Session
	for _, in := range inputs {
		var err error
		s, err = eng.Send(context.Background(), id, in)
		require.NoError(t, err, "sending %q", in)
	}
	return s
}

func TestExecute_JSON(t *testing.T) {
	t.Setenv(config.EnvBaseURL, backend(t).URL)

	var out bytes.Buffer
	err := Execute(RunOptions{
		JSON:   true,
		Input:  strings.NewReader("4\n1\nHow warm is T-Hub?\n"),
		Output: &out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[3], "It is 26°C at T-Hub.")
	assert.NotContains(t, out.String(), "smart-city assistant", "no banner in JSON mode")
}

func TestExecute_Text(t *testing.T) {
	t.Setenv(config.EnvBaseURL, backend(t).URL)

	var out bytes.Buffer
	err := Execute(RunOptions{
		SessionID: "term",
		Input:     strings.NewReader("exit\n"),
		Output:    &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "smart-city assistant "+citychat.Version)
	assert.Contains(t, out.String(), ">>> Session 'term' active.")
	assert.Contains(t, out.String(), "how can I help you?")
}

func TestExecute_BadConfig(t *testing.T) {
	err := Execute(RunOptions{LogLevel: "chatty", Input: strings.NewReader(""), Output: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "logging.level")
}
