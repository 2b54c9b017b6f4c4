package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/internal/config"
	"github.com/aretw0/citychat/internal/logging"
)

func writeTree(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const orphanTree = `root: Start
nodes:
  - name: Start
    message: "Pick one"
    options:
      - {label: "1", next: Done}
  - name: Done
    message: "Bye"
    terminal: true
    next: Start
  - name: Orphan
    message: "Nobody comes here"
    next: Start
`

func TestRunValidate(t *testing.T) {
	t.Run("built-in menu", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runValidate(&out, ""))
		assert.Empty(t, out.String())
	})

	t.Run("unreachable nodes are warnings", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runValidate(&out, writeTree(t, orphanTree)))
		assert.Contains(t, out.String(), `node "Orphan" is unreachable from "Start"`)
	})

	t.Run("broken tree", func(t *testing.T) {
		var out bytes.Buffer
		err := runValidate(&out, writeTree(t, "root: Start\nnodes:\n  - name: Start\n    message: hi\n    options:\n      - {label: \"1\", next: Missing}\n"))
		require.Error(t, err)
		assert.Equal(t, "2 problem(s) found", err.Error())
		assert.Contains(t, out.String(), `target "Missing" not found`)
		assert.Contains(t, out.String(), "graph has no terminal node")
	})

	t.Run("missing file", func(t *testing.T) {
		err := runValidate(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to open graph")
	})
}

func TestRunGraph(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Graph.Path = writeTree(t, orphanTree)

	var out bytes.Buffer
	require.NoError(t, runGraph(ctx, &out, cfg, "mermaid", ""))
	assert.True(t, strings.HasPrefix(out.String(), "graph TD\n"))
	assert.Contains(t, out.String(), `Start -->|"1"| Done`)

	out.Reset()
	require.NoError(t, runGraph(ctx, &out, cfg, "yaml", ""))
	assert.Contains(t, out.String(), "root: Start")

	out.Reset()
	require.NoError(t, runGraph(ctx, &out, cfg, "json", ""))
	var doc struct {
		Root  string           `json:"root"`
		Nodes []map[string]any `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "Start", doc.Root)
	assert.Len(t, doc.Nodes, 3)

	assert.ErrorContains(t, runGraph(ctx, &out, cfg, "dot", ""), "unknown format")
	assert.ErrorContains(t, runGraph(ctx, &out, cfg, "yaml", "s1"), "only applies to mermaid")
	assert.ErrorContains(t, runGraph(ctx, &out, cfg, "mermaid", "s1"), "failed to load session")
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	comps, err := cli.Build(ctx, config.Defaults(), logging.NewNop())
	require.NoError(t, err)
	defer comps.Close()

	var out bytes.Buffer
	require.NoError(t, listSessions(ctx, &out, comps))
	assert.Equal(t, "No stored sessions found.\n", out.String())

	_, err = comps.Engine.Start(ctx, "kiosk-1")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, listSessions(ctx, &out, comps))
	assert.Contains(t, out.String(), "- kiosk-1")

	out.Reset()
	require.NoError(t, inspectSession(ctx, &out, comps, "kiosk-1"))
	assert.Contains(t, out.String(), `"kiosk-1"`)

	assert.ErrorContains(t, inspectSession(ctx, &out, comps, "nope"), "error loading session 'nope'")

	out.Reset()
	require.NoError(t, removeSessions(ctx, &out, comps, []string{"kiosk-1"}))
	assert.Equal(t, "Removed session 'kiosk-1'\n", out.String())

	ids, err := comps.Engine.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "citychat version "))
}
