package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/internal/config"
	pgraph "github.com/aretw0/citychat/internal/presentation/graph"
	"github.com/aretw0/citychat/pkg/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation tree",
	Long: `Outputs the conversation tree as a Mermaid diagram (graph TD), or as YAML/JSON
in the format accepted by --graph.

With --session the diagram highlights the nodes that session went through
and the node it is waiting at.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		format, _ := cmd.Flags().GetString("format")
		sessionID, _ := cmd.Flags().GetString("session")

		if err := runGraph(cmd.Context(), cmd.OutOrStdout(), cfg, format, sessionID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid, yaml or json")
	graphCmd.Flags().StringP("session", "s", "", "Overlay the path taken by this session (mermaid only)")
}

func runGraph(ctx context.Context, w io.Writer, cfg *config.Config, format, sessionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch format {
	case "yaml", "json":
		if sessionID != "" {
			return fmt.Errorf("--session only applies to mermaid output")
		}
		g, err := cli.LoadGraph(cfg.Graph.Path)
		if err != nil {
			return err
		}
		if format == "yaml" {
			return graph.WriteYAML(w, g)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"root": g.Root(), "nodes": g.Nodes()})
	case "mermaid":
	default:
		return fmt.Errorf("unknown format %q, supported: mermaid, yaml, json", format)
	}

	if sessionID == "" {
		g, err := cli.LoadGraph(cfg.Graph.Path)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, pgraph.GenerateMermaid(g, nil))
		return err
	}

	// The overlay needs the stored session, so wire the full engine.
	comps, err := cli.Build(ctx, cfg, cli.CreateLogger(cfg, true))
	if err != nil {
		return err
	}
	defer comps.Close()

	s, err := comps.Engine.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}
	_, err = io.WriteString(w, pgraph.GenerateMermaid(comps.Engine.Graph(), pgraph.OverlayFromSession(s)))
	return err
}
