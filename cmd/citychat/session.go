package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored conversations",
	Long:  `List, inspect, and remove the sessions kept by the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Run: func(cmd *cobra.Command, args []string) {
		withComponents(cmd, func(ctx context.Context, comps *cli.Components) error {
			return listSessions(ctx, cmd.OutOrStdout(), comps)
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withComponents(cmd, func(ctx context.Context, comps *cli.Components) error {
			return inspectSession(ctx, cmd.OutOrStdout(), comps, args[0])
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withComponents(cmd, func(ctx context.Context, comps *cli.Components) error {
			return removeSessions(ctx, cmd.OutOrStdout(), comps, args)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// withComponents builds the engine from the persistent flags, runs fn and
// exits non-zero on failure.
func withComponents(cmd *cobra.Command, fn func(context.Context, *cli.Components) error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	comps, err := cli.Build(ctx, cfg, cli.CreateLogger(cfg, true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	err = fn(ctx, comps)
	comps.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listSessions(ctx context.Context, w io.Writer, comps *cli.Components) error {
	ids, err := comps.Engine.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No stored sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Stored Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

func inspectSession(ctx context.Context, w io.Writer, comps *cli.Components, id string) error {
	s, err := comps.Engine.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func removeSessions(ctx context.Context, w io.Writer, comps *cli.Components, ids []string) error {
	failed := 0
	for _, id := range ids {
		if err := comps.Engine.End(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d session(s) could not be removed", failed)
	}
	return nil
}
