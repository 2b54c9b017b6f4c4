package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/pkg/graph"
)

var validateCmd = &cobra.Command{
	Use:   "validate [tree.yaml]",
	Short: "Check the conversation tree for consistency",
	Long: `Loads the conversation tree (the built-in menu unless a file is given) and reports
dead links, bad slots and nodes that cannot be reached from the root.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("graph")
		if len(args) > 0 {
			path = args[0]
		}
		if err := runValidate(cmd.OutOrStdout(), path); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate loads the tree at path and lists every problem on w.
// Unreachable nodes are warnings; they do not fail validation.
func runValidate(w io.Writer, path string) error {
	g, err := cli.LoadGraph(path)
	if errs := graph.ValidationErrors(err); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(w, "  ✗ %v\n", e)
		}
		return fmt.Errorf("%d problem(s) found", len(errs))
	}
	if err != nil {
		return err
	}

	for _, name := range g.Unreachable() {
		fmt.Fprintf(w, "  ! node %q is unreachable from %q\n", name, g.Root())
	}
	return nil
}
