package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Chat in the terminal",
	Long: `Starts an interactive conversation on stdin/stdout.

Headless mode drops the banner and styling so the chat can be scripted;
--json reads and writes one JSON object per line.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		graphPath, _ := cmd.Flags().GetString("graph")
		logLevel, _ := cmd.Flags().GetString("log-level")
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		fresh, _ := cmd.Flags().GetBool("fresh")

		err := cli.Execute(cli.RunOptions{
			ConfigPath: configPath,
			GraphPath:  graphPath,
			LogLevel:   logLevel,
			SessionID:  sessionID,
			Headless:   headless,
			JSON:       jsonMode,
			Fresh:      fresh,
			Input:      cmd.InOrStdin(),
			Output:     cmd.OutOrStdout(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, c := range []*cobra.Command{runCmd, rootCmd} {
		c.Flags().StringP("session", "s", "", "Session ID to resume (default: a new anonymous session)")
		c.Flags().Bool("headless", false, "Plain output without banner or styling")
		c.Flags().Bool("json", false, "Line-delimited JSON input and output")
		c.Flags().Bool("fresh", false, "Discard the stored session before starting")
	}

	// Chatting is what the binary is for: run it when no subcommand is given.
	rootCmd.Run = runCmd.Run
}
