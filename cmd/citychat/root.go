package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "citychat",
	Short: "CityChat is a guided chat over smart-city sensor data",
	Long: `CityChat walks visitors through a menu of buildings, verticals and sensor nodes,
answers free-text questions about the campus and charts the readings it finds.

Run it without a subcommand to chat in the terminal.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("graph", "", "Path to a YAML conversation tree (default: built-in menu)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig resolves the configuration from the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	graphPath, _ := cmd.Flags().GetString("graph")
	level, _ := cmd.Flags().GetString("log-level")
	return cli.LoadConfig(path, graphPath, level)
}
