package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of citychat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "citychat version %s\n", strings.TrimSpace(citychat.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
