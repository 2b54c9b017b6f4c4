package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes CityChat conversations and the sensor gateway as MCP tools, so AI
agents can walk the menu, ask questions and read sensor values.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := cli.CreateLogger(cfg, false)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		comps, err := cli.Build(sigCtx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer comps.Close()

		srv := mcp.NewServer(comps.Engine, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting CityChat MCP Server (Stdio)")
			err = srv.ServeStdio()
		case "sse":
			logger.Info("Starting CityChat MCP Server (SSE)", "port", port)
			err = srv.ServeSSE(sigCtx, port)
		default:
			err = fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}

		// Ignore server closed error if it was caused by the interrupt.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("MCP Server execution failed", "error", err)
			comps.Close()
			os.Exit(1)
		}
		logger.Info("MCP Server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
