package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/cli"
	"github.com/aretw0/citychat/internal/config"
	httpAdapter "github.com/aretw0/citychat/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat widget and its API",
	Long: `Starts the HTTP server hosting the embeddable widget at /widget, the session API,
live updates over SSE and WebSocket, and Prometheus metrics at /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		if err := runServe(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}

func runServe(cfg *config.Config) error {
	logger := cli.CreateLogger(cfg, false)

	sigCtx := cli.NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	streams := httpAdapter.NewStreamManager(logger)
	comps, err := cli.Build(sigCtx, cfg, logger, citychat.WithLifecycleHooks(streams.ProgressHooks()))
	if err != nil {
		return err
	}
	defer comps.Close()

	handler := httpAdapter.NewHandler(comps.Engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithObserver(comps.Metrics),
		httpAdapter.WithMetricsHandler(comps.Metrics.Handler()),
		httpAdapter.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		httpAdapter.WithMaxInputSize(cfg.Input.MaxSize),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting CityChat server", "addr", srv.Addr, "store", cfg.Session.Store)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-sigCtx.Done():
		logger.Info("Start shutdown", "signal", sigCtx.Signal())
	}

	// Give outstanding requests a deadline for completion.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Streams stay open until their clients leave; cut them once the deadline passes.
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, slog.Any("error", err))
		if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error killing server: %w", err)
		}
	}
	logger.Info("CityChat server stopped gracefully")
	return nil
}
