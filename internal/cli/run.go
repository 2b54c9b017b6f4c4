package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/citychat"
	"github.com/aretw0/citychat/internal/presentation/tui"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/runner"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ConfigPath string
	GraphPath  string
	LogLevel   string
	SessionID  string
	Headless   bool
	JSON       bool
	Fresh      bool

	Input  io.Reader
	Output io.Writer
}

// Execute runs a terminal chat session until the user leaves.
func Execute(opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	quiet := opts.JSON || opts.Headless

	cfg, err := LoadConfig(opts.ConfigPath, opts.GraphPath, opts.LogLevel)
	if err != nil {
		return err
	}
	logger := CreateLogger(cfg, true)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	comps, err := Build(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	if opts.Fresh && opts.SessionID != "" {
		if err := comps.Engine.End(sigCtx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}
	if opts.SessionID != "" && !quiet {
		logSessionStatus(sigCtx, opts.Output, comps.Engine, opts.SessionID)
	}

	if !quiet {
		tui.PrintBanner(opts.Output, citychat.Version)
	}

	r := runner.NewRunner(createRunnerOptions(opts, cfg.Input.MaxSize)...)
	err = r.Run(sigCtx, comps.Engine)

	if !quiet {
		if sig := sigCtx.Signal(); sig != nil {
			fmt.Fprintln(opts.Output)
			printSystemMessage(opts.Output, "Interrupted.")
		}
	}
	return handleExecutionError(err)
}

func logSessionStatus(ctx context.Context, w io.Writer, eng *citychat.Engine, sessionID string) {
	s, err := eng.Session(ctx, sessionID)
	switch {
	case err == nil:
		printSystemMessage(w, "Resuming session '%s' at '%s' node...", sessionID, s.CurrentNode)
	case errors.Is(err, domain.ErrSessionNotFound):
		printSystemMessage(w, "Session '%s' active.", sessionID)
	}
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(opts RunOptions, maxInput int) []runner.Option {
	ropts := []runner.Option{
		runner.WithIO(opts.Input, opts.Output),
		runner.WithSessionID(opts.SessionID),
		runner.WithHeadless(opts.Headless || opts.JSON),
		runner.WithMaxInputSize(maxInput),
	}
	if !opts.Headless && !opts.JSON {
		ropts = append(ropts, runner.WithRenderer(tui.NewRenderer()))
	}
	return ropts
}
