package runner

import (
	"context"

	"github.com/aretw0/citychat/pkg/view"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a conversation update. fresh holds the messages the
	// user has not seen yet; v is the whole widget state after the update.
	Output(ctx context.Context, v view.View, fresh []view.Message) error

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (command results,
	// errors, status updates). This is distinct from chat content.
	SystemOutput(ctx context.Context, msg string) error
}
