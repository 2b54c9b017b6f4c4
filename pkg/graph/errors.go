package graph

import (
	"errors"
	"fmt"
)

// ValidationError represents a single integrity failure of the graph.
type ValidationError struct {
	Node   string // Node name, empty for graph-wide failures
	Field  string // Offending field, e.g. "options[2].next"
	Reason string // Human-readable reason for failure
}

func (e *ValidationError) Error() string {
	switch {
	case e.Node == "":
		return e.Reason
	case e.Field == "":
		return fmt.Sprintf("node %q: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("node %q: %s: %s", e.Node, e.Field, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all validation errors if err wraps an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
