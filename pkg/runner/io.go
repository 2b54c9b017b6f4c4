package runner

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isInteractive reports whether r is a terminal. Prompts are only drawn for
// terminals so piped transcripts stay clean.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
