package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the CityChat banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.EnvColorProfile()
	// Teal to blue, after the SCRC dashboard palette.
	lines := []struct{ text, color string }{
		{"   ____ _ _         ____ _           _   ", "#2dd4bf"},
		{"  / ___(_) |_ _   _/ ___| |__   __ _| |_ ", "#22d3ee"},
		{" | |   | | __| | | | |   | '_ \\ / _` | __|", "#38bdf8"},
		{" | |___| | |_| |_| | |___| | | | (_| | |_ ", "#60a5fa"},
		{"  \\____|_|\\__|\\__, |\\____|_| |_|\\__,_|\\__|", "#4a7bfa"},
		{"              |___/                       ", "#6366f1"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  smart-city assistant "+version).Faint())
	fmt.Fprintln(w)
}
