package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the hlg banner and version to w, coloured for the
// terminal behind w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" _     _       ", "#34d399"},
		{"| |__ | | __ _ ", "#2dd4bf"},
		{"| '_ \\| |/ _` |", "#22d3ee"},
		{"| | | | | (_| |", "#38bdf8"},
		{"|_| |_|_|\\__, |", "#60a5fa"},
		{"          |___/ ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  hierarchical language generator "+version).Faint())
	fmt.Fprintln(w)
}

// Reply styles a generated line for the chat REPL.
func Reply(w io.Writer, text string) string {
	out := termenv.NewOutput(w)
	return out.String(text).Foreground(out.Color("#a78bfa")).Bold().String()
}

// System styles an informational line.
func System(w io.Writer, format string, args ...any) string {
	out := termenv.NewOutput(w)
	return out.String(">>> " + fmt.Sprintf(format, args...)).Faint().String()
}
