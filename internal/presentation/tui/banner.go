package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the startup banner for long-running commands.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	title := out.String(" ultra card ").Bold().Foreground(out.Color("#0f172a")).Background(out.Color("#38bdf8"))
	sub := out.String(" layout builder " + version).Foreground(out.Color("#a78bfa"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.String()+sub.String())
	fmt.Fprintln(w)
}

// Status returns a one-line verdict colored for w's profile.
func Status(w io.Writer, ok bool, msg string) string {
	out := termenv.NewOutput(w)
	if ok {
		return out.String("✔ " + msg).Foreground(out.Color("#22c55e")).String()
	}
	return out.String("✖ " + msg).Foreground(out.Color("#ef4444")).String()
}
