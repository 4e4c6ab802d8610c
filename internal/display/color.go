package display

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI codes used outside lipgloss styles.
const (
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// ColorEnabled reports whether w is a terminal that should receive color.
// NO_COLOR disables color regardless of the terminal.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
