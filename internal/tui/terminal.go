package tui

import (
	"os"

	"golang.org/x/term"
)

// isInteractive reports whether stdin is a terminal. Non-interactive
// invocations skip the banner and the readline prompt niceties.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalWidth returns the terminal width, or a conservative default
// when it cannot be determined.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
