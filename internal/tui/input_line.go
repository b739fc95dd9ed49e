package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine draws label above a single-line input filling bodyW columns.
func renderInputLine(bodyW int, label, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// A text input must stay on one visual line or typing looks like newline insertion.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Terminate styling so the background doesn't bleed past the cut.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	if label == "" {
		return line
	}
	return lipgloss.NewStyle().Bold(true).Render(label) + "\n" + line
}
