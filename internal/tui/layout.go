package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines,
// so lipgloss.JoinHorizontal lines panes up.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitCell(ln, width)
	}
	return strings.Join(lines, "\n")
}

// fitCell truncates (with an ellipsis) or pads one line to width columns.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	// Bound the work on pathological lines before measuring.
	if len(s) > 8192 {
		s = xansi.Cut(s, 0, width+1)
	}
	w := xansi.StringWidth(s)
	if w > width {
		if width == 1 {
			s = xansi.Cut(s, 0, 1)
		} else {
			s = xansi.Cut(s, 0, width-1) + "…"
		}
		w = xansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
