package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"rewriter-cli/internal/model"
)

// The TUI must stay readable on light and dark terminals: colors are adaptive
// and faint is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      = ac("240", "243")
	colorSurfaceFg  = ac("235", "252")
	colorControlBg  = ac("252", "236")
	colorInputBg    = ac("254", "234")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorAccent     = ac("27", "62")
	colorAccentFg   = ac("255", "235")
	colorBorder     = ac("250", "243")

	colorInfo    = ac("27", "75")
	colorSuccess = ac("28", "78")
	colorError   = ac("160", "203")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleTab(active bool) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1)
	if active {
		return st.Bold(true).Foreground(colorAccentFg).Background(colorAccent)
	}
	return st.Foreground(colorSurfaceFg).Background(colorControlBg)
}

func styleRow(cursor, selected bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorSurfaceFg)
	if selected {
		st = st.Bold(true)
	}
	if cursor {
		st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	return st
}

func severityColor(sev model.Severity) lipgloss.AdaptiveColor {
	switch sev {
	case model.SeveritySuccess:
		return colorSuccess
	case model.SeverityError:
		return colorError
	default:
		return colorInfo
	}
}

// styleToast is one line tall: a colored left bar and the message.
func styleToast(sev model.Severity) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(severityColor(sev)).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Padding(0, 1)
}

func styleStatus(status model.ArticleStatus) lipgloss.Style {
	st := lipgloss.NewStyle()
	switch status {
	case model.StatusPosted:
		return st.Foreground(colorSuccess).Bold(true)
	case model.StatusScheduled:
		return st.Foreground(colorAccent)
	case model.StatusRewritten:
		return st.Foreground(colorInfo)
	default:
		return faintIfDark(st.Foreground(colorMuted))
	}
}

func styleOverlay() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 3).
		Bold(true)
}

func stylePane() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder)
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
//
// termenv.EnvColorProfile honors CLICOLOR, which can disable colors in a TUI by
// accident, so only NO_COLOR is respected and TERM/COLORTERM may upgrade the
// detected profile.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) REWRITER_THEME=light|dark|auto
// 2) REWRITER_DARKBG=true|false
// 3) COLORFGBG ("fg;bg")
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("REWRITER_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("REWRITER_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return
		}
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
