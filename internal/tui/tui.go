package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"rewriter-cli/internal/workflow"
)

// Run starts the full-screen control panel and blocks until the user quits.
func Run(backend workflow.Backend, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference()

	m := newAppModel(backend, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
