package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab    key.Binding
	PrevTab    key.Binding
	JumpTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	ToggleKey  key.Binding
	Refresh    key.Binding
	Toggle     key.Binding
	Rewrite    key.Binding
	Schedule   key.Binding
	Unschedule key.Binding
	Post       key.Binding
	Interval   key.Binding
	Filter     key.Binding
	Export     key.Binding
	ClearLog   key.Binding
	ExportMD   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		JumpTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "jump to tab"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "ctrl+p"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "ctrl+n"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		ToggleKey: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "show/hide key"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh blogs"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "select row"),
		),
		Rewrite: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "rewrite"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "schedule"),
		),
		Unschedule: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unschedule"),
		),
		Post: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "post"),
		),
		Interval: key.NewBinding(
			key.WithKeys("+", "-"),
			key.WithHelp("+/-", "interval"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter level"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save log"),
		),
		ClearLog: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		ExportMD: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export markdown"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "preview up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "preview down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// tabKeys returns the bindings that matter on tab, for the footer.
func (k keyMap) tabKeys(tab string) []key.Binding {
	switch tab {
	case "settings":
		return []key.Binding{k.Enter, k.ToggleKey}
	case "blogs":
		return []key.Binding{k.Refresh, k.Up, k.Down, k.Enter}
	case "sitemap":
		return []key.Binding{k.Enter}
	case "articles":
		return []key.Binding{k.Toggle, k.Rewrite, k.Schedule, k.Unschedule, k.Post, k.ExportMD, k.Interval, k.ScrollDown}
	case "activity":
		return []key.Binding{k.Filter, k.Export, k.ClearLog}
	default:
		return nil
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.JumpTab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.JumpTab, k.Help, k.Quit},
		{k.Enter, k.ToggleKey, k.Refresh, k.Up, k.Down},
		{k.Toggle, k.Rewrite, k.Schedule, k.Unschedule, k.Post, k.ExportMD, k.Interval},
		{k.Filter, k.Export, k.ClearLog, k.ScrollUp, k.ScrollDown},
	}
}

// contextHelp adapts the global keymap to help.KeyMap for one tab.
type contextHelp struct {
	keys keyMap
	tab  string
}

func (c contextHelp) ShortHelp() []key.Binding {
	return append(c.keys.tabKeys(c.tab), c.keys.ShortHelp()...)
}

func (c contextHelp) FullHelp() [][]key.Binding { return c.keys.FullHelp() }
