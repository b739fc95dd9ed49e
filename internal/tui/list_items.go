package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"rewriter-cli/internal/model"
)

type blogItem struct {
	blog    model.Blog
	current bool
}

func (i blogItem) FilterValue() string { return i.blog.Name }
func (i blogItem) Title() string {
	name := i.blog.Name
	if name == "" {
		name = "(unnamed blog)"
	}
	if i.current {
		return name + " " + glyphBullet()
	}
	return name
}
func (i blogItem) Description() string { return i.blog.ID }

func blogItems(blogs []model.Blog, currentID string) []list.Item {
	items := make([]list.Item, 0, len(blogs))
	for _, b := range blogs {
		items = append(items, blogItem{blog: b, current: b.ID == currentID})
	}
	return items
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	// The app draws its own tabs and footer, so list chrome stays minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("blog", "blogs")
	// esc clears a filter here; quitting is the app's job.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	up := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(up, "ctrl+p")...)
	down := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(down, "ctrl+n")...)
	return l
}

func selectListItemByID(l *list.Model, id string) {
	for i, it := range l.Items() {
		if bi, ok := it.(blogItem); ok && bi.blog.ID == id {
			l.Select(i)
			return
		}
	}
}
