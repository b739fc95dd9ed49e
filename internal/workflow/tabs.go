package workflow

import "strings"

type Tab string

const (
	TabSettings Tab = "settings"
	TabBlogs    Tab = "blogs"
	TabSitemap  Tab = "sitemap"
	TabArticles Tab = "articles"
	TabActivity Tab = "activity"
)

// DefaultTabs is the registration order used by the interactive program.
var DefaultTabs = []Tab{TabSettings, TabBlogs, TabSitemap, TabArticles, TabActivity}

// Tabs is a single-selection state machine: exactly one registered tab is active.
type Tabs struct {
	all    []Tab
	active Tab
}

// NewTabs registers tabs in order and activates def. If def isn't among tabs it
// is registered first.
func NewTabs(def Tab, tabs ...Tab) *Tabs {
	t := &Tabs{active: def}
	seen := map[Tab]bool{}
	if !containsTab(tabs, def) {
		t.all = append(t.all, def)
		seen[def] = true
	}
	for _, tab := range tabs {
		if seen[tab] {
			continue
		}
		seen[tab] = true
		t.all = append(t.all, tab)
	}
	return t
}

func (t *Tabs) Active() Tab { return t.active }

// All returns a copy of the registered tabs in order.
func (t *Tabs) All() []Tab { return append([]Tab(nil), t.all...) }

func (t *Tabs) Known(tab Tab) bool { return containsTab(t.all, tab) }

// Switch activates target. Unknown targets and the already-active tab leave the
// state unchanged; changed reports whether the active tab moved.
func (t *Tabs) Switch(target Tab) (changed bool) {
	target = Tab(strings.TrimPrefix(strings.TrimSpace(string(target)), "#"))
	if !t.Known(target) || target == t.active {
		return false
	}
	t.active = target
	return true
}

// Offset returns the tab delta positions away from the active one, wrapping.
func (t *Tabs) Offset(delta int) Tab {
	if len(t.all) == 0 {
		return t.active
	}
	idx := 0
	for i, tab := range t.all {
		if tab == t.active {
			idx = i
			break
		}
	}
	n := len(t.all)
	idx = ((idx+delta)%n + n) % n
	return t.all[idx]
}

// At returns the tab at 1-based position pos, or "" when out of range.
func (t *Tabs) At(pos int) Tab {
	if pos < 1 || pos > len(t.all) {
		return ""
	}
	return t.all[pos-1]
}

func containsTab(tabs []Tab, tab Tab) bool {
	for _, t := range tabs {
		if t == tab {
			return true
		}
	}
	return false
}
