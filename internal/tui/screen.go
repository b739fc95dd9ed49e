package tui

import (
	"sync"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/workflow"
)

// screen is the view state the controller writes into. Workflow commands run
// on their own goroutines, so every access goes through mu; the bubbletea model
// reads a copy via state() when rendering.
type screen struct {
	mu sync.Mutex
	st screenState
	// dirty is set by every write and cleared by take().
	dirty bool
}

type screenState struct {
	tab      workflow.Tab
	tabs     []workflow.Tab
	masked   bool
	blogs    []model.Blog
	blogID   string
	rows     []workflow.Row
	selected map[string]bool
	preview  string
	// previewRev bumps on every ShowPreview so the pane re-renders even when content repeats.
	previewRev int
	notes      []workflow.Notification
	loading    bool
	loadingMsg string
	// rowsRev bumps on every full table rebuild.
	rowsRev int
}

var _ workflow.View = (*screen)(nil)

func newScreen() *screen {
	return &screen{st: screenState{masked: true, selected: map[string]bool{}}}
}

func (s *screen) update(fn func(st *screenState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.st)
	s.dirty = true
}

func (s *screen) ShowTab(active workflow.Tab, all []workflow.Tab) {
	s.update(func(st *screenState) { st.tab, st.tabs = active, all })
}

func (s *screen) SetAPIKeyMasked(masked bool) {
	s.update(func(st *screenState) { st.masked = masked })
}

func (s *screen) SetBlogs(blogs []model.Blog) {
	s.update(func(st *screenState) { st.blogs = blogs })
}

func (s *screen) SetSelectedBlog(id string) {
	s.update(func(st *screenState) { st.blogID = id })
}

func (s *screen) RenderArticles(rows []workflow.Row) {
	s.update(func(st *screenState) {
		st.rows = rows
		st.selected = map[string]bool{}
		st.rowsRev++
	})
}

func (s *screen) UpdateRow(row workflow.Row) {
	s.update(func(st *screenState) {
		// Copy on write: a state() snapshot may still hold the old slice.
		rows := append([]workflow.Row(nil), st.rows...)
		for i := range rows {
			if rows[i].ID == row.ID {
				rows[i] = row
			}
		}
		st.rows = rows
	})
}

func (s *screen) SetRowSelected(id string, selected bool) {
	s.update(func(st *screenState) {
		next := make(map[string]bool, len(st.selected)+1)
		for k, v := range st.selected {
			next[k] = v
		}
		if selected {
			next[id] = true
		} else {
			delete(next, id)
		}
		st.selected = next
	})
}

func (s *screen) ShowPreview(content string) {
	s.update(func(st *screenState) {
		st.preview = content
		st.previewRev++
	})
}

func (s *screen) ShowNotification(n workflow.Notification) {
	s.update(func(st *screenState) {
		st.notes = append(append([]workflow.Notification(nil), st.notes...), n)
	})
}

func (s *screen) RemoveNotification(id string) {
	s.update(func(st *screenState) {
		next := make([]workflow.Notification, 0, len(st.notes))
		for _, n := range st.notes {
			if n.ID != id {
				next = append(next, n)
			}
		}
		st.notes = next
	})
}

func (s *screen) ShowLoading(message string) {
	s.update(func(st *screenState) { st.loading, st.loadingMsg = true, message })
}

func (s *screen) HideLoading() {
	s.update(func(st *screenState) { st.loading, st.loadingMsg = false, "" })
}

// state returns the current state. Slices and maps inside are replaced, never
// mutated, so the copy is safe to read without the lock.
func (s *screen) state() screenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// take reports whether anything changed since the last call.
func (s *screen) take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}
