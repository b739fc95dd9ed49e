package workflow

import (
	"context"
	"sync"
	"time"

	"rewriter-cli/internal/api"
	"rewriter-cli/internal/model"
)

type recordingView struct {
	mu sync.Mutex

	tab      Tab
	tabs     []Tab
	masked   bool
	blogs    []model.Blog
	blogID   string
	rows     []Row
	selected map[string]bool
	preview  string
	notes    []Notification
	removed  []string
	loading  bool
	message  string
	shows    int
	renders  int
}

func newRecordingView() *recordingView {
	return &recordingView{selected: map[string]bool{}}
}

func (v *recordingView) ShowTab(active Tab, all []Tab) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tab, v.tabs = active, all
}

func (v *recordingView) SetAPIKeyMasked(masked bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.masked = masked
}

func (v *recordingView) SetBlogs(blogs []model.Blog) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blogs = blogs
}

func (v *recordingView) SetSelectedBlog(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blogID = id
}

func (v *recordingView) RenderArticles(rows []Row) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
	v.selected = map[string]bool{}
	v.renders++
}

func (v *recordingView) UpdateRow(row Row) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.rows {
		if v.rows[i].ID == row.ID {
			v.rows[i] = row
		}
	}
}

func (v *recordingView) SetRowSelected(id string, selected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected[id] = selected
}

func (v *recordingView) ShowPreview(content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = content
}

func (v *recordingView) ShowNotification(n Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notes = append(v.notes, n)
}

func (v *recordingView) RemoveNotification(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, id)
}

func (v *recordingView) ShowLoading(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading, v.message = true, message
	v.shows++
}

func (v *recordingView) HideLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading, v.message = false, ""
}

func (v *recordingView) notesWith(sev model.Severity) []Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []Notification
	for _, n := range v.notes {
		if n.Severity == sev {
			out = append(out, n)
		}
	}
	return out
}

// manualTimers collects scheduled callbacks so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	pending []pendingTimer
}

type pendingTimer struct {
	d time.Duration
	f func()
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, pendingTimer{d: d, f: f})
	return func() bool { return false }
}

func (m *manualTimers) fireAll() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, p := range pending {
		p.f()
	}
}

type fakeBackend struct {
	mu sync.Mutex

	blogs    []model.Blog
	blogsErr error

	articles []model.Article
	fetchErr error
	fetched  []string

	rewrite   func(a model.Article) (model.Rewritten, error)
	rewritten []string

	postErr map[string]error
	posts   []api.PostRequest

	listCalls int
}

func (b *fakeBackend) ListBlogs(_ context.Context, _ string) ([]model.Blog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	return b.blogs, b.blogsErr
}

func (b *fakeBackend) FetchArticles(_ context.Context, sitemapURL string) ([]model.Article, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetched = append(b.fetched, sitemapURL)
	out := make([]model.Article, len(b.articles))
	copy(out, b.articles)
	return out, b.fetchErr
}

func (b *fakeBackend) Rewrite(_ context.Context, _ string, a model.Article) (model.Rewritten, error) {
	b.mu.Lock()
	b.rewritten = append(b.rewritten, a.ID)
	fn := b.rewrite
	b.mu.Unlock()
	if fn == nil {
		return model.Rewritten{Title: a.Title + " (new)", Content: "rewritten " + a.Content}, nil
	}
	return fn(a)
}

func (b *fakeBackend) Post(_ context.Context, req api.PostRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.postErr[req.ID]; err != nil {
		return err
	}
	b.posts = append(b.posts, req)
	return nil
}

func sampleArticles() []model.Article {
	return []model.Article{
		{ID: "1", Title: "A", Content: "x"},
		{ID: "2", Title: "B", Content: "y"},
		{ID: "3", Title: "C", Content: "z"},
	}
}

func newTestController(b *fakeBackend) (*Controller, *recordingView, *manualTimers) {
	v := newRecordingView()
	timers := &manualTimers{}
	c := New(b, v, Options{
		AfterFunc: timers.AfterFunc,
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) },
	})
	c.Start()
	return c, v, timers
}
