package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"rewriter-cli/internal/api"
	"rewriter-cli/internal/model"
)

// Backend is the subset of the article API the controller drives.
type Backend interface {
	ListBlogs(ctx context.Context, apiKey string) ([]model.Blog, error)
	FetchArticles(ctx context.Context, sitemapURL string) ([]model.Article, error)
	Rewrite(ctx context.Context, apiKey string, a model.Article) (model.Rewritten, error)
	Post(ctx context.Context, req api.PostRequest) error
}

var _ Backend = (*api.Client)(nil)

const (
	DefaultSitemapURL       = "https://example.com/sitemap.xml"
	DefaultScheduleInterval = 5
	MinScheduleInterval     = 1
	MaxScheduleInterval     = 1440

	ScheduleLayout = "2006-01-02 15:04 MST"
)

// User-facing messages for local precondition failures.
const (
	msgNoAPIKey      = "Please enter your API key first"
	msgNoSitemapURL  = "Please enter a sitemap URL"
	msgBadSitemapURL = "Invalid sitemap URL: enter a full http(s) address"
	msgNoArticles    = "No articles found in sitemap"
	msgNoSelection   = "Select at least one article first"
	msgNoBlog        = "Please select a blog first"
	msgUnknownBlog   = "Unknown blog"
	msgBadInterval   = "Schedule interval must be between 1 and 1440 minutes"
)

type Options struct {
	// DefaultSitemapURL is used when the sitemap input is empty. An explicit
	// empty value disables the fallback only when NoDefaultSitemap is set.
	DefaultSitemapURL string
	NoDefaultSitemap  bool

	NotificationTTL  time.Duration
	AfterFunc        AfterFunc
	ScheduleInterval int
	Location         *time.Location
	ActivityHistory  int
	Logger           *slog.Logger
	Now              func() time.Time
	InitialTab       Tab
	Tabs             []Tab
}

// Session is the process-wide working state.
type Session struct {
	APIKey            string
	Articles          []model.Article
	SelectedArticleID string
}

// Snapshot is a detached copy of the controller state.
type Snapshot struct {
	Session
	APIKeyMasked     bool
	Toggled          map[string]bool
	Blogs            []model.Blog
	SelectedBlogID   string
	ActiveTab        Tab
	ScheduleInterval int
}

// Controller owns all workflow state and mediates between the view and the backend.
// Handlers return nil on success; every failure has already been surfaced as
// exactly one error notification when the handler returns.
type Controller struct {
	backend  Backend
	view     View
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
	sitemap  string
	notifier *Notifier
	loading  *Loading
	activity *ActivityLog

	mu       sync.Mutex
	session  Session
	masked   bool
	toggled  map[string]bool
	blogs    []model.Blog
	blogID   string
	tabs     *Tabs
	interval int
}

func New(backend Backend, view View, opts Options) *Controller {
	if view == nil {
		view = NopView{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	sitemap := strings.TrimSpace(opts.DefaultSitemapURL)
	if sitemap == "" && !opts.NoDefaultSitemap {
		sitemap = DefaultSitemapURL
	}
	interval := opts.ScheduleInterval
	if interval == 0 {
		interval = DefaultScheduleInterval
	}
	initial := opts.InitialTab
	if initial == "" {
		initial = TabSettings
	}
	tabs := opts.Tabs
	if len(tabs) == 0 {
		tabs = DefaultTabs
	}

	c := &Controller{
		backend:  backend,
		view:     view,
		log:      logger,
		now:      now,
		loc:      loc,
		sitemap:  sitemap,
		loading:  NewLoading(view),
		activity: NewActivityLog(opts.ActivityHistory),
		masked:   true,
		toggled:  map[string]bool{},
		tabs:     NewTabs(initial, tabs...),
		interval: interval,
	}
	c.notifier = NewNotifier(view, opts.NotificationTTL, opts.AfterFunc)
	c.notifier.now = now
	c.notifier.onNotify = func(n Notification) {
		c.activity.Add(n.CreatedAt, n.Severity, n.Message)
	}
	return c
}

// Start paints the initial state: default tab, masked key, empty table.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowTab(c.tabs.Active(), c.tabs.All())
	c.view.SetAPIKeyMasked(c.masked)
	c.view.SetBlogs(nil)
	c.view.RenderArticles(Rows(c.session.Articles))
	c.view.ShowPreview("")
}

func (c *Controller) Notifier() *Notifier    { return c.notifier }
func (c *Controller) Loading() *Loading      { return c.loading }
func (c *Controller) Activity() *ActivityLog { return c.activity }
func (c *Controller) DefaultSitemap() string { return c.sitemap }

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	arts := make([]model.Article, len(c.session.Articles))
	for i, a := range c.session.Articles {
		arts[i] = a.Clone()
	}
	toggled := make(map[string]bool, len(c.toggled))
	for id, on := range c.toggled {
		if on {
			toggled[id] = true
		}
	}
	return Snapshot{
		Session: Session{
			APIKey:            c.session.APIKey,
			Articles:          arts,
			SelectedArticleID: c.session.SelectedArticleID,
		},
		APIKeyMasked:     c.masked,
		Toggled:          toggled,
		Blogs:            append([]model.Blog(nil), c.blogs...),
		SelectedBlogID:   c.blogID,
		ActiveTab:        c.tabs.Active(),
		ScheduleInterval: c.interval,
	}
}

func (c *Controller) Notify(message string, sev model.Severity) Notification {
	return c.notifier.Notify(message, sev)
}

// fail logs err, shows exactly one error notification and returns err.
// msg overrides the normalized message when non-empty.
func (c *Controller) fail(action string, err error, msg string) error {
	if msg == "" {
		msg = api.Message(err)
	}
	c.log.Warn("workflow action failed", "action", action, "err", err)
	c.notifier.Notify(msg, model.SeverityError)
	return err
}

func (c *Controller) succeed(action, msg string, attrs ...any) {
	c.log.Info("workflow action done", append([]any{"action", action}, attrs...)...)
	c.notifier.Notify(msg, model.SeveritySuccess)
}

// SwitchTab activates target. The view is re-told the active tab even when the
// target is unknown or already active, so the visual state is re-set idempotently.
func (c *Controller) SwitchTab(target Tab) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.tabs.Switch(target)
	c.view.ShowTab(c.tabs.Active(), c.tabs.All())
	return changed
}

func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Active()
}

// TabOffset resolves the tab delta positions from the active one.
func (c *Controller) TabOffset(delta int) Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Offset(delta)
}

// TabAt resolves a 1-based tab position.
func (c *Controller) TabAt(pos int) Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.At(pos)
}

func (c *Controller) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.APIKey = strings.TrimSpace(key)
}

func (c *Controller) APIKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.APIKey
}

// ToggleAPIKeyVisibility flips masking of the key input and returns the new state.
func (c *Controller) ToggleAPIKeyVisibility() (masked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masked = !c.masked
	c.view.SetAPIKeyMasked(c.masked)
	return c.masked
}

// RefreshBlogs replaces the blog list with the backend's, in backend order.
// On failure the blog list is left as it was.
func (c *Controller) RefreshBlogs(ctx context.Context) error {
	const action = "refresh_blogs"
	key := c.APIKey()
	if key == "" {
		return c.fail(action, api.ErrPrecondition(msgNoAPIKey), "")
	}

	release := c.loading.Acquire("Loading blogs...")
	defer release()

	blogs, err := c.backend.ListBlogs(ctx, key)
	if err != nil {
		return c.fail(action, err, "")
	}

	c.mu.Lock()
	c.blogs = append([]model.Blog(nil), blogs...)
	if c.blogID != "" && !hasBlog(c.blogs, c.blogID) {
		c.blogID = ""
	}
	c.view.SetBlogs(append([]model.Blog(nil), c.blogs...))
	c.view.SetSelectedBlog(c.blogID)
	c.mu.Unlock()

	c.succeed(action, fmt.Sprintf("Loaded %d blog(s)", len(blogs)), "blogs", len(blogs))
	return nil
}

// SelectBlog picks the blog that PostSelected publishes to.
func (c *Controller) SelectBlog(id string) error {
	c.mu.Lock()
	if !hasBlog(c.blogs, id) {
		c.mu.Unlock()
		return c.fail("select_blog", api.ErrPrecondition(msgUnknownBlog), "")
	}
	c.blogID = id
	c.view.SetSelectedBlog(id)
	c.mu.Unlock()
	return nil
}

// ValidateSitemapURL resolves raw (or fallback when raw is blank) to an absolute
// http(s) URL.
func ValidateSitemapURL(raw, fallback string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" {
		return "", api.ErrPrecondition(msgNoSitemapURL)
	}
	u, err := url.ParseRequestURI(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", api.ErrPrecondition(msgBadSitemapURL)
	}
	return u.String(), nil
}

// FetchArticles pulls the article set for a sitemap. Invalid input fails before
// any request and leaves the articles untouched. Once the request starts the
// collection is cleared; any failure (including an empty result) leaves it empty.
func (c *Controller) FetchArticles(ctx context.Context, rawURL string) error {
	const action = "fetch_articles"
	target, err := ValidateSitemapURL(rawURL, c.sitemap)
	if err != nil {
		return c.fail(action, err, "")
	}

	release := c.loading.Acquire("Fetching articles...")
	defer release()

	c.replaceArticles(nil)
	c.log.Info("fetching articles", "action", action, "sitemap", target)

	articles, err := c.backend.FetchArticles(ctx, target)
	if err == nil && len(articles) == 0 {
		err = api.ErrContract(msgNoArticles)
	}
	if err != nil {
		c.replaceArticles(nil)
		return c.fail(action, err, "")
	}

	articles, dropped := dedupeArticles(articles)
	if dropped > 0 {
		c.log.Warn("dropped duplicate article ids", "action", action, "dropped", dropped)
	}
	c.replaceArticles(articles)
	c.succeed(action, fmt.Sprintf("Fetched %d article(s)", len(articles)), "articles", len(articles))
	return nil
}

// replaceArticles swaps the whole collection and rebuilds the table, which
// discards every selection toggle. articles must not be shared yet; rows are
// built before locking.
func (c *Controller) replaceArticles(articles []model.Article) {
	rows := Rows(articles)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Articles = articles
	c.toggled = map[string]bool{}
	if c.session.SelectedArticleID != "" && indexOf(articles, c.session.SelectedArticleID) < 0 {
		c.session.SelectedArticleID = ""
		c.view.ShowPreview("")
	}
	c.view.RenderArticles(rows)
}

// ToggleRow flips the row's selection toggle and makes it the preview target.
// It never changes the articles themselves.
func (c *Controller) ToggleRow(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := indexOf(c.session.Articles, id)
	if idx < 0 {
		return false
	}
	on := !c.toggled[id]
	if on {
		c.toggled[id] = true
	} else {
		delete(c.toggled, id)
	}
	c.view.SetRowSelected(id, on)
	c.previewLocked(idx)
	return true
}

// SelectArticle sets the preview target without touching toggles.
func (c *Controller) SelectArticle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := indexOf(c.session.Articles, id)
	if idx < 0 {
		return false
	}
	c.previewLocked(idx)
	return true
}

func (c *Controller) previewLocked(idx int) {
	a := c.session.Articles[idx]
	c.session.SelectedArticleID = a.ID
	c.view.ShowPreview(a.PreviewContent())
}

// MergeArticle applies a partial update in place, keeping collection order.
// Unknown ids are ignored.
func (c *Controller) MergeArticle(id string, patch model.ArticlePatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := indexOf(c.session.Articles, id)
	if idx < 0 {
		return false
	}
	updated := c.session.Articles[idx].Apply(patch)
	c.session.Articles[idx] = updated
	c.view.UpdateRow(RowFor(updated))
	if c.session.SelectedArticleID == id {
		c.view.ShowPreview(updated.PreviewContent())
	}
	return true
}

// selectedArticles returns toggled articles in table order.
func (c *Controller) selectedArticles() []model.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Article
	for _, a := range c.session.Articles {
		if c.toggled[a.ID] {
			out = append(out, a.Clone())
		}
	}
	return out
}

func dedupeArticles(in []model.Article) ([]model.Article, int) {
	seen := make(map[string]bool, len(in))
	out := make([]model.Article, 0, len(in))
	for _, a := range in {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out, len(in) - len(out)
}

func indexOf(articles []model.Article, id string) int {
	for i, a := range articles {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func hasBlog(blogs []model.Blog, id string) bool {
	for _, b := range blogs {
		if b.ID == id {
			return true
		}
	}
	return false
}
