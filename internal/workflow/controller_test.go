package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rewriter-cli/internal/api"
	"rewriter-cli/internal/model"
	"rewriter-cli/internal/publish"
)

func TestController_StartPaintsDefaults(t *testing.T) {
	t.Parallel()

	c, v, _ := newTestController(&fakeBackend{})
	require.Equal(t, TabSettings, v.tab)
	require.Equal(t, DefaultTabs, v.tabs)
	require.True(t, v.masked)
	require.Empty(t, v.rows)

	snap := c.Snapshot()
	require.Empty(t, snap.Articles)
	require.Empty(t, snap.SelectedArticleID)
	require.Equal(t, DefaultScheduleInterval, snap.ScheduleInterval)
}

func TestController_RefreshBlogsWithoutKey(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{blogs: []model.Blog{{ID: "b1", Name: "One"}}}
	c, v, _ := newTestController(b)

	err := c.RefreshBlogs(context.Background())
	require.Error(t, err)

	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "API key")
	require.Zero(t, b.listCalls)
	require.Zero(t, v.shows, "no request means no loading overlay")
}

func TestController_RefreshBlogsKeepsServerOrder(t *testing.T) {
	t.Parallel()

	blogs := []model.Blog{{ID: "b2", Name: "Second"}, {ID: "b1", Name: "First"}}
	b := &fakeBackend{blogs: blogs}
	c, v, _ := newTestController(b)
	c.SetAPIKey("  k  ")

	require.NoError(t, c.RefreshBlogs(context.Background()))
	require.Equal(t, blogs, v.blogs)
	require.Equal(t, "k", c.APIKey())
	require.False(t, v.loading)
	require.Equal(t, 1, v.shows)

	ok := v.notesWith(model.SeveritySuccess)
	require.Len(t, ok, 1)
	require.Equal(t, "Loaded 2 blog(s)", ok[0].Message)
}

func TestController_RefreshBlogsFailureKeepsList(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{blogs: []model.Blog{{ID: "b1", Name: "One"}}}
	c, v, _ := newTestController(b)
	c.SetAPIKey("k")
	require.NoError(t, c.RefreshBlogs(context.Background()))
	require.NoError(t, c.SelectBlog("b1"))

	b.blogsErr = api.ServerError{Status: 401, Msg: "bad key"}
	require.Error(t, c.RefreshBlogs(context.Background()))

	snap := c.Snapshot()
	require.Len(t, snap.Blogs, 1)
	require.Equal(t, "b1", snap.SelectedBlogID)
	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Equal(t, "bad key", errs[0].Message)
	require.False(t, v.loading)
}

func TestController_SelectUnknownBlog(t *testing.T) {
	t.Parallel()

	c, v, _ := newTestController(&fakeBackend{})
	require.Error(t, c.SelectBlog("missing"))
	require.Len(t, v.notesWith(model.SeverityError), 1)
	require.Empty(t, c.Snapshot().SelectedBlogID)
}

func TestController_FetchRejectsBadURLWithoutRequest(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/sitemap.xml"))

	err := c.FetchArticles(context.Background(), "not a url")
	require.Error(t, err)
	var pe api.PreconditionError
	require.ErrorAs(t, err, &pe)

	require.Len(t, b.fetched, 1)
	require.Len(t, c.Snapshot().Articles, 3, "articles untouched by local validation failure")
	require.Len(t, v.notesWith(model.SeverityError), 1)
}

func TestController_FetchUsesDefaultSitemap(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, _, _ := newTestController(b)

	require.NoError(t, c.FetchArticles(context.Background(), "   "))
	require.Equal(t, []string{DefaultSitemapURL}, b.fetched)
}

func TestController_FetchWithoutAnyURL(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	c := New(b, NopView{}, Options{NoDefaultSitemap: true})
	err := c.FetchArticles(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, "Please enter a sitemap URL", api.Message(err))
	require.Empty(t, b.fetched)
}

func TestController_FetchReplacesAndClearsToggles(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("2"))
	require.True(t, v.selected["2"])

	b.articles = []model.Article{{ID: "9", Title: "Z", Content: "q"}}
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/b.xml"))

	snap := c.Snapshot()
	require.Len(t, snap.Articles, 1)
	require.Equal(t, "9", snap.Articles[0].ID)
	require.Empty(t, snap.Toggled)
	require.Empty(t, snap.SelectedArticleID, "preview target vanished with the old collection")
	require.Empty(t, v.preview)
	require.Equal(t, []Row{{ID: "9", Title: "Z", Schedule: model.NotScheduled, Status: model.StatusPending, Words: 1}}, v.rows)

	ok := v.notesWith(model.SeveritySuccess)
	require.Equal(t, "Fetched 1 article(s)", ok[len(ok)-1].Message)
}

// Not parallel: swaps the package word counter.
func TestController_FetchCountsWordsOutsideLock(t *testing.T) {
	b := &fakeBackend{articles: []model.Article{
		{ID: "1", Title: "A", Content: "<p>one two three</p>"},
		{ID: "2", Title: "B", Content: "four"},
	}}
	c, v, _ := newTestController(b)

	orig := countWords
	t.Cleanup(func() { countWords = orig })
	var counted, locked int
	countWords = func(content string) int {
		counted++
		if c.mu.TryLock() {
			c.mu.Unlock()
		} else {
			locked++
		}
		return orig(content)
	}

	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.Equal(t, 2, counted)
	require.Zero(t, locked, "word counting ran under the controller lock")
	require.Equal(t, 3, v.rows[0].Words)
	require.Equal(t, 1, v.rows[1].Words)
}

func TestController_FetchEmptyListIsFailure(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))

	b.articles = nil
	err := c.FetchArticles(context.Background(), "https://example.com/a.xml")
	require.Error(t, err)

	require.Empty(t, c.Snapshot().Articles)
	require.Empty(t, v.rows)
	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Equal(t, "No articles found in sitemap", errs[0].Message)
	require.False(t, v.loading)
}

func TestController_FetchFailureResetsCollection(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.SelectArticle("1"))
	require.Equal(t, "x", v.preview)

	b.fetchErr = api.TransportError{Status: 502}
	require.Error(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))

	require.Empty(t, c.Snapshot().Articles)
	require.Empty(t, v.preview)
	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Equal(t, "Server returned 502 Bad Gateway", errs[0].Message)
}

func TestController_FetchDropsDuplicateIDs(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: []model.Article{
		{ID: "1", Title: "first"},
		{ID: "1", Title: "dupe"},
		{ID: "2", Title: "second"},
	}}
	c, _, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))

	snap := c.Snapshot()
	require.Len(t, snap.Articles, 2)
	require.Equal(t, "first", snap.Articles[0].Title)
}

func TestController_ToggleRowTogglesAndPreviews(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	before := c.Snapshot().Articles

	require.True(t, c.ToggleRow("2"))
	require.True(t, v.selected["2"])
	require.Equal(t, "y", v.preview)
	require.Equal(t, "2", c.Snapshot().SelectedArticleID)

	require.True(t, c.ToggleRow("2"))
	require.False(t, v.selected["2"])
	require.Empty(t, c.Snapshot().Toggled)
	require.Equal(t, before, c.Snapshot().Articles, "clicks never change article data")

	require.False(t, c.ToggleRow("nope"))
}

func TestController_MergeArticleKeepsToggleAndOrder(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("2"))
	renders := v.renders

	require.True(t, c.MergeArticle("2", model.ArticlePatch{Rewritten: &model.Rewritten{Content: "new body"}}))
	require.False(t, c.MergeArticle("missing", model.ArticlePatch{Posted: model.BoolPtr(true)}))

	snap := c.Snapshot()
	require.Equal(t, []string{"1", "2", "3"}, ids(snap.Articles))
	require.True(t, snap.Toggled["2"])
	require.True(t, v.selected["2"])
	require.Equal(t, renders, v.renders, "merge updates one row instead of rebuilding the table")
	require.Equal(t, model.StatusRewritten, v.rows[1].Status)
	require.Equal(t, "new body", v.preview)
}

func TestController_RewriteSelectedStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		articles: sampleArticles(),
		rewrite: func(a model.Article) (model.Rewritten, error) {
			if a.ID == "2" {
				return model.Rewritten{}, api.ServerError{Status: 500, Msg: "quota exceeded"}
			}
			return model.Rewritten{Content: "rw-" + a.ID}, nil
		},
	}
	c, v, _ := newTestController(b)
	c.SetAPIKey("k")
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	for _, id := range []string{"3", "1", "2"} {
		require.True(t, c.ToggleRow(id))
	}

	err := c.RewriteSelected(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"1", "2"}, b.rewritten, "table order, stopping at the failure")

	snap := c.Snapshot()
	require.NotNil(t, snap.Articles[0].Rewritten)
	require.Nil(t, snap.Articles[1].Rewritten)
	require.Nil(t, snap.Articles[2].Rewritten)

	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Equal(t, `Failed to rewrite "B": quota exceeded`, errs[0].Message)
	require.False(t, v.loading)
}

func TestController_RewriteNeedsKeyAndSelection(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))

	require.Error(t, c.RewriteSelected(context.Background()))
	c.SetAPIKey("k")
	require.Error(t, c.RewriteSelected(context.Background()))

	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 2)
	require.Contains(t, errs[0].Message, "API key")
	require.Equal(t, "Select at least one article first", errs[1].Message)
	require.Empty(t, b.rewritten)
}

func TestController_ScheduleSelectedSpacing(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("1"))
	require.True(t, c.ToggleRow("3"))
	require.NoError(t, c.SetScheduleInterval(30))

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.ScheduleSelected(start))

	snap := c.Snapshot()
	require.Equal(t, "2024-03-01 09:30 UTC", *snap.Articles[0].Schedule)
	require.Nil(t, snap.Articles[1].Schedule)
	require.Equal(t, "2024-03-01 10:00 UTC", *snap.Articles[2].Schedule)
	require.Equal(t, model.StatusScheduled, v.rows[2].Status)

	require.NoError(t, c.ClearSchedule())
	require.Nil(t, c.Snapshot().Articles[0].Schedule)
}

func TestController_ScheduleIntervalBounds(t *testing.T) {
	t.Parallel()

	c, v, _ := newTestController(&fakeBackend{})
	require.Error(t, c.SetScheduleInterval(0))
	require.Error(t, c.SetScheduleInterval(MaxScheduleInterval+1))
	require.NoError(t, c.SetScheduleInterval(MaxScheduleInterval))
	require.Equal(t, MaxScheduleInterval, c.ScheduleInterval())
	require.Len(t, v.notesWith(model.SeverityError), 2)
}

func TestController_PostSelected(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		blogs:    []model.Blog{{ID: "b1", Name: "One"}},
		articles: sampleArticles(),
	}
	c, v, _ := newTestController(b)
	c.SetAPIKey("k")
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("1"))
	require.True(t, c.ToggleRow("2"))

	require.Error(t, c.PostSelected(context.Background()), "no blog selected yet")
	require.Empty(t, b.posts)

	require.NoError(t, c.RefreshBlogs(context.Background()))
	require.NoError(t, c.SelectBlog("b1"))
	require.True(t, c.MergeArticle("1", model.ArticlePatch{
		Rewritten: &model.Rewritten{Title: "A2", Content: "x2"},
		Schedule:  model.StrPtr("2024-01-01 10:05 UTC"),
	}))

	require.NoError(t, c.PostSelected(context.Background()))
	require.Len(t, b.posts, 2)
	require.Equal(t, api.PostRequest{BlogID: "b1", ID: "1", Title: "A2", Content: "x2", Schedule: model.StrPtr("2024-01-01 10:05 UTC")}, b.posts[0])
	require.Equal(t, api.PostRequest{BlogID: "b1", ID: "2", Title: "B", Content: "y"}, b.posts[1])

	snap := c.Snapshot()
	require.True(t, snap.Articles[0].Posted)
	require.True(t, snap.Articles[1].Posted)
	require.False(t, snap.Articles[2].Posted)
	require.Equal(t, model.StatusPosted, v.rows[0].Status)
}

func TestController_PostStopsOnFailure(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		blogs:    []model.Blog{{ID: "b1"}},
		articles: sampleArticles(),
		postErr:  map[string]error{"1": api.ErrContract("Post was not accepted by the server")},
	}
	c, v, _ := newTestController(b)
	c.SetAPIKey("k")
	require.NoError(t, c.RefreshBlogs(context.Background()))
	require.NoError(t, c.SelectBlog("b1"))
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("1"))
	require.True(t, c.ToggleRow("2"))

	require.Error(t, c.PostSelected(context.Background()))
	require.Empty(t, b.posts)
	require.False(t, c.Snapshot().Articles[0].Posted)
	errs := v.notesWith(model.SeverityError)
	require.Len(t, errs, 1)
	require.Equal(t, `Failed to post "A": Post was not accepted by the server`, errs[0].Message)
}

func TestController_CancelledContextSurfacesOnce(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	c.SetAPIKey("k")
	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.RewriteSelected(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.Empty(t, b.rewritten)
	require.Len(t, v.notesWith(model.SeverityError), 1)
	require.False(t, v.loading)
}

func TestController_SwitchTab(t *testing.T) {
	t.Parallel()

	c, v, _ := newTestController(&fakeBackend{})
	require.True(t, c.SwitchTab(TabArticles))
	require.Equal(t, TabArticles, v.tab)

	require.False(t, c.SwitchTab("bogus"))
	require.Equal(t, TabArticles, v.tab)
	require.Equal(t, TabArticles, c.ActiveTab())

	require.False(t, c.SwitchTab(TabArticles))
	require.True(t, c.SwitchTab("#blogs"))
	require.Equal(t, TabBlogs, c.ActiveTab())
	require.Equal(t, TabSitemap, c.TabOffset(1))
	require.Equal(t, TabActivity, c.TabAt(5))
}

func TestController_ToggleAPIKeyVisibility(t *testing.T) {
	t.Parallel()

	c, v, _ := newTestController(&fakeBackend{})
	require.False(t, c.ToggleAPIKeyVisibility())
	require.False(t, v.masked)
	require.True(t, c.ToggleAPIKeyVisibility())
	require.True(t, v.masked)
}

func TestController_NotificationsExpireAndReachActivity(t *testing.T) {
	t.Parallel()

	c, v, timers := newTestController(&fakeBackend{})
	first := c.Notify("one", model.SeverityInfo)
	second := c.Notify("one", model.SeverityInfo)
	require.NotEqual(t, first.ID, second.ID, "no dedup of identical messages")
	require.Len(t, c.Notifier().Active(), 2)

	timers.fireAll()
	require.Empty(t, c.Notifier().Active())
	require.ElementsMatch(t, []string{first.ID, second.ID}, v.removed)

	entries := c.Activity().Entries("")
	require.Len(t, entries, 2)
	require.Equal(t, "one", entries[0].Message)
}

func ids(articles []model.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ID)
	}
	return out
}

func TestController_ExportSelected(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{articles: sampleArticles()}
	c, v, _ := newTestController(b)
	dir := t.TempDir()

	require.Error(t, c.ExportSelected(dir, publish.WriteOptions{}))
	require.Equal(t, "Select at least one article first", v.notesWith(model.SeverityError)[0].Message)

	require.NoError(t, c.FetchArticles(context.Background(), "https://example.com/a.xml"))
	require.True(t, c.ToggleRow("2"))
	require.NoError(t, c.ExportSelected(dir, publish.WriteOptions{}))

	page, err := os.ReadFile(filepath.Join(dir, "articles", "2.md"))
	require.NoError(t, err)
	require.Contains(t, string(page), "# B")
	_, err = os.Stat(filepath.Join(dir, "articles", "1.md"))
	require.True(t, os.IsNotExist(err), "untoggled articles are not exported")

	require.Error(t, c.ExportSelected(dir, publish.WriteOptions{}), "existing files are refused")
	require.Len(t, v.notesWith(model.SeverityError), 2)
}
