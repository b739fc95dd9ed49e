package workflow

import (
	"context"
	"fmt"
	"time"

	"rewriter-cli/internal/api"
	"rewriter-cli/internal/model"
	"rewriter-cli/internal/publish"
)

// RewriteSelected sends each toggled article to the rewrite endpoint in table
// order. Results are merged as they arrive; the batch stops at the first failure
// and keeps what was already rewritten.
func (c *Controller) RewriteSelected(ctx context.Context) error {
	const action = "rewrite"
	key := c.APIKey()
	if key == "" {
		return c.fail(action, api.ErrPrecondition(msgNoAPIKey), "")
	}
	targets := c.selectedArticles()
	if len(targets) == 0 {
		return c.fail(action, api.ErrPrecondition(msgNoSelection), "")
	}

	release := c.loading.Acquire(fmt.Sprintf("Rewriting %d article(s)...", len(targets)))
	defer release()

	for _, a := range targets {
		if err := ctx.Err(); err != nil {
			return c.fail(action, api.TransportError{Err: err}, "")
		}
		rw, err := c.backend.Rewrite(ctx, key, a)
		if err != nil {
			return c.fail(action, fmt.Errorf("rewrite %s: %w", a.ID, err),
				fmt.Sprintf("Failed to rewrite %q: %s", a.Title, api.Message(err)))
		}
		c.MergeArticle(a.ID, model.ArticlePatch{Rewritten: &rw})
	}

	c.succeed(action, fmt.Sprintf("Rewrote %d article(s)", len(targets)), "articles", len(targets))
	return nil
}

// SetScheduleInterval sets the spacing, in minutes, between scheduled posts.
func (c *Controller) SetScheduleInterval(minutes int) error {
	if minutes < MinScheduleInterval || minutes > MaxScheduleInterval {
		return c.fail("schedule_interval", api.ErrPrecondition(msgBadInterval), "")
	}
	c.mu.Lock()
	c.interval = minutes
	c.mu.Unlock()
	return nil
}

func (c *Controller) ScheduleInterval() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// ScheduleSelected assigns publish times to toggled articles: the first one
// interval after start, each next one interval later.
func (c *Controller) ScheduleSelected(start time.Time) error {
	const action = "schedule"
	targets := c.selectedArticles()
	if len(targets) == 0 {
		return c.fail(action, api.ErrPrecondition(msgNoSelection), "")
	}
	minutes := c.ScheduleInterval()
	step := time.Duration(minutes) * time.Minute

	for i, a := range targets {
		at := start.Add(step * time.Duration(i+1)).In(c.loc)
		label := at.Format(ScheduleLayout)
		c.MergeArticle(a.ID, model.ArticlePatch{Schedule: &label})
	}

	c.succeed(action, fmt.Sprintf("Scheduled %d article(s) every %d min", len(targets), minutes), "articles", len(targets))
	return nil
}

// ScheduleSelectedNow schedules relative to the controller clock.
func (c *Controller) ScheduleSelectedNow() error {
	return c.ScheduleSelected(c.now())
}

// ClearSchedule drops the schedule from every toggled article.
func (c *Controller) ClearSchedule() error {
	targets := c.selectedArticles()
	if len(targets) == 0 {
		return c.fail("unschedule", api.ErrPrecondition(msgNoSelection), "")
	}
	empty := ""
	for _, a := range targets {
		c.MergeArticle(a.ID, model.ArticlePatch{Schedule: &empty})
	}
	c.notifier.Notify(fmt.Sprintf("Cleared schedule on %d article(s)", len(targets)), model.SeverityInfo)
	return nil
}

// PostSelected publishes toggled articles to the selected blog, preferring the
// rewritten title and body. It stops at the first failure.
func (c *Controller) PostSelected(ctx context.Context) error {
	const action = "post"
	c.mu.Lock()
	blogID := c.blogID
	c.mu.Unlock()
	if blogID == "" {
		return c.fail(action, api.ErrPrecondition(msgNoBlog), "")
	}
	targets := c.selectedArticles()
	if len(targets) == 0 {
		return c.fail(action, api.ErrPrecondition(msgNoSelection), "")
	}

	release := c.loading.Acquire(fmt.Sprintf("Posting %d article(s)...", len(targets)))
	defer release()

	posted := true
	for _, a := range targets {
		if err := ctx.Err(); err != nil {
			return c.fail(action, api.TransportError{Err: err}, "")
		}
		req := postRequestFor(blogID, a)
		if err := c.backend.Post(ctx, req); err != nil {
			return c.fail(action, fmt.Errorf("post %s: %w", a.ID, err),
				fmt.Sprintf("Failed to post %q: %s", req.Title, api.Message(err)))
		}
		c.MergeArticle(a.ID, model.ArticlePatch{Posted: &posted})
	}

	c.succeed(action, fmt.Sprintf("Posted %d article(s)", len(targets)), "articles", len(targets), "blog", blogID)
	return nil
}

// ExportSelected writes the toggled articles as Markdown pages under dir.
func (c *Controller) ExportSelected(dir string, opt publish.WriteOptions) error {
	const action = "export"
	targets := c.selectedArticles()
	if len(targets) == 0 {
		return c.fail(action, api.ErrPrecondition(msgNoSelection), "")
	}
	res, err := publish.WriteArticles(targets, dir, opt)
	if err != nil {
		return c.fail(action, fmt.Errorf("export: %w", err), "Export failed: "+err.Error())
	}
	c.succeed(action, fmt.Sprintf("Exported %d article(s) to %s", len(targets), dir), "articles", len(targets), "files", len(res.Written))
	return nil
}

func postRequestFor(blogID string, a model.Article) api.PostRequest {
	req := api.PostRequest{
		BlogID:   blogID,
		ID:       a.ID,
		Title:    a.Title,
		Content:  a.Content,
		Schedule: a.Schedule,
	}
	if a.Rewritten != nil {
		req.Content = a.Rewritten.Content
		if a.Rewritten.Title != "" {
			req.Title = a.Rewritten.Title
		}
	}
	return req
}
