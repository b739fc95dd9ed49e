package publish

import (
	"bytes"
	"fmt"
	"strings"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/preview"
)

type RenderOptions struct {
	// Original renders the fetched content even when a rewrite exists.
	Original bool
}

// RenderArticleMarkdown renders one article as a standalone Markdown page.
func RenderArticleMarkdown(a model.Article, opt RenderOptions) (string, error) {
	title := strings.TrimSpace(a.Title)
	content := a.Content
	if a.Rewritten != nil && !opt.Original {
		if t := strings.TrimSpace(a.Rewritten.Title); t != "" {
			title = t
		}
		content = a.Rewritten.Content
	}
	if title == "" {
		title = a.ID
	}

	body, err := preview.ToMarkdown(content)
	if err != nil {
		return "", fmt.Errorf("article %s: %w", a.ID, err)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + title)
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + a.ID)
	if u := strings.TrimSpace(a.URL); u != "" {
		writeLn("- Source: " + u)
	}
	writeLn("- Status: " + string(a.Status()))
	writeLn("- Schedule: " + a.ScheduleLabel())
	if a.Rewritten != nil && !opt.Original && strings.TrimSpace(a.Title) != title {
		writeLn("- Original title: " + strings.TrimSpace(a.Title))
	}
	writeLn(fmt.Sprintf("- Words: %d", preview.WordCount(content)))
	writeLn("")
	writeLn("## Content")
	writeLn("")
	if strings.TrimSpace(body) == "" {
		writeLn("_(empty)_")
	} else {
		writeLn(strings.TrimSpace(body))
	}
	return buf.String(), nil
}

// RenderIndexMarkdown lists articles in collection order with links to their pages.
func RenderIndexMarkdown(articles []model.Article) string {
	var buf bytes.Buffer
	buf.WriteString("# Articles\n\n")
	if len(articles) == 0 {
		buf.WriteString("_(none)_\n")
		return buf.String()
	}
	buf.WriteString("| Title | Schedule | Status |\n|---|---|---|\n")
	for _, a := range articles {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			title = a.ID
		}
		fmt.Fprintf(&buf, "| [%s](articles/%s) | %s | %s |\n",
			escapeCell(title), FileName(a), escapeCell(a.ScheduleLabel()), a.Status())
	}
	return buf.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "[", `\[`)
	s = strings.ReplaceAll(s, "]", `\]`)
	return strings.Join(strings.Fields(s), " ")
}
