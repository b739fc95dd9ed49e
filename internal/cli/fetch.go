package cli

import (
	"fmt"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/preview"
	"rewriter-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newFetchCmd(app *App) *cobra.Command {
	var plain bool
	var excerpt int
	var exportDir string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "fetch [sitemap-url]",
		Short: "Fetch articles from a sitemap",
		Long:  "Fetch articles from a sitemap. Without an argument the configured sitemap.default_url is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			ctrl := app.newController(cmd)
			if err := ctrl.FetchArticles(cmd.Context(), raw); err != nil {
				return err
			}

			articles := ctrl.Snapshot().Articles
			meta := map[string]any{"count": len(articles)}
			if exportDir != "" {
				res, err := publish.WriteArticles(articles, exportDir, publish.WriteOptions{Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, fmt.Errorf("export: %w", err))
				}
				meta["written"] = res.Written
			}
			for i := range articles {
				articles[i] = shapeArticle(articles[i], plain, excerpt)
			}
			return writeOut(cmd, app, map[string]any{
				"data": articles,
				"meta": meta,
			})
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Strip HTML from article content")
	cmd.Flags().StringVar(&exportDir, "export", "", "Also write the articles as Markdown pages under this directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing pages when exporting")
	cmd.Flags().IntVar(&excerpt, "excerpt", 0, "Replace content with a plain-text excerpt of at most N characters")
	return cmd
}

func shapeArticle(a model.Article, plain bool, excerpt int) model.Article {
	switch {
	case excerpt > 0:
		a.Content = preview.Excerpt(a.Content, excerpt)
	case plain:
		a.Content = preview.PlainText(a.Content)
	}
	return a
}
