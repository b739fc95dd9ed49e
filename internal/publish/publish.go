package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"rewriter-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
	Original  bool
}

type WriteResult struct {
	Written []string `json:"written" yaml:"written"`
}

// WriteArticles writes toDir/index.md and one page per article under
// toDir/articles. It stops at the first error; files already written stay.
func WriteArticles(articles []model.Article, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing export directory")
	}
	if len(articles) == 0 {
		return WriteResult{}, errors.New("no articles to export")
	}
	toDir = filepath.Clean(toDir)

	articlesDir := filepath.Join(toDir, "articles")
	if err := os.MkdirAll(articlesDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexPath := filepath.Join(toDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderIndexMarkdown(articles)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	written := []string{indexPath}
	for _, a := range articles {
		md, err := RenderArticleMarkdown(a, RenderOptions{Original: opt.Original})
		if err != nil {
			return WriteResult{Written: written}, err
		}
		p := filepath.Join(articlesDir, FileName(a))
		if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, p)
	}
	return WriteResult{Written: written}, nil
}

// FileName is a filesystem-safe page name derived from the article id.
func FileName(a model.Article) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(a.ID) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), ".-")
	if name == "" {
		name = "article"
	}
	return name + ".md"
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
