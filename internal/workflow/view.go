package workflow

import (
	"time"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/preview"
)

// View is everything the controller writes to. Implementations must not call
// back into the controller from these methods.
type View interface {
	ShowTab(active Tab, all []Tab)
	SetAPIKeyMasked(masked bool)
	SetBlogs(blogs []model.Blog)
	SetSelectedBlog(id string)
	// RenderArticles replaces every row; previous row state, including selection
	// toggles, is discarded.
	RenderArticles(rows []Row)
	UpdateRow(row Row)
	SetRowSelected(id string, selected bool)
	ShowPreview(content string)
	ShowNotification(n Notification)
	RemoveNotification(id string)
	ShowLoading(message string)
	HideLoading()
}

// Row is the table projection of one article.
type Row struct {
	ID       string
	Title    string
	Schedule string
	Status   model.ArticleStatus
	Words    int
}

// countWords parses article HTML, so callers keep it off the controller lock
// where they can.
var countWords = preview.WordCount

func RowFor(a model.Article) Row {
	return Row{
		ID:       a.ID,
		Title:    a.Title,
		Schedule: a.ScheduleLabel(),
		Status:   a.Status(),
		Words:    countWords(a.PreviewContent()),
	}
}

// Rows projects articles to rows, one per article, in collection order.
func Rows(articles []model.Article) []Row {
	rows := make([]Row, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, RowFor(a))
	}
	return rows
}

type Notification struct {
	ID        string
	Message   string
	Severity  model.Severity
	CreatedAt time.Time
}

// NopView discards everything. Useful for headless callers that only need results.
type NopView struct{}

func (NopView) ShowTab(Tab, []Tab)            {}
func (NopView) SetAPIKeyMasked(bool)          {}
func (NopView) SetBlogs([]model.Blog)         {}
func (NopView) SetSelectedBlog(string)        {}
func (NopView) RenderArticles([]Row)          {}
func (NopView) UpdateRow(Row)                 {}
func (NopView) SetRowSelected(string, bool)   {}
func (NopView) ShowPreview(string)            {}
func (NopView) ShowNotification(Notification) {}
func (NopView) RemoveNotification(string)     {}
func (NopView) ShowLoading(string)            {}
func (NopView) HideLoading()                  {}
