package model

import "strings"

type Blog struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Rewritten holds the output of a successful rewrite action.
type Rewritten struct {
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Content string `json:"content" yaml:"content"`
}

type Article struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Content   string     `json:"content" yaml:"content"`
	URL       string     `json:"url,omitempty" yaml:"url,omitempty"`
	Schedule  *string    `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Rewritten *Rewritten `json:"rewritten,omitempty" yaml:"rewritten,omitempty"`
	Posted    bool       `json:"posted,omitempty" yaml:"posted,omitempty"`
}

// ArticlePatch is a partial update keyed by article id. Nil fields are left
// untouched; a blank Schedule clears the schedule.
type ArticlePatch struct {
	Title     *string
	Schedule  *string
	Rewritten *Rewritten
	Posted    *bool
}

type ArticleStatus string

const (
	StatusPending   ArticleStatus = "Pending"
	StatusRewritten ArticleStatus = "Rewritten"
	StatusScheduled ArticleStatus = "Scheduled"
	StatusPosted    ArticleStatus = "Posted"
)

// NotScheduled is shown in the schedule column when an article has no schedule.
const NotScheduled = "Not scheduled"

// PreviewContent returns the rewritten body when present, otherwise the original.
func (a Article) PreviewContent() string {
	if a.Rewritten != nil {
		return a.Rewritten.Content
	}
	return a.Content
}

func (a Article) ScheduleLabel() string {
	if a.Schedule == nil || strings.TrimSpace(*a.Schedule) == "" {
		return NotScheduled
	}
	return *a.Schedule
}

// Status reports the furthest workflow stage the article has reached.
func (a Article) Status() ArticleStatus {
	switch {
	case a.Posted:
		return StatusPosted
	case a.Schedule != nil && strings.TrimSpace(*a.Schedule) != "":
		return StatusScheduled
	case a.Rewritten != nil:
		return StatusRewritten
	default:
		return StatusPending
	}
}

// Apply returns a copy of a with the non-nil fields of p merged in.
func (a Article) Apply(p ArticlePatch) Article {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Schedule != nil {
		if s := strings.TrimSpace(*p.Schedule); s != "" {
			a.Schedule = &s
		} else {
			a.Schedule = nil
		}
	}
	if p.Rewritten != nil {
		rw := *p.Rewritten
		a.Rewritten = &rw
	}
	if p.Posted != nil {
		a.Posted = *p.Posted
	}
	return a
}

// Clone deep-copies the pointer fields so callers can't alias session state.
func (a Article) Clone() Article {
	if a.Schedule != nil {
		s := *a.Schedule
		a.Schedule = &s
	}
	if a.Rewritten != nil {
		rw := *a.Rewritten
		a.Rewritten = &rw
	}
	return a
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Normalize maps unknown and empty severities to info.
func (s Severity) Normalize() Severity {
	switch s {
	case SeveritySuccess, SeverityError:
		return s
	default:
		return SeverityInfo
	}
}

func StrPtr(s string) *string { return &s }
func BoolPtr(b bool) *bool    { return &b }
