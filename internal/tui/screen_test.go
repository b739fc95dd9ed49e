package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/workflow"
)

func TestScreen_SnapshotsAreStable(t *testing.T) {
	s := newScreen()
	s.RenderArticles([]workflow.Row{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}})
	s.SetRowSelected("1", true)
	before := s.state()

	s.UpdateRow(workflow.Row{ID: "1", Title: "A2", Status: model.StatusRewritten})
	s.SetRowSelected("2", true)

	if before.rows[0].Title != "A" {
		t.Fatalf("expected earlier snapshot rows untouched; got %q", before.rows[0].Title)
	}
	if before.selected["2"] {
		t.Fatalf("expected earlier snapshot selection untouched")
	}
	after := s.state()
	if after.rows[0].Title != "A2" || !after.selected["2"] {
		t.Fatalf("expected updates in new snapshot; got %+v %v", after.rows[0], after.selected)
	}
}

func TestScreen_RenderArticlesDropsSelection(t *testing.T) {
	s := newScreen()
	s.RenderArticles([]workflow.Row{{ID: "1"}})
	s.SetRowSelected("1", true)
	s.RenderArticles([]workflow.Row{{ID: "1"}})
	if len(s.state().selected) != 0 {
		t.Fatalf("expected a full render to clear toggles")
	}
}

func TestScreen_TakeClearsDirty(t *testing.T) {
	s := newScreen()
	if s.take() {
		t.Fatalf("expected fresh screen to be clean")
	}
	s.ShowLoading("x")
	if !s.take() {
		t.Fatalf("expected write to mark dirty")
	}
	if s.take() {
		t.Fatalf("expected take to reset dirty")
	}
}

func TestScreen_NotificationsRemoveByID(t *testing.T) {
	s := newScreen()
	s.ShowNotification(workflow.Notification{ID: "a", Message: "one"})
	s.ShowNotification(workflow.Notification{ID: "b", Message: "two"})
	s.RemoveNotification("a")
	s.RemoveNotification("missing")
	notes := s.state().notes
	if len(notes) != 1 || notes[0].ID != "b" {
		t.Fatalf("expected only b left; got %+v", notes)
	}
}

func TestFitCell(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{in: "abc", width: 5, want: "abc  "},
		{in: "abcdef", width: 4, want: "abc…"},
		{in: "abc", width: 1, want: "a"},
		{in: "abc", width: 0, want: ""},
	}
	for _, tc := range cases {
		if got := fitCell(tc.in, tc.width); got != tc.want {
			t.Fatalf("fitCell(%q, %d) = %q; want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestNormalizePane_ExactSize(t *testing.T) {
	t.Parallel()
	out := normalizePane("one\ntwo-long-line\nthree\nfour", 6, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines; got %d", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 6 {
			t.Fatalf("line %d width = %d; want 6 (%q)", i, w, ln)
		}
	}
}

func TestRenderInputLine_StaysOneLine(t *testing.T) {
	out := renderInputLine(20, "", "a\nb")
	if strings.Contains(out, "\n") {
		t.Fatalf("expected single line; got %q", out)
	}
	if w := xansi.StringWidth(out); w != 20 {
		t.Fatalf("expected width 20; got %d", w)
	}
}

func TestThemePreference_FromEnv(t *testing.T) {
	oldBG := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(oldBG) })

	t.Setenv("REWRITER_DARKBG", "")
	t.Setenv("COLORFGBG", "")
	t.Setenv("REWRITER_THEME", "light")
	applyThemePreference()
	if lipgloss.HasDarkBackground() {
		t.Fatalf("expected light background")
	}

	t.Setenv("REWRITER_THEME", "")
	t.Setenv("COLORFGBG", "15;0")
	applyThemePreference()
	if !lipgloss.HasDarkBackground() {
		t.Fatalf("expected COLORFGBG bg=0 to mean dark")
	}

	t.Setenv("REWRITER_DARKBG", "false")
	applyThemePreference()
	if lipgloss.HasDarkBackground() {
		t.Fatalf("expected REWRITER_DARKBG to win over COLORFGBG")
	}
}

func TestColorProfile_NoColor(t *testing.T) {
	old := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(old) })

	t.Setenv("NO_COLOR", "1")
	applyColorProfilePreference()
	if got := lipgloss.ColorProfile(); got != termenv.Ascii {
		t.Fatalf("expected ascii profile with NO_COLOR; got %v", got)
	}
}

func TestContextHelp_PrefixesTabKeys(t *testing.T) {
	t.Parallel()
	k := defaultKeyMap()
	got := contextHelp{keys: k, tab: string(workflow.TabArticles)}.ShortHelp()
	if len(got) != len(k.tabKeys("articles"))+len(k.ShortHelp()) {
		t.Fatalf("unexpected binding count %d", len(got))
	}
	if got[0].Help().Key != "space" {
		t.Fatalf("expected toggle binding first; got %q", got[0].Help().Key)
	}
	if len(contextHelp{keys: k, tab: "nope"}.ShortHelp()) != len(k.ShortHelp()) {
		t.Fatalf("expected only global keys for unknown tab")
	}
}

func TestBlogItems_MarksCurrent(t *testing.T) {
	t.Parallel()
	items := blogItems([]model.Blog{{ID: "a", Name: "A"}, {ID: "b"}}, "a")
	if got := items[0].(blogItem).Title(); !strings.HasPrefix(got, "A ") {
		t.Fatalf("expected current marker; got %q", got)
	}
	if got := items[1].(blogItem).Title(); got != "(unnamed blog)" {
		t.Fatalf("expected placeholder name; got %q", got)
	}

	l := newList("Blogs", items)
	selectListItemByID(&l, "b")
	if l.Index() != 1 {
		t.Fatalf("expected index 1; got %d", l.Index())
	}
	for _, k := range l.KeyMap.CursorUp.Keys() {
		if k == "ctrl+p" {
			return
		}
	}
	t.Fatalf("expected ctrl+p alias; got %v", l.KeyMap.CursorUp.Keys())
}
