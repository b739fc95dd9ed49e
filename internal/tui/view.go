package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/workflow"
)

const (
	splitMinWidth = 90
	colMark       = 4
	colSchedule   = 21
	colStatus     = 10
	colWords      = 6
)

var tabLabels = map[workflow.Tab]string{
	workflow.TabSettings: "Settings",
	workflow.TabBlogs:    "Blogs",
	workflow.TabSitemap:  "Sitemap",
	workflow.TabArticles: "Articles",
	workflow.TabActivity: "Activity",
}

func (m appModel) View() string {
	st := m.scr.state()
	parts := []string{
		m.viewHeader(st),
		m.viewTabs(st),
		m.viewBody(st),
		m.viewToasts(st),
		m.help.View(contextHelp{keys: m.keys, tab: string(st.tab)}),
	}
	return strings.Join(parts, "\n")
}

// bodyHeight is what remains after header, tabs, toasts and help.
func (m appModel) bodyHeight() int {
	helpH := lipgloss.Height(m.help.View(m.keys))
	h := m.height - 2 - maxToasts - helpH
	if h < 6 {
		h = 6
	}
	return h
}

func (m *appModel) resize() {
	bodyH := m.bodyHeight()
	m.blogList.SetSize(max(m.width, 20), bodyH-1)
	inputW := min(max(m.width-6, 10), 80)
	m.apiKeyInput.Width = inputW
	m.sitemapInput.Width = inputW

	pw, ph := m.previewSize(bodyH)
	m.preview.Width = pw
	m.preview.Height = ph
}

// previewSize is the viewport size inside the preview pane border.
func (m appModel) previewSize(bodyH int) (int, int) {
	if m.width >= splitMinWidth {
		_, right := splitWidths(m.width)
		return max(right-2, 1), max(bodyH-2, 1)
	}
	return max(m.width-2, 1), max(bodyH-bodyH/2-2, 1)
}

func splitWidths(width int) (left, right int) {
	left = width * 55 / 100
	return left, width - left
}

func (m appModel) viewHeader(st screenState) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("Article Rewriter")
	key := "unset"
	if m.ctrl.APIKey() != "" {
		key = "set"
	}
	blog := "-"
	for _, b := range st.blogs {
		if b.ID == st.blogID {
			blog = b.Name
		}
	}
	meta := fmt.Sprintf("key: %s  blog: %s  articles: %d  selected: %d  interval: %dm",
		key, blog, len(st.rows), len(st.selected), m.ctrl.ScheduleInterval())
	return fitCell(title+"  "+styleMuted().Render(meta), m.width)
}

func (m appModel) viewTabs(st screenState) string {
	var cells []string
	for i, t := range st.tabs {
		label := tabLabels[t]
		if label == "" {
			label = string(t)
		}
		cells = append(cells, styleTab(t == st.tab).Render(strconv.Itoa(i+1)+" "+label))
	}
	return fitCell(lipgloss.JoinHorizontal(lipgloss.Top, cells...), m.width)
}

func (m appModel) viewBody(st screenState) string {
	bodyH := m.bodyHeight()
	if st.loading {
		box := styleOverlay().Render(m.spinner.View() + " " + st.loadingMsg)
		return lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, box)
	}

	var body string
	switch st.tab {
	case workflow.TabSettings:
		body = m.viewSettings(st)
	case workflow.TabBlogs:
		body = m.viewBlogs(st)
	case workflow.TabSitemap:
		body = m.viewSitemap()
	case workflow.TabArticles:
		body = m.viewArticles(st, bodyH)
	case workflow.TabActivity:
		body = m.viewActivity(bodyH)
	}
	return normalizePane(body, m.width, bodyH)
}

func (m appModel) viewSettings(st screenState) string {
	w := m.apiKeyInput.Width + 2
	hint := "enter: use key  ctrl+t: show  esc: leave input"
	if !st.masked {
		hint = "enter: use key  ctrl+t: hide  esc: leave input"
	}
	return strings.Join([]string{
		"",
		renderInputLine(w, "API key", m.apiKeyInput.View()),
		styleMuted().Render(hint),
		"",
		styleMuted().Render("The key lives only in memory and is sent with blog and rewrite requests."),
	}, "\n")
}

func (m appModel) viewBlogs(st screenState) string {
	if len(st.blogs) == 0 {
		return "\n" + styleMuted().Render("No blogs loaded. Press r to refresh.")
	}
	return styleMuted().Render("enter selects the blog used for posting") + "\n" + m.blogList.View()
}

func (m appModel) viewSitemap() string {
	w := m.sitemapInput.Width + 2
	return strings.Join([]string{
		"",
		renderInputLine(w, "Sitemap URL", m.sitemapInput.View()),
		styleMuted().Render("enter: fetch articles (empty uses " + m.ctrl.DefaultSitemap() + ")"),
	}, "\n")
}

func (m appModel) viewArticles(st screenState, bodyH int) string {
	if m.width >= splitMinWidth {
		left, right := splitWidths(m.width)
		table := normalizePane(m.renderTable(st, left-1, bodyH), left-1, bodyH)
		pane := stylePane().Width(right - 2).Height(bodyH - 2).Render(m.preview.View())
		return lipgloss.JoinHorizontal(lipgloss.Top, table, " ", pane)
	}
	tableH := bodyH / 2
	table := normalizePane(m.renderTable(st, m.width, tableH), m.width, tableH)
	pane := stylePane().Width(m.width - 2).Height(bodyH - tableH - 2).Render(m.preview.View())
	return table + "\n" + pane
}

func (m appModel) renderTable(st screenState, width, height int) string {
	if len(st.rows) == 0 {
		return "\n" + styleMuted().Render("No articles. Fetch a sitemap from the Sitemap tab.")
	}
	titleW := max(width-colMark-colSchedule-colStatus-colWords, 8)

	header := lipgloss.NewStyle().Bold(true).Render(
		fitCell("", colMark) + fitCell("Title", titleW) + fitCell("Schedule", colSchedule) +
			fitCell("Status", colStatus) + fitCell("Words", colWords))
	lines := []string{header}

	visible := max(height-1, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(st.rows) && i < start+visible; i++ {
		row := st.rows[i]
		cur := i == m.cursor
		mark := " "
		if cur {
			mark = glyphCursor()
		}
		mark += glyphCheckbox(st.selected[row.ID])
		status := styleStatus(row.Status).Render(fitCell(string(row.Status), colStatus))
		line := fitCell(mark, colMark) + fitCell(row.Title, titleW) + fitCell(row.Schedule, colSchedule) +
			status + fitCell(strconv.Itoa(row.Words), colWords)
		lines = append(lines, styleRow(cur, st.selected[row.ID]).Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewActivity(bodyH int) string {
	filter := "all"
	if m.activityLevel != "" {
		filter = string(m.activityLevel)
	}
	entries := m.ctrl.Activity().Entries(m.activityLevel)
	lines := []string{styleMuted().Render(fmt.Sprintf("filter: %s  entries: %d", filter, len(entries)))}
	if len(entries) == 0 {
		return strings.Join(append(lines, "", styleMuted().Render("Nothing yet.")), "\n")
	}
	room := max(bodyH-1, 1)
	if len(entries) > room {
		entries = entries[len(entries)-room:]
	}
	for _, e := range entries {
		lines = append(lines, lipgloss.NewStyle().Foreground(severityColor(e.Level)).Render(e.String()))
	}
	return strings.Join(lines, "\n")
}

// viewToasts always takes maxToasts lines so the layout doesn't jump.
func (m appModel) viewToasts(st screenState) string {
	notes := st.notes
	if len(notes) > maxToasts {
		notes = notes[len(notes)-maxToasts:]
	}
	lines := make([]string, 0, maxToasts)
	for _, n := range notes {
		lines = append(lines, fitCell(styleToast(n.Severity).Render(toastText(n)), m.width))
	}
	for len(lines) < maxToasts {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func toastText(n workflow.Notification) string {
	switch n.Severity {
	case model.SeverityError:
		return "✗ " + n.Message
	case model.SeveritySuccess:
		return "✓ " + n.Message
	default:
		return n.Message
	}
}
