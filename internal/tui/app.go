package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"rewriter-cli/internal/model"
	"rewriter-cli/internal/preview"
	"rewriter-cli/internal/publish"
	"rewriter-cli/internal/workflow"
)

// Options configures the interactive program.
type Options struct {
	Workflow workflow.Options
	// APIKey pre-fills the session key (from env or config).
	APIKey string
	// ExportDir receives activity log and article exports; defaults to the
	// working directory.
	ExportDir string
	// MarkdownStyle is "dark", "light" or empty for detection.
	MarkdownStyle string
	Context       context.Context
}

type refreshTickMsg struct{}

// actionDoneMsg reports a finished workflow command. The controller has already
// surfaced any error as a notification.
type actionDoneMsg struct {
	action string
	err    error
}

const (
	actionBlogs   = "refresh_blogs"
	actionFetch   = "fetch_articles"
	actionRewrite = "rewrite"
	actionPost    = "post"
	actionExport  = "export"
)

// maxToasts caps how many notifications are drawn at once; older ones still
// expire on their own timers.
const maxToasts = 3

type appModel struct {
	ctx      context.Context
	ctrl     *workflow.Controller
	scr      *screen
	keys     keyMap
	help     help.Model
	renderer *preview.Renderer

	width  int
	height int

	apiKeyInput  textinput.Model
	sitemapInput textinput.Model
	inputFocused bool

	blogList list.Model

	cursor int

	preview      viewport.Model
	previewRev   int
	previewWidth int

	spinner  spinner.Model
	spinning bool

	activityLevel model.Severity
	exportDir     string
	now           func() time.Time
}

func newAppModel(backend workflow.Backend, opts Options) appModel {
	scr := newScreen()
	ctrl := workflow.New(backend, scr, opts.Workflow)
	ctrl.Start()
	if k := strings.TrimSpace(opts.APIKey); k != "" {
		ctrl.SetAPIKey(k)
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Workflow.Now
	if now == nil {
		now = time.Now
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	apiKey := textinput.New()
	apiKey.Prompt = ""
	apiKey.Placeholder = "paste your API key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.SetValue(ctrl.APIKey())

	sitemap := textinput.New()
	sitemap.Prompt = ""
	sitemap.Placeholder = ctrl.DefaultSitemap()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := appModel{
		ctx:          ctx,
		ctrl:         ctrl,
		scr:          scr,
		keys:         defaultKeyMap(),
		help:         help.New(),
		renderer:     preview.NewRenderer(opts.MarkdownStyle),
		apiKeyInput:  apiKey,
		sitemapInput: sitemap,
		blogList:     newList("Blogs", nil),
		preview:      viewport.New(0, 0),
		spinner:      sp,
		exportDir:    exportDir,
		now:          now,
		width:        100,
		height:       30,
	}
	m.resize()
	m.focusInputForTab()
	m.sync()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickRefresh())
}

// tickRefresh repaints periodically so notifications expire and command
// results show up without input.
func tickRefresh() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.sync()
		return m, nil

	case refreshTickMsg:
		if m.scr.take() {
			m.sync()
		}
		spin := m.ensureSpinner()
		return m, tea.Batch(tickRefresh(), spin)

	case actionDoneMsg:
		m.scr.take()
		m.sync()
		if msg.action == actionFetch && msg.err == nil {
			m.switchTab(workflow.TabArticles)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.scr.state().loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.scr.state().loading {
		return m.handleLoadingKey(msg)
	}

	tab := m.scr.state().tab
	if tab == workflow.TabBlogs && m.blogList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.blogList, cmd = m.blogList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(m.ctrl.TabOffset(1))
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(m.ctrl.TabOffset(-1))
		return m, nil
	}

	if m.inputFocused {
		return m.handleInputKey(tab, msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.JumpTab):
		if t := m.ctrl.TabAt(int(msg.String()[0] - '0')); t != "" {
			m.switchTab(t)
		}
		return m, nil
	}

	switch tab {
	case workflow.TabSettings, workflow.TabSitemap:
		if key.Matches(msg, m.keys.Enter) {
			m.focusInputForTab()
			return m.handleInputKey(tab, msg)
		}
		if key.Matches(msg, m.keys.ToggleKey) && tab == workflow.TabSettings {
			m.ctrl.ToggleAPIKeyVisibility()
			m.sync()
		}
		return m, nil
	case workflow.TabBlogs:
		return m.handleBlogsKey(msg)
	case workflow.TabArticles:
		return m.handleArticlesKey(msg)
	case workflow.TabActivity:
		return m.handleActivityKey(msg)
	}
	return m, nil
}

// handleLoadingKey keeps navigation live under the loading overlay. Keys that
// start workflow actions are dropped until the command finishes.
func (m appModel) handleLoadingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(m.ctrl.TabOffset(1))
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(m.ctrl.TabOffset(-1))
	case msg.String() == "esc":
		m.blurInputs()
	case m.inputFocused:
		// typing waits for the action too
	case key.Matches(msg, m.keys.JumpTab):
		if t := m.ctrl.TabAt(int(msg.String()[0] - '0')); t != "" {
			m.switchTab(t)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m appModel) handleInputKey(tab workflow.Tab, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.blurInputs()
		return m, nil
	case key.Matches(msg, m.keys.ToggleKey) && tab == workflow.TabSettings:
		m.ctrl.ToggleAPIKeyVisibility()
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		switch tab {
		case workflow.TabSettings:
			m.ctrl.SetAPIKey(m.apiKeyInput.Value())
			if m.ctrl.APIKey() == "" {
				m.ctrl.Notify("API key cleared", model.SeverityInfo)
			} else {
				m.ctrl.Notify("API key set for this session", model.SeveritySuccess)
			}
			m.sync()
			return m, nil
		case workflow.TabSitemap:
			raw := m.sitemapInput.Value()
			cmd := m.run(actionFetch, func(ctx context.Context) error {
				return m.ctrl.FetchArticles(ctx, raw)
			})
			return m, cmd
		}
	}
	return m.updateFocused(msg)
}

func (m appModel) handleBlogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.run(actionBlogs, m.ctrl.RefreshBlogs)
		return m, cmd
	case key.Matches(msg, m.keys.Enter):
		if it, ok := m.blogList.SelectedItem().(blogItem); ok {
			if err := m.ctrl.SelectBlog(it.blog.ID); err == nil {
				m.ctrl.Notify(fmt.Sprintf("Posting to %s", it.Title()), model.SeverityInfo)
			}
			m.sync()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.blogList, cmd = m.blogList.Update(msg)
	return m, cmd
}

func (m appModel) handleArticlesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.scr.state().rows
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.previewCursor(rows)
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
			m.previewCursor(rows)
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(rows) {
			m.ctrl.ToggleRow(rows[m.cursor].ID)
			m.sync()
		}
	case key.Matches(msg, m.keys.Rewrite):
		cmd := m.run(actionRewrite, m.ctrl.RewriteSelected)
		return m, cmd
	case key.Matches(msg, m.keys.Schedule):
		_ = m.ctrl.ScheduleSelected(m.now())
		m.sync()
	case key.Matches(msg, m.keys.Unschedule):
		_ = m.ctrl.ClearSchedule()
		m.sync()
	case key.Matches(msg, m.keys.Post):
		cmd := m.run(actionPost, m.ctrl.PostSelected)
		return m, cmd
	case key.Matches(msg, m.keys.ExportMD):
		dir := filepath.Join(m.exportDir, "rewriter-export-"+m.now().Format("20060102-150405"))
		_ = m.ctrl.ExportSelected(dir, publish.WriteOptions{})
		m.sync()
	case key.Matches(msg, m.keys.Interval):
		step := 5
		if msg.String() == "-" {
			step = -5
		}
		next := m.ctrl.ScheduleInterval() + step
		if next < workflow.MinScheduleInterval {
			next = workflow.MinScheduleInterval
		}
		if next > workflow.MaxScheduleInterval {
			next = workflow.MaxScheduleInterval
		}
		_ = m.ctrl.SetScheduleInterval(next)
	case key.Matches(msg, m.keys.ScrollDown):
		m.preview.HalfViewDown()
	case key.Matches(msg, m.keys.ScrollUp):
		m.preview.HalfViewUp()
	}
	return m, nil
}

// previewCursor follows the cursor with the preview pane.
func (m *appModel) previewCursor(rows []workflow.Row) {
	if m.cursor < len(rows) {
		m.ctrl.SelectArticle(rows[m.cursor].ID)
		m.sync()
	}
}

func (m appModel) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Filter):
		m.activityLevel = nextLevel(m.activityLevel)
	case key.Matches(msg, m.keys.Export):
		log := m.ctrl.Activity()
		path := filepath.Join(m.exportDir, fmt.Sprintf("rewriter-activity-%s.log", m.now().Format("20060102-150405")))
		cmd := m.run(actionExport, func(context.Context) error {
			return exportActivity(m.ctrl, log, path)
		})
		return m, cmd
	case key.Matches(msg, m.keys.ClearLog):
		// Notify first: the toast still shows, but the log ends up empty.
		m.ctrl.Notify("Activity log cleared", model.SeverityInfo)
		m.ctrl.Activity().Clear()
		m.sync()
	}
	return m, nil
}

func exportActivity(ctrl *workflow.Controller, log *workflow.ActivityLog, path string) error {
	f, err := os.Create(path)
	if err == nil {
		_, err = log.WriteTo(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		ctrl.Notify(fmt.Sprintf("Failed to save log: %v", err), model.SeverityError)
		return err
	}
	ctrl.Notify("Saved activity log to "+path, model.SeveritySuccess)
	return nil
}

func nextLevel(cur model.Severity) model.Severity {
	switch cur {
	case "":
		return model.SeverityInfo
	case model.SeverityInfo:
		return model.SeveritySuccess
	case model.SeveritySuccess:
		return model.SeverityError
	default:
		return ""
	}
}

// run executes a workflow command off the update loop.
func (m *appModel) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	cmd := func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
	if m.spinning {
		return cmd
	}
	m.spinning = true
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *appModel) ensureSpinner() tea.Cmd {
	if m.spinning || !m.scr.state().loading {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *appModel) switchTab(t workflow.Tab) {
	m.ctrl.SwitchTab(t)
	m.focusInputForTab()
	m.sync()
}

func (m *appModel) focusInputForTab() {
	m.blurInputs()
	switch m.ctrl.ActiveTab() {
	case workflow.TabSettings:
		m.apiKeyInput.Focus()
		m.inputFocused = true
	case workflow.TabSitemap:
		m.sitemapInput.Focus()
		m.inputFocused = true
	}
}

func (m *appModel) blurInputs() {
	m.apiKeyInput.Blur()
	m.sitemapInput.Blur()
	m.inputFocused = false
}

func (m appModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.apiKeyInput.Focused():
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
	case m.sitemapInput.Focused():
		m.sitemapInput, cmd = m.sitemapInput.Update(msg)
	}
	return m, cmd
}

// sync pulls controller-written view state into the widgets.
func (m *appModel) sync() {
	st := m.scr.state()

	if st.masked {
		m.apiKeyInput.EchoMode = textinput.EchoPassword
	} else {
		m.apiKeyInput.EchoMode = textinput.EchoNormal
	}

	cur := ""
	if it, ok := m.blogList.SelectedItem().(blogItem); ok {
		cur = it.blog.ID
	}
	m.blogList.SetItems(blogItems(st.blogs, st.blogID))
	if cur != "" {
		selectListItemByID(&m.blogList, cur)
	}

	if m.cursor >= len(st.rows) {
		m.cursor = len(st.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	if st.previewRev != m.previewRev || m.preview.Width != m.previewWidth {
		m.previewRev = st.previewRev
		m.previewWidth = m.preview.Width
		m.preview.SetContent(m.renderer.Render(st.preview, m.preview.Width))
		m.preview.GotoTop()
	}
}
