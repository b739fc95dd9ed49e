package preview

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

const (
	StyleDark  = "dark"
	StyleLight = "light"
)

var (
	textColor   = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"}
	accentColor = lipgloss.AdaptiveColor{Light: "#0B7A75", Dark: "#3FC1B0"}
	codeBgColor = lipgloss.AdaptiveColor{Light: "#EEF1F4", Dark: "#2A2F36"}
)

// Renderer renders article bodies with glamour. Term renderers are cached per
// style and wrap width; building one with auto style can block on terminal queries.
type Renderer struct {
	style string

	mu    sync.Mutex
	cache map[string]*glamour.TermRenderer
}

// NewRenderer uses style, or DetectStyle() when style is empty.
func NewRenderer(style string) *Renderer {
	style = normalizeStyle(style)
	if style == "" {
		style = DetectStyle()
	}
	return &Renderer{style: style, cache: map[string]*glamour.TermRenderer{}}
}

func (r *Renderer) Style() string { return r.style }

// Render converts content to markdown and renders it wrapped to width. Rendering
// failures fall back to the unstyled markdown, then to plain text.
func (r *Renderer) Render(content string, width int) string {
	mdText, err := ToMarkdown(content)
	if err != nil {
		return PlainText(content)
	}
	if mdText == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	tr, err := r.termRenderer(width)
	if err != nil {
		return mdText
	}
	out, err := tr.Render(mdText)
	if err != nil {
		return mdText
	}
	return strings.TrimRight(out, "\n")
}

func (r *Renderer) termRenderer(width int) (*glamour.TermRenderer, error) {
	key := r.style + ":" + strconv.Itoa(width)

	r.mu.Lock()
	tr := r.cache[key]
	r.mu.Unlock()
	if tr != nil {
		return tr, nil
	}

	cfg := styleConfig(r.style)
	zero := uint(0)
	cfg.Document.Margin = &zero
	built, err := glamour.NewTermRenderer(
		glamour.WithStyles(cfg),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have filled it meanwhile.
	if existing := r.cache[key]; existing != nil {
		return existing, nil
	}
	r.cache[key] = built
	return built, nil
}

func styleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == StyleLight {
		cfg = styles.LightStyleConfig
	}
	applyPalette(&cfg, style)
	return cfg
}

func applyPalette(cfg *ansi.StyleConfig, style string) {
	heading := colorFor(textColor, style)
	cfg.Heading.Color = heading
	cfg.H1.Color = heading
	cfg.H2.Color = heading
	cfg.H3.Color = heading

	link := colorFor(accentColor, style)
	cfg.Link.Color = link
	cfg.Link.Underline = boolPtr(true)
	cfg.LinkText.Color = link

	cfg.Text.Color = colorFor(textColor, style)
	cfg.Code.Color = colorFor(textColor, style)
	cfg.CodeBlock.Color = colorFor(textColor, style)
	if cfg.CodeBlock.BackgroundColor == nil {
		cfg.CodeBlock.BackgroundColor = colorFor(codeBgColor, style)
	}
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = boolPtr(false)
}

// DetectStyle picks dark or light without querying the terminal when the
// environment already says which: REWRITER_MD_STYLE, then REWRITER_THEME, then
// COLORFGBG, then lipgloss background detection.
func DetectStyle() string {
	for _, env := range []string{"REWRITER_MD_STYLE", "REWRITER_THEME"} {
		if s := normalizeStyle(os.Getenv(env)); s != "" {
			return s
		}
	}
	// COLORFGBG is "fg;bg"; xterm colors 7-15 are light.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil && bg >= 0 {
			if bg >= 7 {
				return StyleLight
			}
			return StyleDark
		}
	}
	if lipgloss.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

func normalizeStyle(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StyleDark:
		return StyleDark
	case StyleLight:
		return StyleLight
	default:
		return ""
	}
}

func colorFor(c lipgloss.AdaptiveColor, style string) *string {
	if style == StyleLight {
		return &c.Light
	}
	return &c.Dark
}

func boolPtr(b bool) *bool { return &b }
