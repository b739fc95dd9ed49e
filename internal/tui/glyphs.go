package tui

import (
	"os"
	"strings"
	"sync"
)

// Fonts can't be changed from a terminal app, so affordances come in a Unicode
// and an ASCII set.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("REWRITER_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphCheckbox(checked bool) string {
	if glyphs() == glyphSetASCII {
		if checked {
			return "[x]"
		}
		return "[ ]"
	}
	if checked {
		return "◉"
	}
	return "○"
}
