// Package preview turns article bodies (HTML or markdown) into terminal text.
package preview

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var htmlTag = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][a-zA-Z0-9-]*(\s[^>]*)?/?>`)

// Elements that never carry readable article text.
const strippedElements = "script, style, noscript, iframe, object, embed, template, form, svg"

var converter = md.NewConverter("", true, nil)

// LooksLikeHTML reports whether content contains at least one element tag.
func LooksLikeHTML(content string) bool {
	return htmlTag.MatchString(content)
}

// ToMarkdown converts an HTML body to markdown after dropping active content.
// Non-HTML input is returned trimmed.
func ToMarkdown(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || !LooksLikeHTML(content) {
		return content, nil
	}
	doc, err := sanitize(content)
	if err != nil {
		return "", err
	}
	html, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	out, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// PlainText flattens content to whitespace-collapsed text.
func PlainText(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if !LooksLikeHTML(content) {
		return collapse(content)
	}
	doc, err := sanitize(content)
	if err != nil {
		return collapse(htmlTag.ReplaceAllString(content, " "))
	}
	var parts []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// WordCount counts whitespace-separated words of the plain text.
func WordCount(content string) int {
	return len(strings.Fields(PlainText(content)))
}

// Excerpt is PlainText cut to at most n runes, with an ellipsis when cut.
func Excerpt(content string, n int) string {
	text := []rune(PlainText(content))
	if n <= 0 || len(text) <= n {
		return string(text)
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(text[:n-1])) + "…"
}

func sanitize(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	doc.Find(strippedElements).Remove()
	doc.Find("*").Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "#comment"
	}).Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		var handlers []string
		for _, node := range s.Nodes {
			for _, attr := range node.Attr {
				if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
					handlers = append(handlers, attr.Key)
				}
			}
		}
		for _, key := range handlers {
			s.RemoveAttr(key)
		}
		if href, ok := s.Attr("href"); ok && isScriptURL(href) {
			s.RemoveAttr("href")
		}
		if src, ok := s.Attr("src"); ok && isScriptURL(src) {
			s.RemoveAttr("src")
		}
	})
	return doc, nil
}

func isScriptURL(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
