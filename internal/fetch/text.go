package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector lists page chrome that never carries a signal.
const noiseSelector = "script, style, noscript, template, svg, iframe, nav, footer, header, form, " +
	".ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup, [aria-hidden='true']"

// DefaultTextSelectors returns standard selectors for the main content region.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		"[role='main']",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// ExtractText returns the readable text of an HTML page (or RSS/Atom feed) with
// runs of whitespace collapsed to single spaces. Unparseable input yields "".
func ExtractText(html string) string {
	if feed := parseFeed(html); feed != nil {
		return feedText(feed)
	}
	text, err := ExtractMainText(html, DefaultTextSelectors())
	if err != nil {
		return ""
	}
	return text
}

// ExtractMainText removes noise elements, then returns the text of the first
// element matching contentSelectors, falling back to the body.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find(noiseSelector).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}
	if main.Length() == 0 {
		main = doc.Selection
	}

	var b strings.Builder
	collectText(main, &b)
	return collapseWhitespace(b.String()), nil
}

// collectText writes every text node under s separated by spaces, so adjacent
// block elements do not run together.
func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			b.WriteByte(' ')
			return
		}
		collectText(c, b)
	})
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace.
// Segments are trimmed; blank segments are dropped.
func Sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if i+1 < len(runes) && isSpace(runes[i+1]) {
			out = appendSentence(out, string(runes[start:i+1]))
			start = i + 1
		}
	}
	return appendSentence(out, string(runes[start:]))
}

func appendSentence(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v', 0x85, 0xA0:
		return true
	}
	return false
}
