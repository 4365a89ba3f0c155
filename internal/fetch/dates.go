package fetch

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

var monthDatePattern = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{1,2}),\s+(\d{4})`)

// dateSelectors are checked in order; the first parseable value wins.
var dateSelectors = []string{
	`meta[property='article:published_time']`,
	`meta[name='date']`,
	`time`,
}

// ExtractPublishDate finds a publish date in page metadata, a <time> element or
// a "Month D, YYYY" phrase in the text. Feeds report their newest item. The
// result is UTC, or nil when nothing parses.
func ExtractPublishDate(html string) *time.Time {
	if feed := parseFeed(html); feed != nil {
		return newestItemDate(feed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	for _, selector := range dateSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		for _, value := range []string{el.AttrOr("content", ""), el.AttrOr("datetime", ""), el.Text()} {
			if t := ParseDate(value); t != nil {
				return t
			}
		}
	}

	doc.Find("script, style, noscript").Remove()
	var b strings.Builder
	collectText(doc.Selection, &b)
	return findMonthDate(collapseWhitespace(b.String()))
}

func findMonthDate(text string) *time.Time {
	m := monthDatePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	t, err := time.Parse("Jan 2, 2006", m[1]+" "+m[2]+", "+m[3])
	if err != nil {
		return nil
	}
	return &t
}

// ParseDate parses a free-form date string. It returns nil for blank or
// unparseable input.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := dateparse.ParseIn(value, time.UTC); err == nil {
		utc := t.UTC()
		return &utc
	}
	// "Sept 1, 2025" and friends
	return findMonthDate(value)
}
