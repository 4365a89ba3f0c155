package fetch

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// parseFeed returns the parsed feed when body is RSS, Atom or JSON Feed.
func parseFeed(body string) *gofeed.Feed {
	if gofeed.DetectFeedType(strings.NewReader(body)) == gofeed.FeedTypeUnknown {
		return nil
	}
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil
	}
	return feed
}

// feedText joins item titles and descriptions, one sentence-terminated entry each.
func feedText(feed *gofeed.Feed) string {
	var parts []string
	for _, item := range feed.Items {
		for _, s := range []string{item.Title, item.Description} {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if strings.ContainsRune(s, '<') {
				if text, err := ExtractMainText(s, nil); err == nil {
					s = text
				}
			}
			if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
				s += "."
			}
			parts = append(parts, s)
		}
	}
	return collapseWhitespace(strings.Join(parts, " "))
}

func newestItemDate(feed *gofeed.Feed) *time.Time {
	var newest *time.Time
	for _, item := range feed.Items {
		t := item.PublishedParsed
		if t == nil {
			t = item.UpdatedParsed
		}
		if t == nil {
			continue
		}
		if newest == nil || t.After(*newest) {
			utc := t.UTC()
			newest = &utc
		}
	}
	return newest
}
