package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublishDate(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "article published time",
			html:     `<html><head><meta property="article:published_time" content="2025-09-01T10:00:00Z"></head><body></body></html>`,
			expected: "2025-09-01",
		},
		{
			name:     "meta name date",
			html:     `<html><head><meta name="date" content="2025-08-15"></head><body></body></html>`,
			expected: "2025-08-15",
		},
		{
			name:     "time datetime attribute",
			html:     `<html><body><time datetime="2025-07-04">July 4th</time></body></html>`,
			expected: "2025-07-04",
		},
		{
			name:     "time text",
			html:     `<html><body><time>March 3, 2025</time></body></html>`,
			expected: "2025-03-03",
		},
		{
			name:     "month pattern in text",
			html:     `<html><body><p>We opened a new clinic in Dallas on Sept 1, 2025.</p></body></html>`,
			expected: "2025-09-01",
		},
		{
			name:     "meta wins over text",
			html:     `<html><head><meta property="article:published_time" content="2025-01-02"></head><body>Posted Dec 25, 2024</body></html>`,
			expected: "2025-01-02",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPublishDate(tt.html)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestExtractPublishDate_None(t *testing.T) {
	assert.Nil(t, ExtractPublishDate(`<html><body><p>No dates here.</p></body></html>`))
	assert.Nil(t, ExtractPublishDate(`<html><body><time>soon</time></body></html>`))
	assert.Nil(t, ExtractPublishDate(""))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2025-09-01", "2025-09-01"},
		{"2025-09-01T08:30:00Z", "2025-09-01"},
		{"September 1, 2025", "2025-09-01"},
		{"Sept 1, 2025", "2025-09-01"},
		{"  Sep 1, 2025 ", "2025-09-01"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDate(tt.input)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Format("2006-01-02"))
		})
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("recently"))
}

func TestExtractPublishDate_Feed(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Bright Smile News</title>
  <item>
    <title>Now open in Plano</title>
    <description>Our second location is now open</description>
    <pubDate>Mon, 01 Sep 2025 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Summer hours</title>
    <pubDate>Tue, 01 Jul 2025 09:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

	got := ExtractPublishDate(feed)
	require.NotNil(t, got)
	assert.Equal(t, "2025-09-01", got.Format("2006-01-02"))

	text := ExtractText(feed)
	assert.Equal(t, "Now open in Plano. Our second location is now open. Summer hours.", text)
}
