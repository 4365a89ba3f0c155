package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_RemovesNoise(t *testing.T) {
	html := `
	<html>
		<head><style>body { color: red; }</style></head>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Grand Opening</h1>
				<p>We opened a new clinic in Dallas.</p>
			</main>
			<script>var x = 1;</script>
			<footer>Footer</footer>
		</body>
	</html>`

	text := ExtractText(html)
	assert.Equal(t, "Grand Opening We opened a new clinic in Dallas.", text)
}

func TestExtractText_FallbackToBody(t *testing.T) {
	text := ExtractText("<html><body><div>Some   content\n\n here.</div><div>More.</div></body></html>")
	assert.Equal(t, "Some content here. More.", text)
}

func TestExtractText_Fragment(t *testing.T) {
	assert.Equal(t, "Book online today", ExtractText("<p>Book <b>online</b> today</p>"))
	assert.Equal(t, "", ExtractText(""))
}

func TestExtractMainText_ExtraNoiseSelectors(t *testing.T) {
	html := `<body><article><div class="promo">Promo</div><p>Body text.</p></article></body>`

	text, err := ExtractMainText(html, DefaultTextSelectors(), ".promo")
	require.NoError(t, err)
	assert.Equal(t, "Body text.", text)
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "basic",
			input:    "We are hiring. Apply now! Questions? Call us",
			expected: []string{"We are hiring.", "Apply now!", "Questions?", "Call us"},
		},
		{
			name:     "no split without whitespace",
			input:    "Visit example.com today. Thanks",
			expected: []string{"Visit example.com today.", "Thanks"},
		},
		{
			name:     "abbreviation splits too",
			input:    "Opened Sept. 1 in Dallas.",
			expected: []string{"Opened Sept.", "1 in Dallas."},
		},
		{
			name:     "blank",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "multiple spaces",
			input:    "One.   Two.",
			expected: []string{"One.", "Two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sentences(tt.input))
		})
	}
}

func TestDefaultTextSelectors(t *testing.T) {
	selectors := DefaultTextSelectors()
	assert.Contains(t, selectors, "main")
	assert.Contains(t, selectors, "article")
}
