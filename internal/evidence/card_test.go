package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/signal-agent/internal/types"
)

var now = time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func validated(published *time.Time) *types.ValidateResult {
	return &types.ValidateResult{
		OK:          true,
		SignalType:  types.SignalExpansion,
		EvidenceURL: "HTTPS://BrightSmile.com/news#plano",
		Snippet:     "  Grand opening of our new location at 1200 Main St  ",
		PublishedAt: published,
	}
}

func TestBuild(t *testing.T) {
	published := time.Date(2025, 9, 1, 0, 0, 0, 0, time.FixedZone("CDT", -5*3600))

	card, err := NewBuilder(WithClock(clock)).Build(context.Background(), validated(&published))
	require.NoError(t, err)

	assert.Equal(t, types.SignalExpansion, card.SignalType)
	assert.Equal(t, "https://brightsmile.com/news", card.CanonicalURL)
	assert.Equal(t, "brightsmile.com", card.SourceSite)
	assert.Equal(t, "Grand opening of our new location at 1200 Main St", card.Snippet)
	assert.Equal(t, time.Date(2025, 9, 1, 5, 0, 0, 0, time.UTC), card.FirstSeen)
	assert.Equal(t, time.UTC, card.FirstSeen.Location())
	assert.Equal(t, now, card.LastSeen)
	assert.InDelta(t, 0.68, card.Confidence, 1e-9)
	assert.Equal(t, "explicit_phrase,address_like; freshness=0.85", card.Explain)
	assert.Empty(t, card.ScreenshotPath)
}

func TestBuild_UnknownDate(t *testing.T) {
	v := validated(nil)
	v.SignalType = types.SignalHiring
	v.Snippet = "We are hiring a dental assistant"

	card, err := NewBuilder(WithClock(clock)).Build(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, now, card.FirstSeen)
	assert.InDelta(t, 0.36, card.Confidence, 1e-9)
	assert.Equal(t, "generic; freshness=0.90", card.Explain)
}

func TestBuild_TruncatesSnippetByRune(t *testing.T) {
	v := validated(nil)
	v.Snippet = strings.Repeat("ü", 400)

	card, err := NewBuilder(WithClock(clock)).Build(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, types.MaxSnippetRunes, len([]rune(card.Snippet)))
}

func TestBuild_ScoresFullSnippet(t *testing.T) {
	v := validated(nil)
	v.Snippet = strings.Repeat("a", 330) + " Grand opening at 1200 Main St"

	card, err := NewBuilder(WithClock(clock)).Build(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", types.MaxSnippetRunes), card.Snippet)
	assert.InDelta(t, 0.72, card.Confidence, 1e-9)
	assert.Equal(t, "explicit_phrase,address_like; freshness=0.90", card.Explain)
}

func TestBuild_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *types.ValidateResult)
	}{
		{"not ok", func(v *types.ValidateResult) { v.OK = false }},
		{"no url", func(v *types.ValidateResult) { v.EvidenceURL = "" }},
		{"no snippet", func(v *types.ValidateResult) { v.Snippet = "" }},
		{"relative url", func(v *types.ValidateResult) { v.EvidenceURL = "/news" }},
		{"missing signal type", func(v *types.ValidateResult) { v.SignalType = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validated(nil)
			tt.mutate(v)
			card, err := NewBuilder(WithClock(clock)).Build(context.Background(), v)
			assert.Error(t, err)
			assert.Nil(t, card)
		})
	}
}

type fakeShots struct {
	err  error
	urls []string
}

func (f *fakeShots) Screenshot(_ context.Context, url, path string) error {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte("png"), 0o644)
}

func TestBuild_Screenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	shots := &fakeShots{}

	card, err := NewBuilder(WithClock(clock), WithScreenshots(shots, dir)).Build(context.Background(), validated(nil))
	require.NoError(t, err)

	require.NotEmpty(t, card.ScreenshotPath)
	assert.Equal(t, dir, filepath.Dir(card.ScreenshotPath))
	assert.True(t, strings.HasPrefix(filepath.Base(card.ScreenshotPath), "brightsmile.com-"))
	assert.FileExists(t, card.ScreenshotPath)
	assert.Equal(t, []string{"https://brightsmile.com/news"}, shots.urls)

	// Same URL, same file name
	again, err := NewBuilder(WithClock(clock), WithScreenshots(shots, dir)).Build(context.Background(), validated(nil))
	require.NoError(t, err)
	assert.Equal(t, card.ScreenshotPath, again.ScreenshotPath)
}

func TestBuild_ScreenshotFailureKeepsCard(t *testing.T) {
	shots := &fakeShots{err: errors.New("chrome not found")}

	card, err := NewBuilder(WithClock(clock), WithScreenshots(shots, t.TempDir())).Build(context.Background(), validated(nil))
	require.NoError(t, err)
	assert.Empty(t, card.ScreenshotPath)
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, url, site string
		wantErr       bool
	}{
		{"https://a.com", "https://a.com/", "a.com", false},
		{"HTTP://WWW.A.com/Jobs?id=3#apply", "http://www.a.com/Jobs?id=3", "www.a.com", false},
		{"https://a.com:8443/x", "https://a.com:8443/x", "a.com", false},
		{"mailto:hi@a.com", "", "", true},
		{"news", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, site, err := Canonicalize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, u)
			assert.Equal(t, tt.site, site)
		})
	}
}
