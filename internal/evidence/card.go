// Package evidence turns a validated signal into a scored, timestamped evidence card.
package evidence

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/scoring"
	"github.com/jonathan/signal-agent/internal/types"
)

// Screenshotter captures a page image to a file
type Screenshotter interface {
	Screenshot(ctx context.Context, url, path string) error
}

// Builder creates evidence cards
type Builder struct {
	now           func() time.Time
	screenshots   Screenshotter
	screenshotDir string
	logger        *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithClock overrides the creation time source
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithScreenshots captures the evidence page into dir for every card
func WithScreenshots(s Screenshotter, dir string) Option {
	return func(b *Builder) {
		b.screenshots = s
		b.screenshotDir = dir
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build scores the signal and returns its card. The result must carry evidence
// (see ValidateResult.HasEvidence) and a known signal type.
func (b *Builder) Build(ctx context.Context, v *types.ValidateResult) (*types.EvidenceCard, error) {
	if !v.HasEvidence() {
		return nil, fmt.Errorf("validate result has no evidence")
	}

	canonical, site, err := Canonicalize(v.EvidenceURL)
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()
	weight := scoring.FreshnessWeight(v.PublishedAt, now)
	full := strings.TrimSpace(v.Snippet)
	confidence, reasons := scoring.Confidence(v.SignalType, full, weight)
	snippet := truncateRunes(full, types.MaxSnippetRunes)

	firstSeen := now
	if v.PublishedAt != nil {
		firstSeen = v.PublishedAt.UTC()
	}

	card := &types.EvidenceCard{
		SignalType:   v.SignalType,
		CanonicalURL: canonical,
		FirstSeen:    firstSeen,
		LastSeen:     now,
		Snippet:      snippet,
		Confidence:   confidence,
		Explain:      fmt.Sprintf("%s; freshness=%.2f", reasons, scoring.Round2(weight)),
		SourceSite:   site,
	}
	if err := types.Validate(card); err != nil {
		return nil, fmt.Errorf("invalid evidence card: %w", err)
	}

	if b.screenshots != nil && b.screenshotDir != "" {
		card.ScreenshotPath = b.capture(ctx, canonical, site)
	}
	return card, nil
}

// capture saves a screenshot and returns its path, or "" when capture fails.
func (b *Builder) capture(ctx context.Context, canonical, site string) string {
	if err := os.MkdirAll(b.screenshotDir, 0o755); err != nil {
		b.logger.Warn("failed to create screenshot dir", zap.String("dir", b.screenshotDir), zap.Error(err))
		return ""
	}
	name := fmt.Sprintf("%s-%s.png", site, uuid.NewSHA1(uuid.NameSpaceURL, []byte(canonical)).String()[:8])
	path := filepath.Join(b.screenshotDir, name)
	if err := b.screenshots.Screenshot(ctx, canonical, path); err != nil {
		b.logger.Warn("screenshot failed", zap.String("url", canonical), zap.Error(err))
		return ""
	}
	return path
}

// Canonicalize normalizes an evidence URL and returns it with its host.
// Scheme and host are lowercased and any fragment is dropped.
func Canonicalize(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid evidence url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", fmt.Errorf("invalid evidence url %q: must be absolute http(s)", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), u.Hostname(), nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
