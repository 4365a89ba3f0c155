package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/jonathan/signal-agent/internal/tools"
	"go.uber.org/zap"
)

var _ tools.Web = (*Web)(nil)

// Config configures the Web collaborator.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	MinDelay      time.Duration
	MaxDelay      time.Duration
	RespectRobots bool
	UseBrowser    bool
	CacheTTL      time.Duration
}

// DefaultConfig returns polite crawling defaults: robots.txt honored and a
// 1-1.5s delay between requests to the same host.
func DefaultConfig() Config {
	return Config{
		UserAgent:     DefaultUserAgent,
		Timeout:       DefaultTimeout,
		MinDelay:      time.Second,
		MaxDelay:      1500 * time.Millisecond,
		RespectRobots: true,
	}
}

// Option customizes a Web.
type Option func(*Web)

// WithHTTPClient replaces the HTTP client used for pages and robots.txt.
func WithHTTPClient(client *http.Client) Option {
	return func(w *Web) { w.client = client }
}

// WithCache stores fetched pages in cache and serves fresh copies from it.
func WithCache(cache PageCache) Option {
	return func(w *Web) { w.cache = cache }
}

// WithRenderer sets the browser used for the short-content fallback.
func WithRenderer(r Renderer) Option {
	return func(w *Web) { w.renderer = r }
}

// Web fetches and parses pages for the scraping tools. It is safe for
// concurrent use.
type Web struct {
	cfg      Config
	client   *http.Client
	robots   *robotsCache
	limiter  *hostLimiter
	cache    PageCache
	cached   *CachedFetcher
	renderer Renderer
	logger   *zap.Logger
}

// NewWeb creates a Web collaborator.
func NewWeb(cfg Config, logger *zap.Logger, opts ...Option) *Web {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	w := &Web{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: cfg.Timeout}
	}
	if w.cfg.UseBrowser && w.renderer == nil {
		w.renderer = NewBrowser(logger)
	}
	w.robots = newRobotsCache(w.client, cfg.UserAgent)
	w.limiter = newHostLimiter(cfg.MinDelay, cfg.MaxDelay)
	if w.cache != nil {
		w.cached = NewCachedFetcher(w.cache, cfg.CacheTTL, w.live, logger)
	}
	return w
}

// Fetch returns the HTML at url. It refuses URLs disallowed by robots.txt and
// fails on any non-2xx status.
func (w *Web) Fetch(ctx context.Context, urlStr string) (string, error) {
	u, err := ParseURL(urlStr)
	if err != nil {
		return "", err
	}

	if w.cfg.RespectRobots && !w.robots.Allowed(ctx, u) {
		w.logger.Info("robots.txt disallows fetch", zap.String("url", urlStr))
		return "", &Error{URL: urlStr, Message: "robots.txt disallows fetch"}
	}

	var result *Result
	if w.cached != nil {
		result, _, err = w.cached.Fetch(ctx, urlStr)
	} else {
		result, err = w.live(ctx, urlStr)
	}
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// live performs a rate-limited request, falling back to the browser when the
// page carries too little text.
func (w *Web) live(ctx context.Context, urlStr string) (*Result, error) {
	u, err := ParseURL(urlStr)
	if err != nil {
		return nil, err
	}
	if err := w.limiter.Wait(ctx, u.Host); err != nil {
		return nil, &Error{URL: urlStr, Message: "politeness wait interrupted", Cause: err}
	}

	result, err := URL(ctx, urlStr, &Options{UserAgent: w.cfg.UserAgent, Client: w.client})
	if err != nil {
		w.logger.Debug("fetch failed", zap.String("url", urlStr), zap.Error(err))
		return result, err
	}
	w.logger.Debug("fetched page", zap.String("url", urlStr), zap.Int("bytes", len(result.HTML)))

	if w.cfg.UseBrowser && w.renderer != nil && parseFeed(result.HTML) == nil && ShouldUseBrowser(ExtractText(result.HTML)) {
		rendered, err := w.renderer.Render(ctx, urlStr)
		if err != nil {
			w.logger.Warn("browser fallback failed", zap.String("url", urlStr), zap.Error(err))
		} else if len(ExtractText(rendered)) > len(ExtractText(result.HTML)) {
			result.HTML = rendered
		}
	}
	return result, nil
}

// Screenshot saves a full-page image of url to path.
func (w *Web) Screenshot(ctx context.Context, urlStr, path string) error {
	renderer := w.renderer
	if renderer == nil {
		renderer = NewBrowser(w.logger)
	}
	return renderer.Screenshot(ctx, urlStr, path)
}

// ExtractText returns the readable text of html.
func (w *Web) ExtractText(html string) string { return ExtractText(html) }

// Sentences splits text into sentences.
func (w *Web) Sentences(text string) []string { return Sentences(text) }

// ExtractPublishDate finds a publish date in html.
func (w *Web) ExtractPublishDate(html string) *time.Time { return ExtractPublishDate(html) }
