package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length to consider an HTTP
// fetch complete. Shorter pages are likely JavaScript-rendered.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render.
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer renders pages in a real browser.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Screenshot(ctx context.Context, url, path string) error
}

// Browser is a headless Chrome renderer. Requires Chrome/Chromium on the host.
type Browser struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// NewBrowser returns a Browser with default timeout and user agent.
func NewBrowser(logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{Timeout: DefaultBrowserTimeout, UserAgent: DefaultUserAgent, Logger: logger}
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(b.UserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	return chromedp.Run(browserCtx, actions...)
}

func (b *Browser) load(url string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2 * time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Dismiss common cookie banners; missing buttons are fine.
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
	}
}

// Render navigates to url and returns the rendered HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	b.Logger.Debug("rendering in headless browser", zap.String("url", url))

	var html string
	if err := b.run(ctx, b.load(url), chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	b.Logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Screenshot saves a full-page PNG of url to path, creating parent directories.
func (b *Browser) Screenshot(ctx context.Context, url, path string) error {
	var png []byte
	if err := b.run(ctx, b.load(url), chromedp.FullScreenshot(&png, 90)); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	b.Logger.Debug("saved screenshot", zap.String("url", url), zap.String("path", path))
	return nil
}
