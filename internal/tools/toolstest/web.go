// Package toolstest provides an in-memory tools.Web for tests.
package toolstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/tools"
)

var _ tools.Web = (*Site)(nil)

// Site serves fixed HTML by absolute URL. Text helpers use the real fetch parsers.
type Site struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	fetched []string
}

// NewSite creates a site serving pages (absolute URL -> HTML)
func NewSite(pages map[string]string) *Site {
	s := &Site{pages: make(map[string]string), errs: make(map[string]error)}
	for u, html := range pages {
		s.pages[u] = html
	}
	return s
}

// Add serves html at url
func (s *Site) Add(url, html string) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
	return s
}

// Fail makes fetches of url return err
func (s *Site) Fail(url string, err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[url] = err
	return s
}

// Fetch returns the page for url, or an HTTP 404 error
func (s *Site) Fetch(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, url)
	if err, ok := s.errs[url]; ok {
		return "", err
	}
	html, ok := s.pages[url]
	if !ok {
		return "", &fetch.Error{URL: url, Message: "HTTP 404", StatusCode: 404}
	}
	return html, nil
}

// Fetched lists every requested URL in order
func (s *Site) Fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

// ExtractText delegates to fetch.ExtractText
func (s *Site) ExtractText(html string) string { return fetch.ExtractText(html) }

// Sentences delegates to fetch.Sentences
func (s *Site) Sentences(text string) []string { return fetch.Sentences(text) }

// ExtractPublishDate delegates to fetch.ExtractPublishDate
func (s *Site) ExtractPublishDate(html string) *time.Time { return fetch.ExtractPublishDate(html) }

// Page wraps body in a minimal HTML document
func Page(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><main>%s</main></body></html>", title, body)
}
