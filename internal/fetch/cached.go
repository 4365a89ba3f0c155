package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/signal-agent/internal/db"
	"go.uber.org/zap"
)

// PageCache persists fetched pages and failed attempts. *db.DB implements it.
type PageCache interface {
	ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error)
	GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*db.CrawledPage, error)
	UpsertPage(ctx context.Context, page *db.CrawledPage) error
	RecordFailedFetch(ctx context.Context, domain, pageURL string, httpStatus int, errorMsg string) error
}

var _ PageCache = (*db.DB)(nil)

// CachedFetcher wraps a fetch function with a page cache. Cache read errors
// fall through to a live fetch; cache write errors are logged.
type CachedFetcher struct {
	cache  PageCache
	ttl    time.Duration
	logger *zap.Logger
	fetch  func(ctx context.Context, urlStr string) (*Result, error)
}

// NewCachedFetcher creates a cached fetcher. A zero ttl uses db.DefaultPageCacheTTL.
func NewCachedFetcher(cache PageCache, ttl time.Duration, fetch func(ctx context.Context, urlStr string) (*Result, error), logger *zap.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = db.DefaultPageCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{cache: cache, ttl: ttl, fetch: fetch, logger: logger}
}

// Fetch returns a fresh cached page when available, otherwise fetches and caches it.
// URLs in permanent failure or retry backoff are refused without a request.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*Result, bool, error) {
	domain, _ := db.ExtractDomain(urlStr)
	log := f.logger.With(zap.String("url", urlStr))

	skip, reason, err := f.cache.ShouldSkipURL(ctx, urlStr)
	if err != nil {
		log.Warn("page cache skip check failed", zap.Error(err))
	} else if skip {
		return nil, false, &Error{URL: urlStr, Message: fmt.Sprintf("URL skipped: %s", reason)}
	}

	cached, err := f.cache.GetFreshPage(ctx, urlStr, f.ttl)
	if err != nil {
		log.Warn("page cache read failed", zap.Error(err))
	} else if cached != nil && cached.RawHTML != nil {
		log.Debug("page cache hit")
		status := 200
		if cached.HTTPStatus != nil {
			status = *cached.HTTPStatus
		}
		return &Result{URL: cached.URL, HTML: *cached.RawHTML, StatusCode: status}, true, nil
	}

	result, err := f.fetch(ctx, urlStr)
	if err != nil {
		status := 0
		if result != nil {
			status = result.StatusCode
		}
		var fetchErr *Error
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			status = fetchErr.StatusCode
		}
		if ctx.Err() == nil {
			if recErr := f.cache.RecordFailedFetch(ctx, domain, urlStr, status, err.Error()); recErr != nil {
				log.Warn("page cache failure record failed", zap.Error(recErr))
			}
		}
		return result, false, err
	}

	expires := time.Now().Add(f.ttl)
	page := &db.CrawledPage{
		Domain:      domain,
		URL:         urlStr,
		RawHTML:     &result.HTML,
		HTTPStatus:  &result.StatusCode,
		FetchStatus: db.FetchStatusSuccess,
		ExpiresAt:   &expires,
	}
	if err := f.cache.UpsertPage(ctx, page); err != nil {
		log.Warn("page cache write failed", zap.Error(err))
	}
	return result, false, nil
}
