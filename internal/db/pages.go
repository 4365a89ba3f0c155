package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pageColumns = `id, domain, url, raw_html, content_hash, http_status, fetch_status, error_message,
	is_permanent_failure, retry_count, retry_after, fetched_at, expires_at, last_accessed_at,
	created_at, updated_at`

func scanPage(row pgx.Row) (*CrawledPage, error) {
	var p CrawledPage
	err := row.Scan(&p.ID, &p.Domain, &p.URL, &p.RawHTML, &p.ContentHash, &p.HTTPStatus,
		&p.FetchStatus, &p.ErrorMessage, &p.IsPermanentFailure, &p.RetryCount, &p.RetryAfter,
		&p.FetchedAt, &p.ExpiresAt, &p.LastAccessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPageByURL retrieves a cached page by URL. A missing row yields (nil, nil).
func (db *DB) GetPageByURL(ctx context.Context, pageURL string) (*CrawledPage, error) {
	p, err := scanPage(db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM crawled_pages WHERE url = $1`, pageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get crawled page: %w", err)
	}
	return p, nil
}

// GetFreshPage retrieves a page only if it was fetched successfully within maxAge
func (db *DB) GetFreshPage(ctx context.Context, pageURL string, maxAge time.Duration) (*CrawledPage, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil || page == nil {
		return nil, err
	}

	now := time.Now()
	if !page.IsFresh(now, maxAge) || page.IsExpired(now) {
		return nil, nil
	}
	if page.FetchStatus != FetchStatusSuccess || page.RawHTML == nil {
		return nil, nil
	}

	_ = db.TouchPage(ctx, page.ID)
	return page, nil
}

// ShouldSkipURL checks if a URL should be skipped due to a permanent failure or backoff
func (db *DB) ShouldSkipURL(ctx context.Context, pageURL string) (bool, string, error) {
	page, err := db.GetPageByURL(ctx, pageURL)
	if err != nil {
		return false, "", err
	}
	if page == nil {
		return false, "", nil
	}
	skip, reason := page.SkipReason(time.Now())
	return skip, reason, nil
}

// UpsertPage inserts or updates a successfully fetched page
func (db *DB) UpsertPage(ctx context.Context, page *CrawledPage) error {
	var contentHash *string
	if page.RawHTML != nil {
		hash := HashContent(*page.RawHTML)
		contentHash = &hash
	}

	expiresAt := page.ExpiresAt
	if expiresAt == nil {
		t := time.Now().Add(DefaultPageCacheTTL)
		expiresAt = &t
	}

	fetchStatus := page.FetchStatus
	if fetchStatus == "" {
		fetchStatus = FetchStatusSuccess
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO crawled_pages (domain, url, raw_html, content_hash, http_status, fetch_status,
		                            retry_count, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), $7)
		 ON CONFLICT (url) DO UPDATE SET
		     domain = $1,
		     raw_html = $3,
		     content_hash = $4,
		     http_status = $5,
		     fetch_status = $6,
		     error_message = NULL,
		     is_permanent_failure = FALSE,
		     retry_count = 0,
		     retry_after = NULL,
		     fetched_at = NOW(),
		     expires_at = $7,
		     updated_at = NOW()
		 RETURNING id, fetched_at, created_at, updated_at`,
		page.Domain, page.URL, page.RawHTML, contentHash, page.HTTPStatus, fetchStatus, expiresAt,
	).Scan(&page.ID, &page.FetchedAt, &page.CreatedAt, &page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert crawled page: %w", err)
	}
	page.ContentHash = contentHash
	page.FetchStatus = fetchStatus
	page.ExpiresAt = expiresAt
	return nil
}

// RecordFailedFetch records a failed fetch attempt with exponential backoff.
// Permanent failures never get a retry_after.
func (db *DB) RecordFailedFetch(ctx context.Context, domain, pageURL string, httpStatus int, errorMsg string) error {
	fetchStatus := FetchStatusFromHTTP(httpStatus)
	isPermanent := IsPermanentHTTPStatus(httpStatus)

	var status *int
	if httpStatus != 0 {
		status = &httpStatus
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO crawled_pages (domain, url, http_status, fetch_status, error_message,
		                            is_permanent_failure, retry_count, retry_after, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 1,
		         CASE WHEN $6 THEN NULL ELSE NOW() + INTERVAL '1 minute' END,
		         NOW())
		 ON CONFLICT (url) DO UPDATE SET
		     http_status = $3,
		     fetch_status = $4,
		     error_message = $5,
		     is_permanent_failure = $6 OR crawled_pages.is_permanent_failure,
		     retry_count = crawled_pages.retry_count + 1,
		     retry_after = CASE
		         WHEN $6 OR crawled_pages.is_permanent_failure THEN NULL
		         ELSE NOW() + LEAST(
		             INTERVAL '1 minute' * POWER(5, LEAST(crawled_pages.retry_count, 3)),
		             INTERVAL '2 hours'
		         )
		     END,
		     fetched_at = NOW(),
		     updated_at = NOW()`,
		domain, pageURL, status, fetchStatus, errorMsg, isPermanent,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed fetch: %w", err)
	}
	return nil
}

// TouchPage updates the last_accessed_at timestamp
func (db *DB) TouchPage(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE crawled_pages SET last_accessed_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch crawled page: %w", err)
	}
	return nil
}

// DeleteExpiredPages removes pages that have passed their expires_at
func (db *DB) DeleteExpiredPages(ctx context.Context) (int64, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM crawled_pages WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pages: %w", err)
	}
	return result.RowsAffected(), nil
}
