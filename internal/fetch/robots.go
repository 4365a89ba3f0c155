package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache keeps one parsed robots.txt per scheme+host. Only definitive
// answers are cached; a transient failure allows the fetch and is retried on
// the next request to that host.
type robotsCache struct {
	mu        sync.Mutex
	byHost    map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		byHost:    make(map[string]*robotstxt.RobotsData),
		client:    client,
		userAgent: userAgent,
	}
}

// Allowed reports whether the user agent may fetch u.
func (c *robotsCache) Allowed(ctx context.Context, u *url.URL) bool {
	key := u.Scheme + "://" + u.Host

	c.mu.Lock()
	data, seen := c.byHost[key]
	c.mu.Unlock()

	if !seen {
		var definitive bool
		data, definitive = c.load(ctx, key+"/robots.txt")
		if definitive {
			c.mu.Lock()
			c.byHost[key] = data
			c.mu.Unlock()
		}
	}
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, c.userAgent)
}

// load fetches and parses robots.txt. definitive is false when the policy is
// unknown: a transport error, a 5xx or an unreadable body.
func (c *robotsCache) load(ctx context.Context, robotsURL string) (data *robotstxt.RobotsData, definitive bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, false
	}
	data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, false
	}
	return data, true
}
