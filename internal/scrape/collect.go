package scrape

import (
	"net/url"
	"strings"

	"github.com/jonathan/signal-agent/internal/tools"
	"github.com/jonathan/signal-agent/internal/types"
)

// collector records every page the fetch tool returned during a run
type collector struct {
	base  string
	host  string
	pages map[string]string
	urls  map[string]string
}

func newCollector(base string) *collector {
	host := ""
	if u, err := url.Parse(base); err == nil {
		host = u.Host
	}
	return &collector{
		base:  base,
		host:  host,
		pages: make(map[string]string),
		urls:  make(map[string]string),
	}
}

func (c *collector) observe(call tools.Call, result tools.Result) {
	if call.Tool != tools.ToolFetch || !result.OK {
		return
	}
	html, ok := result.Data.(string)
	if !ok {
		return
	}
	raw, err := call.Args.RequiredString("url")
	if err != nil {
		return
	}
	raw = strings.TrimSpace(raw)
	key := c.key(raw)
	c.pages[key] = html
	c.urls[key] = raw
}

// key is the page path for same-host URLs and the full URL otherwise.
func (c *collector) key(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if !strings.EqualFold(u.Host, c.host) {
		return raw
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// absolute returns the URL for a page key that has none.
func (c *collector) absolute(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return c.base + key
}

// degraded is the result when the model never produced a usable final answer.
func (c *collector) degraded() *types.ScrapeResult {
	if len(c.pages) == 0 {
		return &types.ScrapeResult{OK: false, Why: []string{ReasonNoData}}
	}
	return &types.ScrapeResult{
		OK:    true,
		Why:   []string{},
		Pages: copyMap(c.pages),
		URLs:  copyMap(c.urls),
	}
}

// reconcile merges the model's final answer with the collected pages so that
// pages and urls share one key set. Collected HTML replaces whatever the model
// echoed back for the same key.
func (c *collector) reconcile(res *types.ScrapeResult) *types.ScrapeResult {
	out := &types.ScrapeResult{
		OK:    res.OK,
		Why:   append([]string{}, res.Why...),
		Pages: make(map[string]string, len(res.Pages)+len(c.pages)),
		URLs:  make(map[string]string, len(res.Pages)+len(c.pages)),
	}

	for k, html := range res.Pages {
		if strings.TrimSpace(html) == "" {
			continue
		}
		out.Pages[k] = html
	}
	for k, html := range c.pages {
		out.Pages[k] = html
	}

	for k := range out.Pages {
		switch {
		case c.urls[k] != "":
			out.URLs[k] = c.urls[k]
		case strings.TrimSpace(res.URLs[k]) != "":
			out.URLs[k] = strings.TrimSpace(res.URLs[k])
		default:
			out.URLs[k] = c.absolute(k)
		}
	}

	switch {
	case len(out.Pages) == 0:
		out.OK = false
		if len(out.Why) == 0 {
			out.Why = []string{ReasonNoData}
		}
		out.Pages, out.URLs = nil, nil
	case !out.OK:
		// The model gave up, but pages were fetched; keep them.
		out.OK = true
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
