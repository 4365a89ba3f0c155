package signals

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/prompts"
	"github.com/jonathan/signal-agent/internal/scrape"
	"github.com/jonathan/signal-agent/internal/tools"
	"github.com/jonathan/signal-agent/internal/types"
	"github.com/jonathan/signal-agent/internal/validation"
	"github.com/jonathan/signal-agent/schemas"
)

// Hints is the structured context given to the validator alongside the pages
type Hints struct {
	Phrases map[types.SignalType][]string `json:"phrases"`
	// Dates maps page key to the detected publish date (YYYY-MM-DD)
	Dates map[string]string `json:"published_dates,omitempty"`
	// Vendors maps page key to scheduling products embedded on it
	Vendors map[string][]fetch.Vendor `json:"scheduler_vendors,omitempty"`
}

// BuildHints collects date and vendor hints for every page.
func BuildHints(scraped *types.ScrapeResult, web tools.Web, phrases map[types.SignalType][]string) Hints {
	h := Hints{
		Phrases: phrases,
		Dates:   make(map[string]string),
		Vendors: make(map[string][]fetch.Vendor),
	}
	if h.Phrases == nil {
		h.Phrases = map[types.SignalType][]string{}
	}
	for _, path := range scraped.Paths() {
		html := scraped.Pages[path]
		var published *time.Time
		if web != nil {
			published = web.ExtractPublishDate(html)
		} else {
			published = fetch.ExtractPublishDate(html)
		}
		if published != nil {
			h.Dates[path] = published.Format(time.DateOnly)
		}
		if vendors := fetch.DetectVendors(html); len(vendors) > 0 {
			h.Vendors[path] = vendors
		}
	}
	return h
}

// PageText returns the plain text of a page, capped at limit runes.
func PageText(html string, web tools.Web, limit int) string {
	var text string
	if web != nil {
		text = web.ExtractText(html)
	} else {
		text = fetch.ExtractText(html)
	}
	r := []rune(text)
	if limit > 0 && len(r) > limit {
		return string(r[:limit])
	}
	return text
}

func buildTranscript(domain string, scraped *types.ScrapeResult, web tools.Web, phrases map[types.SignalType][]string, charLimit int, log *zap.Logger) ([]llm.Message, error) {
	schema, err := schemas.FS.ReadFile(schemas.ValidateResult)
	if err != nil {
		return nil, fmt.Errorf("failed to read validate schema: %w", err)
	}
	system, err := prompts.Render(prompts.ValidateFile, prompts.KeySystem, map[string]string{
		"Schema": strings.TrimSpace(string(schema)),
	})
	if err != nil {
		return nil, err
	}

	var pages strings.Builder
	for _, path := range scraped.Paths() {
		text := PageText(scraped.Pages[path], web, charLimit)
		if validation.WarnIfSuspicious(log, text, scraped.URLs[path]) {
			text = validation.StripInjectionAttempts(text)
		}
		fmt.Fprintf(&pages, "PATH: %s\nURL: %s\n%s\n\n", path, scraped.URLs[path],
			validation.QuoteExternalContent(text, "page "+path))
	}

	urlMap, err := json.Marshal(scraped.URLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode url map: %w", err)
	}
	hints, err := json.MarshalIndent(BuildHints(scraped, web, phrases), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode hints: %w", err)
	}

	user, err := prompts.Render(prompts.ValidateFile, prompts.KeyUser, map[string]string{
		"Domain": domain,
		"URLMap": string(urlMap),
		"Hints":  string(hints),
		"Pages":  strings.TrimSpace(pages.String()),
	})
	if err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

// baseFor picks the origin used to resolve relative evidence URLs.
func baseFor(domain string, scraped *types.ScrapeResult) string {
	if base, err := scrape.BaseURL(domain); err == nil {
		return base
	}
	for _, path := range scraped.Paths() {
		if base, err := scrape.BaseURL(scraped.URLs[path]); err == nil {
			return base
		}
	}
	return ""
}
