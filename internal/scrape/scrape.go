// Package scrape runs the tool-using agent that collects candidate pages from a domain.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/agent"
	"github.com/jonathan/signal-agent/internal/extract"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/prompts"
	"github.com/jonathan/signal-agent/internal/tools"
	"github.com/jonathan/signal-agent/internal/types"
	"github.com/jonathan/signal-agent/schemas"
)

// DefaultStepLimit is the scraper's chat budget
const DefaultStepLimit = 5

// Reasons reported in ScrapeResult.Why
const (
	ReasonNoData        = "no_data_collected"
	ReasonInvalidDomain = "invalid_domain"
)

// Options configures a scrape run
type Options struct {
	Client llm.ChatClient
	Web    tools.Web
	// Paths are the candidate paths offered to the model
	Paths              []string
	StepLimit          int
	MaxToolResultChars int
	Logger             *zap.Logger
}

// BaseURL normalizes a domain or URL to scheme://host. The scheme defaults to https.
func BaseURL(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", fmt.Errorf("empty domain")
	}
	if !strings.Contains(d, "://") {
		d = "https://" + d
	}
	u, err := url.Parse(d)
	if err != nil {
		return "", fmt.Errorf("invalid domain %q: %w", domain, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid domain %q: unsupported scheme %q", domain, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid domain %q: missing host", domain)
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), nil
}

// Run asks the model to fetch the candidate paths and returns the collected pages.
// Every successful fetch is kept even when the model never produces a final answer.
func Run(ctx context.Context, domain string, opts Options) *types.ScrapeResult {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("domain", domain))

	base, err := BaseURL(domain)
	if err != nil {
		log.Warn("scrape skipped", zap.Error(err))
		return &types.ScrapeResult{OK: false, Why: []string{ReasonInvalidDomain}}
	}

	transcript, err := buildTranscript(base, opts.Paths)
	if err != nil {
		log.Error("failed to build scrape prompt", zap.Error(err))
		return &types.ScrapeResult{OK: false, Why: []string{err.Error()}}
	}

	c := newCollector(base)
	stepLimit := opts.StepLimit
	if stepLimit == 0 {
		stepLimit = DefaultStepLimit
	}

	res := agent.Run(ctx, agent.Loop{
		Name:               "scrape",
		Client:             opts.Client,
		Tools:              tools.NewRegistry(opts.Web, log),
		StepLimit:          stepLimit,
		MaxToolResultChars: opts.MaxToolResultChars,
		OnToolResult:       c.observe,
		Logger:             log,
	}, transcript,
		func(reply string) (*types.ScrapeResult, error) {
			v, err := extract.Into[types.ScrapeResult](reply, "ok", schemas.ScrapeResult)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		func(string) *types.ScrapeResult {
			return c.degraded()
		},
	)

	out := res.Value
	if !res.Degraded {
		out = c.reconcile(out)
	}
	log.Info("scrape finished",
		zap.Bool("ok", out.OK),
		zap.Int("pages", len(out.Pages)),
		zap.Int("steps", res.Steps),
		zap.Int("tool_calls", res.ToolCalls),
		zap.Bool("degraded", res.Degraded),
		zap.String("reason", res.Reason),
	)
	return out
}

func buildTranscript(base string, paths []string) ([]llm.Message, error) {
	schema, err := schemas.FS.ReadFile(schemas.ScrapeResult)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape schema: %w", err)
	}
	system, err := prompts.Render(prompts.ScrapeFile, prompts.KeySystem, map[string]string{
		"Tools":  tools.Catalogue(),
		"Schema": strings.TrimSpace(string(schema)),
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		paths = []string{"/"}
	}
	pathJSON, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to encode paths: %w", err)
	}
	user, err := prompts.Render(prompts.ScrapeFile, prompts.KeyUser, map[string]string{
		"BaseURL": base,
		"Paths":   string(pathJSON),
	})
	if err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, nil
}
