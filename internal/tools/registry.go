// Package tools implements the tool catalogue the scrape agent can call and
// executes calls against a web content collaborator.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Tool names
const (
	ToolFetch        = "fetch"
	ToolExtractText  = "extract_text"
	ToolFindMatches  = "find_matches"
	ToolGetMetaDates = "get_meta_dates"
)

// DefaultMaxSentences caps find_matches output when the call does not say
const DefaultMaxSentences = 10

// Web is the content collaborator behind the tool catalogue
type Web interface {
	// Fetch returns raw HTML; it fails on policy violations and non-success statuses
	Fetch(ctx context.Context, url string) (string, error)
	ExtractText(html string) string
	Sentences(text string) []string
	ExtractPublishDate(html string) *time.Time
}

// Call is a tool invocation parsed from a model reply
type Call struct {
	Tool string `json:"tool"`
	Args Args   `json:"args"`
}

// Result is the uniform tool result envelope
type Result struct {
	OK    bool
	Data  any
	Error string
}

// MarshalJSON renders {"ok":true,"data":...} or {"ok":false,"error":"..."}
func (r Result) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(struct {
			OK   bool `json:"ok"`
			Data any  `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{false, r.Error})
}

func okResult(data any) Result {
	return Result{OK: true, Data: data}
}

func errorResult(msg string) Result {
	return Result{OK: false, Error: msg}
}

// Registry executes calls from the fixed tool catalogue
type Registry struct {
	web    Web
	logger *zap.Logger
}

// NewRegistry creates a registry backed by web
func NewRegistry(web Web, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{web: web, logger: logger}
}

// Execute runs one call. It never panics and never returns an error; every
// failure is reported in the envelope.
func (r *Registry) Execute(ctx context.Context, call Call) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", zap.String("tool", call.Tool), zap.Any("panic", rec))
			result = errorResult(fmt.Sprintf("tool '%s' failed: %v", call.Tool, rec))
		}
	}()

	if !known(call.Tool) {
		return errorResult(fmt.Sprintf("unknown tool '%s'", call.Tool))
	}
	if r.web == nil {
		return errorResult("web collaborator is not configured")
	}

	switch call.Tool {
	case ToolFetch:
		url, err := call.Args.RequiredString("url")
		if err != nil {
			return errorResult(err.Error())
		}
		html, err := r.web.Fetch(ctx, strings.TrimSpace(url))
		if err != nil {
			return errorResult(err.Error())
		}
		return okResult(html)

	case ToolExtractText:
		html, err := call.Args.RequiredString("html")
		if err != nil {
			return errorResult(err.Error())
		}
		return okResult(r.web.ExtractText(html))

	case ToolFindMatches:
		text, err := call.Args.RequiredString("text")
		if err != nil {
			return errorResult(err.Error())
		}
		patterns, err := call.Args.OptionalStringSlice("patterns")
		if err != nil {
			return errorResult(err.Error())
		}
		limit, err := call.Args.OptionalInt("max_sentences")
		if err != nil {
			return errorResult(err.Error())
		}
		maxSentences := DefaultMaxSentences
		if limit != nil && *limit > 0 {
			maxSentences = *limit
		}
		matches, err := FindMatches(r.web.Sentences(text), patterns, maxSentences)
		if err != nil {
			return errorResult(err.Error())
		}
		return okResult(matches)

	case ToolGetMetaDates:
		html, err := call.Args.RequiredString("html")
		if err != nil {
			return errorResult(err.Error())
		}
		if dt := r.web.ExtractPublishDate(html); dt != nil {
			return okResult(dt.UTC().Format(time.RFC3339))
		}
		return okResult(nil)
	}
	return errorResult(fmt.Sprintf("unknown tool '%s'", call.Tool))
}

func known(tool string) bool {
	switch tool {
	case ToolFetch, ToolExtractText, ToolFindMatches, ToolGetMetaDates:
		return true
	}
	return false
}

// FindMatches returns up to limit trimmed, non-blank sentences matching any pattern,
// case-insensitively. With no patterns every non-blank sentence matches.
func FindMatches(sentences, patterns []string, limit int) ([]string, error) {
	var rx *regexp.Regexp
	var nonEmpty []string
	for _, p := range patterns {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) > 0 {
		var err error
		rx, err = regexp.Compile("(?i)" + strings.Join(nonEmpty, "|"))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	out := make([]string, 0)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if rx == nil || rx.MatchString(s) {
			out = append(out, s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Catalogue describes the tool call format for prompts
func Catalogue() string {
	return strings.TrimSpace(`
TOOLS USAGE:
Emit a single JSON object per line to call a tool:
{"tool": "fetch", "args": {"url": "https://..."}}
{"tool": "extract_text", "args": {"html": "<html>..."}}
{"tool": "find_matches", "args": {"text": "...", "patterns": ["..."], "max_sentences": 10}}
{"tool": "get_meta_dates", "args": {"html": "<html>..."}}
`)
}
