package signals

import (
	"errors"
	"net/url"
	"strings"

	"github.com/jonathan/signal-agent/internal/extract"
	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/types"
	"github.com/jonathan/signal-agent/schemas"
)

// reply is the validator's answer as the model writes it. published_at is free
// text; models rarely produce clean RFC 3339.
type reply struct {
	OK          bool             `json:"ok"`
	Why         []string         `json:"why"`
	SignalType  types.SignalType `json:"signal_type" validate:"omitempty,oneof=expansion scheduler hiring"`
	EvidenceURL *string          `json:"evidence_url"`
	Snippet     *string          `json:"snippet"`
	PublishedAt *string          `json:"published_at"`
	Confidence  float64          `json:"confidence" validate:"gte=0,lte=1"`
}

var errMissingSignalType = errors.New("signal_type is required when ok is true")

func parseReply(text string, urls map[string]string, base string) (*types.ValidateResult, error) {
	r, err := extract.Into[reply](text, "ok", schemas.ValidateResult)
	if err != nil {
		return nil, err
	}
	if r.OK && r.SignalType == "" {
		return nil, errMissingSignalType
	}

	out := &types.ValidateResult{
		OK:         r.OK,
		Why:        r.Why,
		SignalType: r.SignalType,
		Confidence: r.Confidence,
	}
	if out.Why == nil {
		out.Why = []string{}
	}
	if r.Snippet != nil {
		out.Snippet = strings.TrimSpace(*r.Snippet)
	}
	if r.EvidenceURL != nil {
		out.EvidenceURL = resolveEvidenceURL(*r.EvidenceURL, urls, base)
	}
	if r.PublishedAt != nil {
		out.PublishedAt = fetch.ParseDate(*r.PublishedAt)
	}
	return out, nil
}

// resolveEvidenceURL turns a page key or relative reference into an absolute URL.
func resolveEvidenceURL(raw string, urls map[string]string, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw
	}
	if u, ok := urls[raw]; ok {
		return u
	}
	if !strings.HasPrefix(raw, "/") {
		if u, ok := urls["/"+raw]; ok {
			return u
		}
	}

	b, err := url.Parse(base)
	if err != nil || base == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		ref.Path = "/" + ref.Path
	}
	return b.ResolveReference(ref).String()
}
