// Package outbound drafts the outreach email for a card that cleared the confidence gate.
package outbound

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/agent"
	"github.com/jonathan/signal-agent/internal/extract"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/prompts"
	"github.com/jonathan/signal-agent/internal/types"
	"github.com/jonathan/signal-agent/internal/validation"
	"github.com/jonathan/signal-agent/schemas"
)

// DefaultCallToAction closes the fallback draft
const DefaultCallToAction = "Open to a 10-minute walkthrough?"

// placeholderPattern matches the stand-ins used in the prompt's style example
var placeholderPattern = regexp.MustCompile(`(?i)\b(?:X|xxx|xx)\b`)

// Request is everything the drafter needs to know about a prospect
type Request struct {
	Company      string
	Domain       string
	Card         *types.EvidenceCard
	CallToAction string
}

// Options configures drafting
type Options struct {
	Client llm.ChatClient
	Rules  validation.DraftRules
	Logger *zap.Logger
}

// Result is a draft plus how it was produced
type Result struct {
	Draft *types.EmailDraft
	// Fallback is set when the model reply could not be used
	Fallback   bool
	Violations []validation.Violation
}

// CompanyName returns company, or the Title-cased first label of domain.
func CompanyName(company, domain string) string {
	if c := strings.TrimSpace(company); c != "" {
		return c
	}
	d := strings.TrimSpace(domain)
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	d = strings.TrimPrefix(strings.ToLower(d), "www.")
	label, _, _ := strings.Cut(d, ".")
	label, _, _ = strings.Cut(label, "/")
	if label == "" {
		return "Prospect"
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + label[size:]
}

// Draft asks the model once for an email and falls back to a neutral draft when
// the reply cannot be used. It never returns nil.
func Draft(ctx context.Context, req Request, opts Options) *Result {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("domain", req.Domain))

	company := CompanyName(req.Company, req.Domain)
	card := req.Card
	if card == nil {
		card = &types.EvidenceCard{}
	}

	out := &Result{}
	transcript, err := buildTranscript(company, req, card)
	if err != nil {
		log.Error("failed to build outbound prompt", zap.Error(err))
		out.Draft, out.Fallback = Fallback(company, card.Snippet), true
	} else {
		res := agent.Run(ctx, agent.Loop{
			Name:      "outbound",
			Client:    opts.Client,
			StepLimit: 1,
			Logger:    log,
		}, transcript,
			func(reply string) (*types.EmailDraft, error) {
				d, err := extract.Into[types.EmailDraft](reply, "subject", schemas.EmailDraft)
				if err != nil {
					return nil, err
				}
				return &d, nil
			},
			func(string) *types.EmailDraft { return nil },
		)
		if res.Degraded || res.Value == nil {
			log.Info("using fallback draft", zap.String("reason", res.Reason))
			out.Draft, out.Fallback = Fallback(company, card.Snippet), true
		} else {
			out.Draft = ReplacePlaceholders(res.Value, company)
		}
	}

	if out.Draft.CallToAction == "" && req.CallToAction != "" {
		out.Draft.CallToAction = req.CallToAction
	}

	rules := opts.Rules
	if rules.MaxSubjectChars == 0 && rules.MaxBodyWords == 0 && len(rules.ForbiddenPhrases) == 0 {
		rules = validation.DefaultDraftRules()
	}
	out.Violations = validation.CheckDraft(*out.Draft, rules)
	for _, v := range out.Violations {
		log.Debug("draft style violation", zap.String("type", v.Type), zap.String("field", v.Field), zap.String("details", v.Details))
	}
	return out
}

// ReplacePlaceholders substitutes the company name for placeholder tokens the
// model copied from the style example.
func ReplacePlaceholders(d *types.EmailDraft, company string) *types.EmailDraft {
	out := *d
	out.Subject = truncateRunes(placeholderPattern.ReplaceAllLiteralString(d.Subject, company), types.MaxSubjectRunes)
	out.Body = placeholderPattern.ReplaceAllLiteralString(d.Body, company)
	out.CallToAction = placeholderPattern.ReplaceAllLiteralString(d.CallToAction, company)
	return &out
}

// Fallback is the neutral draft used when the model reply is unusable.
func Fallback(company, snippet string) *types.EmailDraft {
	return &types.EmailDraft{
		Subject:      truncateRunes(fmt.Sprintf("Quick idea after %s's recent update", company), types.MaxSubjectRunes),
		Body:         fmt.Sprintf("Hi %s, noticed: %s\n\nWe help teams act on this signal. %s", company, strings.TrimSpace(snippet), DefaultCallToAction),
		CallToAction: DefaultCallToAction,
	}
}

func buildTranscript(company string, req Request, card *types.EvidenceCard) ([]llm.Message, error) {
	system, err := prompts.Get(prompts.OutboundFile, prompts.KeySystem)
	if err != nil {
		return nil, err
	}
	user, err := prompts.Render(prompts.OutboundFile, prompts.KeyUser, map[string]string{
		"Company":    company,
		"Domain":     req.Domain,
		"SignalType": string(card.SignalType),
		"URL":        card.CanonicalURL,
		"Snippet":    card.Snippet,
		"Confidence": fmt.Sprintf("%.2f", card.Confidence),
		"CTA":        req.CallToAction,
	})
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}, nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
