// Package signals runs the validator agent that picks the strongest sales signal
// from a domain's collected pages.
package signals

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/agent"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/tools"
	"github.com/jonathan/signal-agent/internal/types"
)

// Defaults for the validator budget and prompt size
const (
	DefaultStepLimit     = 4
	DefaultPageCharLimit = 5000
)

// Options configures a validation run
type Options struct {
	Client llm.ChatClient
	// Web supplies text extraction and date detection for page hints
	Web tools.Web
	// Phrases are the per-signal hints for the vertical
	Phrases       map[types.SignalType][]string
	StepLimit     int
	PageCharLimit int
	Logger        *zap.Logger
}

// Run asks the model for the single strongest signal in the scraped pages.
// It never fails; budget exhaustion or cancellation yields ok=false with the reason.
func Run(ctx context.Context, domain string, scraped *types.ScrapeResult, opts Options) *types.ValidateResult {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("domain", domain))

	if !scraped.HasPages() {
		return &types.ValidateResult{OK: false, Why: []string{"no_pages"}}
	}

	stepLimit := opts.StepLimit
	if stepLimit == 0 {
		stepLimit = DefaultStepLimit
	}
	charLimit := opts.PageCharLimit
	if charLimit <= 0 {
		charLimit = DefaultPageCharLimit
	}

	transcript, err := buildTranscript(domain, scraped, opts.Web, opts.Phrases, charLimit, log)
	if err != nil {
		log.Error("failed to build validate prompt", zap.Error(err))
		return &types.ValidateResult{OK: false, Why: []string{err.Error()}}
	}

	base := baseFor(domain, scraped)
	res := agent.Run(ctx, agent.Loop{
		Name:      "validate",
		Client:    opts.Client,
		StepLimit: stepLimit,
		Logger:    log,
	}, transcript,
		func(text string) (*types.ValidateResult, error) {
			return parseReply(text, scraped.URLs, base)
		},
		func(reason string) *types.ValidateResult {
			return &types.ValidateResult{OK: false, Why: []string{reason}}
		},
	)

	out := res.Value
	log.Info("validate finished",
		zap.Bool("ok", out.OK),
		zap.String("signal_type", string(out.SignalType)),
		zap.String("evidence_url", out.EvidenceURL),
		zap.Int("steps", res.Steps),
		zap.Bool("degraded", res.Degraded),
	)
	return out
}
