// Package pipeline provides the high-level orchestration for one domain:
// Scrape, Validate, then the outbound gate.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/evidence"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/outbound"
	"github.com/jonathan/signal-agent/internal/pipeline/steps"
	"github.com/jonathan/signal-agent/internal/scrape"
	"github.com/jonathan/signal-agent/internal/signals"
	"github.com/jonathan/signal-agent/internal/tools"
	"github.com/jonathan/signal-agent/internal/types"
	"github.com/jonathan/signal-agent/internal/validation"
)

// DefaultThreshold is the inclusive confidence a card needs before an email is drafted
const DefaultThreshold = 0.6

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Domain   string `json:"domain,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	// Validator drives the scrape and validate agents
	Validator llm.ChatClient
	// Outbound drives email drafting
	Outbound llm.ChatClient
	Web      tools.Web
	Cards    *evidence.Builder
	Phrases  map[types.SignalType][]string

	CandidatePaths    []string
	Threshold         float64
	ScrapeStepLimit   int
	ValidateStepLimit int
	PageCharLimit     int
	ToolResultChars   int
	CallToAction      string
	DraftRules        validation.DraftRules

	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// DefaultRunOptions returns options with the stock budgets and gate
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Threshold:         DefaultThreshold,
		ScrapeStepLimit:   scrape.DefaultStepLimit,
		ValidateStepLimit: signals.DefaultStepLimit,
		PageCharLimit:     signals.DefaultPageCharLimit,
		DraftRules:        validation.DefaultDraftRules(),
	}
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, s State, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: steps.StepRegistry[step].Category,
			Message:  message,
			Domain:   s.Domain,
			Content:  content,
		})
	}
}

// RunPipeline drives state to StageDone. Stage failures never surface as
// errors; they are recorded in the stage results. An error means the state
// itself was inconsistent.
func RunPipeline(ctx context.Context, state State, opts RunOptions) (State, error) {
	opts = opts.withDefaults()
	if state.Stage == "" {
		state.Stage = StageScrape
	}

	for state.Stage != StageDone {
		next, err := Advance(ctx, state, opts)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Cards == nil {
		o.Cards = evidence.NewBuilder(evidence.WithLogger(o.Logger))
	}
	if o.Outbound == nil {
		o.Outbound = o.Validator
	}
	return o
}

// Advance runs the stage state is positioned at and returns the new state
func Advance(ctx context.Context, state State, opts RunOptions) (State, error) {
	step, ok := stageSteps[state.Stage]
	if !ok {
		return state, fmt.Errorf("cannot advance from stage %q", state.Stage)
	}
	if err := steps.ValidateDependencies(state.Steps, step); err != nil {
		return state, err
	}

	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("domain", state.Domain))

	var next State
	switch state.Stage {
	case StageScrape:
		next = runScrape(ctx, state, &opts, log)
	case StageValidate:
		next = runValidate(ctx, state, &opts, log)
	default:
		next = runOutboundGate(ctx, state, &opts, log)
	}

	log.Info("stage finished",
		zap.String("step", step),
		zap.String("status", next.Steps[step]),
		zap.String("next", string(next.Stage)),
		zap.Int("version", next.Version),
		zap.Strings("available", steps.GetAvailableSteps(next.Steps)),
		zap.Strings("blocked", steps.GetBlockedSteps(next.Steps)))
	return next, nil
}

func runScrape(ctx context.Context, s State, opts *RunOptions, log *zap.Logger) State {
	s.ScrapeResult = scrape.Run(ctx, s.Domain, scrape.Options{
		Client:             opts.Validator,
		Web:                opts.Web,
		Paths:              opts.CandidatePaths,
		StepLimit:          opts.ScrapeStepLimit,
		MaxToolResultChars: opts.ToolResultChars,
		Logger:             log,
	})
	emitProgress(opts, s, steps.StepScrape,
		fmt.Sprintf("Collected %d pages", len(s.ScrapeResult.Pages)), s.ScrapeResult)
	return s.complete(steps.StepScrape, StageValidate)
}

func runValidate(ctx context.Context, s State, opts *RunOptions, log *zap.Logger) State {
	if !s.ScrapeResult.HasPages() {
		emitProgress(opts, s, steps.StepValidate, "Skipped validation: no pages collected", nil)
		return s.skip(steps.StepValidate, StageOutboundGate)
	}

	s.ValidateResult = signals.Run(ctx, s.Domain, s.ScrapeResult, signals.Options{
		Client:        opts.Validator,
		Web:           opts.Web,
		Phrases:       opts.Phrases,
		StepLimit:     opts.ValidateStepLimit,
		PageCharLimit: opts.PageCharLimit,
		Logger:        log,
	})

	if s.ValidateResult.HasEvidence() {
		card, err := opts.Cards.Build(ctx, s.ValidateResult)
		if err != nil {
			log.Warn("could not build evidence card", zap.Error(err))
		} else {
			s.Card = card
		}
	}

	msg := "No signal found"
	if s.Card != nil {
		msg = fmt.Sprintf("Found %s signal (confidence %.2f)", s.Card.SignalType, s.Card.Confidence)
	}
	emitProgress(opts, s, steps.StepValidate, msg, s.Card)
	return s.complete(steps.StepValidate, StageOutboundGate)
}

func runOutboundGate(ctx context.Context, s State, opts *RunOptions, log *zap.Logger) State {
	if s.Card == nil || s.Card.Confidence < opts.Threshold {
		emitProgress(opts, s, steps.StepOutboundGate, "Skipped drafting: below confidence threshold", nil)
		return s.skip(steps.StepOutboundGate, StageDone)
	}

	res := outbound.Draft(ctx, outbound.Request{
		Company:      s.Company,
		Domain:       s.Domain,
		Card:         s.Card,
		CallToAction: opts.CallToAction,
	}, outbound.Options{
		Client: opts.Outbound,
		Rules:  opts.DraftRules,
		Logger: log,
	})
	s.Email = res.Draft

	msg := "Drafted email"
	if res.Fallback {
		msg = "Drafted fallback email"
	}
	emitProgress(opts, s, steps.StepOutboundGate, msg, s.Email)
	return s.complete(steps.StepOutboundGate, StageDone)
}
