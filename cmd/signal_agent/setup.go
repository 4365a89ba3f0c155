package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/config"
	"github.com/jonathan/signal-agent/internal/db"
	"github.com/jonathan/signal-agent/internal/evidence"
	"github.com/jonathan/signal-agent/internal/fetch"
	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/observability"
	"github.com/jonathan/signal-agent/internal/pipeline"
	"github.com/jonathan/signal-agent/internal/validation"
)

// loadConfig reads the YAML config, applies env overrides and validates it
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runtime holds the collaborators shared by every domain in a command
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	web       *fetch.Web
	validator llm.ChatClient
	outbound  llm.ChatClient
	database  *db.DB
}

// newRuntime connects the LLM clients, the web fetcher and, when configured,
// the page cache. A database that cannot be reached is logged and skipped.
func newRuntime(ctx context.Context, cfg *config.Config, verbose bool) (*runtime, error) {
	logger, err := observability.NewLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger}

	var webOpts []fetch.Option
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("continuing without page cache", zap.Error(err))
		} else if err := database.Migrate(ctx); err != nil {
			database.Close()
			logger.Warn("continuing without page cache", zap.Error(err))
		} else {
			rt.database = database
			webOpts = append(webOpts, fetch.WithCache(database))
			logger.Debug("page cache enabled")
		}
	}
	rt.web = fetch.NewWeb(cfg.FetchClientConfig(), logger.Named("fetch"), webOpts...)

	llmCfg := cfg.LLMClientConfig()
	rt.validator, err = llm.NewClient(ctx, llmCfg, llm.TaskValidator)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create validator client: %w", err)
	}
	rt.outbound, err = llm.NewClient(ctx, llmCfg, llm.TaskOutbound)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create outbound client: %w", err)
	}
	logger.Debug("llm clients ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("validator_model", rt.validator.Model()),
		zap.String("outbound_model", rt.outbound.Model()))
	return rt, nil
}

// pipelineOptions builds the per-domain pipeline options from config
func (rt *runtime) pipelineOptions() pipeline.RunOptions {
	p := rt.cfg.Pipeline

	builderOpts := []evidence.Option{evidence.WithLogger(rt.logger)}
	if dir := rt.cfg.Fetch.ScreenshotDir; dir != "" {
		builderOpts = append(builderOpts, evidence.WithScreenshots(rt.web, dir))
	}

	return pipeline.RunOptions{
		Validator:         rt.validator,
		Outbound:          rt.outbound,
		Web:               rt.web,
		Cards:             evidence.NewBuilder(builderOpts...),
		CandidatePaths:    p.CandidatePaths,
		Threshold:         p.ConfidenceThreshold,
		ScrapeStepLimit:   p.ScrapeStepLimit,
		ValidateStepLimit: p.ValidateStepLimit,
		PageCharLimit:     p.PageCharLimit,
		ToolResultChars:   p.ToolResultChars,
		CallToAction:      p.CallToAction,
		DraftRules:        validation.DefaultDraftRules(),
		Logger:            rt.logger,
	}
}

// Close releases clients and the database pool
func (rt *runtime) Close() {
	if rt.validator != nil {
		_ = rt.validator.Close()
	}
	if rt.outbound != nil {
		_ = rt.outbound.Close()
	}
	if rt.database != nil {
		rt.database.Close()
	}
	_ = rt.logger.Sync()
}
