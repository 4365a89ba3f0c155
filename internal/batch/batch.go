// Package batch runs the signal pipeline over a list of prospects and writes
// one record per domain in input order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/signal-agent/internal/config"
	"github.com/jonathan/signal-agent/internal/observability"
	"github.com/jonathan/signal-agent/internal/pipeline"
	"github.com/jonathan/signal-agent/internal/types"
)

// Options configures a batch run
type Options struct {
	// Concurrency bounds domains in flight; values below 1 mean 1
	Concurrency int
	// DomainTimeout bounds each domain's run; zero means no bound
	DomainTimeout time.Duration
	// VerticalsDir holds <vertical>.yml phrase files
	VerticalsDir string
	// DefaultVertical applies to rows with an empty vertical column
	DefaultVertical string
	// Pipeline is the base configuration for every domain
	Pipeline pipeline.RunOptions
	Logger   *zap.Logger
}

// Summary describes a finished batch
type Summary struct {
	RunID   uuid.UUID
	Domains int
	Cards   int
	Emails  int
	// Failed lists domains whose run errored, panicked or timed out
	Failed  []string
	Elapsed time.Duration
}

// RunSummary converts the summary for terminal output
func (s *Summary) RunSummary(output string) observability.RunSummary {
	return observability.RunSummary{
		RunID:   s.RunID.String(),
		Domains: s.Domains,
		Cards:   s.Cards,
		Emails:  s.Emails,
		Failed:  s.Failed,
		Output:  output,
		Elapsed: s.Elapsed,
	}
}

// Runner processes rows through the pipeline
type Runner struct {
	opts Options
	log  *zap.Logger

	mu        sync.Mutex
	verticals map[string]*config.Vertical
}

// NewRunner creates a batch runner
func NewRunner(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{opts: opts, log: log, verticals: make(map[string]*config.Vertical)}
}

type outcome struct {
	record types.Record
	failed bool
}

// Run processes rows and writes their records to w in input order. Per-domain
// failures still produce a record with no card or email; only a write failure
// or cancellation of ctx stops the batch.
func (r *Runner) Run(ctx context.Context, rows []Row, w io.Writer) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.New(), Domains: len(rows)}
	log := r.log.With(zap.String("run_id", summary.RunID.String()))
	log.Info("batch started", zap.Int("domains", len(rows)), zap.Int("concurrency", r.opts.Concurrency))

	out := NewRecordWriter(w)
	var (
		mu      sync.Mutex
		pending = make(map[int]outcome)
		next    int
	)
	// flush writes every finished record that is next in input order
	flush := func() error {
		for {
			o, ok := pending[next]
			if !ok {
				return nil
			}
			delete(pending, next)
			next++
			if err := out.Write(o.record); err != nil {
				return err
			}
			if o.record.Card != nil {
				summary.Cards++
			}
			if o.record.Email != nil {
				summary.Emails++
			}
			if o.failed {
				summary.Failed = append(summary.Failed, o.record.Domain)
			}
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, row := range rows {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, failed := r.runOne(gCtx, log, row)
			mu.Lock()
			defer mu.Unlock()
			pending[i] = outcome{record: rec, failed: failed}
			return flush()
		})
	}
	err := g.Wait()
	summary.Elapsed = time.Since(start)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return summary, fmt.Errorf("batch %s stopped: %w", summary.RunID, err)
	}

	log.Info("batch finished",
		zap.Int("cards", summary.Cards),
		zap.Int("emails", summary.Emails),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// runOne runs a single domain. It never panics and always returns a record.
func (r *Runner) runOne(ctx context.Context, log *zap.Logger, row Row) (rec types.Record, failed bool) {
	vertical := row.Vertical
	if vertical == "" {
		vertical = r.opts.DefaultVertical
	}
	rec = types.Record{Domain: row.Domain, Company: row.Company, Vertical: vertical}
	log = log.With(zap.String("domain", row.Domain), zap.Int("line", row.Line))

	defer func() {
		if p := recover(); p != nil {
			log.Error("domain run panicked", zap.Any("panic", p), zap.Stack("stack"))
			rec = types.Record{Domain: row.Domain, Company: row.Company, Vertical: vertical}
			failed = true
		}
	}()

	v, err := r.vertical(vertical)
	if err != nil {
		log.Error("failed to load vertical", zap.String("vertical", vertical), zap.Error(err))
		return rec, true
	}

	if r.opts.DomainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.DomainTimeout)
		defer cancel()
	}

	opts := r.opts.Pipeline
	opts.Phrases = v.Phrases
	opts.Logger = log
	state, err := pipeline.RunPipeline(ctx, pipeline.NewState(row.Domain, row.Company, vertical), opts)
	if err != nil {
		log.Error("pipeline failed", zap.Error(err))
		return rec, true
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Error("domain run timed out", zap.Duration("timeout", r.opts.DomainTimeout), zap.String("stage", string(state.Stage)))
		return rec, true
	}
	return state.Record(), false
}

// vertical loads and caches the phrase config for name
func (r *Runner) vertical(name string) (*config.Vertical, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.verticals[name]; ok {
		return v, nil
	}
	v, err := config.LoadVertical(r.opts.VerticalsDir, name)
	if err != nil {
		return nil, err
	}
	r.verticals[name] = v
	return v, nil
}
