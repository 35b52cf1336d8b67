package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"valuationcli/internal/infrastructure"
)

// Task processes one symbol.
type Task interface {
	Run(ctx context.Context, symbol string) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx context.Context, symbol string) error

// Run calls f.
func (f TaskFunc) Run(ctx context.Context, symbol string) error {
	return f(ctx, symbol)
}

// Config sizes a Runner. RatePerSecond 0 starts tasks unpaced and
// TaskTimeout 0 leaves tasks unbounded.
type Config struct {
	Workers       int
	RatePerSecond float64
	Burst         int
	TaskTimeout   time.Duration
}

// Summary is the outcome of a batch
type Summary struct {
	RunID     string                `json:"run_id"`
	Command   string                `json:"command"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    map[string]*TaskError `json:"failed,omitempty"`
	Duration  time.Duration         `json:"duration"`
}

// Runner executes a Task for every symbol of a batch
type Runner struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *infrastructure.ValuationMetrics
	tracer   trace.Tracer
	progress atomic.Pointer[ProgressTracker]
}

// Option customizes a Runner
type Option func(*Runner)

// WithMetrics records per-symbol metrics
func WithMetrics(m *infrastructure.ValuationMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer opens a span per symbol on t
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner creates a runner. Workers below 1 run one task at a time.
func NewRunner(cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	r := &Runner{
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "runner"),
		tracer: otel.Tracer(infrastructure.MeterName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Progress returns the tracker of the current or last batch, nil before the
// first run.
func (r *Runner) Progress() *ProgressTracker {
	return r.progress.Load()
}

func (r *Runner) limiter() *rate.Limiter {
	if r.cfg.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, r.cfg.Burst)
	}
	return rate.NewLimiter(rate.Limit(r.cfg.RatePerSecond), r.cfg.Burst)
}

// Run executes task for each symbol. Failed symbols are collected in the
// summary. The returned error is non-nil only when ctx ends the batch early.
func (r *Runner) Run(ctx context.Context, command string, symbols []string, task Task) (Summary, error) {
	runID := infrastructure.GenerateRunID()
	ctx = infrastructure.WithRunID(ctx, runID)
	start := time.Now()

	tracker := NewProgressTracker(command, runID, len(symbols))
	r.progress.Store(tracker)
	defer tracker.Finish()

	r.logger.InfoContext(ctx, "starting batch",
		slog.String("command", command),
		slog.Int("symbols", len(symbols)),
		slog.Int("workers", r.cfg.Workers))

	var (
		mu     sync.Mutex
		failed = make(map[string]*TaskError)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	limiter := r.limiter()

	for _, symbol := range symbols {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			if err := r.runOne(gctx, command, symbol, task, tracker); err != nil {
				mu.Lock()
				failed[symbol] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{
		RunID:     runID,
		Command:   command,
		Total:     len(symbols),
		Succeeded: int(tracker.completed.Load()) - len(failed),
		Duration:  time.Since(start),
	}
	if len(failed) > 0 {
		summary.Failed = failed
	}

	if err := ctx.Err(); err != nil {
		r.logger.WarnContext(ctx, "batch cancelled",
			slog.String("command", command),
			slog.Int("completed", int(tracker.completed.Load())),
			slog.Int("total", len(symbols)))
		return summary, fmt.Errorf("%s batch cancelled: %w", command, err)
	}

	r.logger.InfoContext(ctx, "batch complete",
		slog.String("command", command),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", len(failed)),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, command, symbol string, task Task, tracker *ProgressTracker) (taskErr *TaskError) {
	ctx, span := r.tracer.Start(ctx, command+".symbol",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	if r.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TaskTimeout)
		defer cancel()
	}

	tracker.Start(symbol)
	r.metrics.SymbolStarted(ctx)
	start := time.Now()

	err := safeRun(ctx, task, symbol)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	duration := time.Since(start)

	r.metrics.SymbolFinished(ctx)
	r.metrics.RecordSymbol(ctx, command, duration, err)
	i := tracker.Complete(err)

	if err != nil {
		taskErr = newTaskError(symbol, err)
		infrastructure.RecordError(ctx, taskErr)
		infrastructure.WithError(r.logger, err).ErrorContext(ctx,
			fmt.Sprintf("(%d/%d) %s failed", i, tracker.Total(), symbol),
			slog.String("symbol", symbol),
			slog.String("error_type", string(taskErr.Type)))
		return taskErr
	}

	r.logger.InfoContext(ctx, fmt.Sprintf("(%d/%d) %s", i, tracker.Total(), symbol),
		slog.String("symbol", symbol),
		slog.Duration("duration", duration))
	return nil
}

// safeRun turns a task panic into an error.
func safeRun(ctx context.Context, task Task, symbol string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", errPanic, rec)
		}
	}()
	return task.Run(ctx, symbol)
}
