package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/funnelstack/funnel-probe/internal/metrics"
	"github.com/funnelstack/funnel-probe/internal/models"
	"github.com/funnelstack/funnel-probe/internal/store"
	"github.com/funnelstack/funnel-probe/internal/utils"
)

// Analyzer runs one full funnel analysis. Satisfied by engine.Orchestrator.
type Analyzer interface {
	Run(ctx context.Context, runID, storeURL string) models.AnalysisResult
}

// Config bounds the runner's concurrency and per-run lifetime.
type Config struct {
	MaxConcurrent int64
	RunTimeout    time.Duration
}

// Runner accepts analysis submissions, executes them asynchronously under a
// concurrency bound, and persists every state transition to the run store.
type Runner struct {
	logger     *slog.Logger
	store      store.RunStore
	analyzer   Analyzer
	sem        *semaphore.Weighted
	runTimeout time.Duration
	latencies  *utils.LatencyTracker
	wg         sync.WaitGroup
	newID      func() string
	now        func() time.Time
}

// New constructs a Runner.
func New(logger *slog.Logger, runStore store.RunStore, analyzer Analyzer, cfg Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	return &Runner{
		logger:     logger,
		store:      runStore,
		analyzer:   analyzer,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		runTimeout: cfg.RunTimeout,
		latencies:  utils.NewLatencyTracker(1024),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Submit registers a new run and schedules it for execution. The returned
// record is in the running state; callers poll Get for the terminal result.
func (r *Runner) Submit(ctx context.Context, storeURL string) (store.Record, error) {
	rec := store.Record{
		RunID:     r.newID(),
		StoreURL:  storeURL,
		Status:    models.StatusRunning,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.Put(ctx, rec); err != nil {
		return store.Record{}, fmt.Errorf("register run: %w", err)
	}

	r.wg.Add(1)
	go r.execute(rec)

	r.logger.Info("analysis submitted",
		slog.String("run_id", rec.RunID), slog.String("store_url", storeURL))
	return rec, nil
}

func (r *Runner) execute(rec store.Record) {
	defer r.wg.Done()

	// Queue without a deadline; the timeout governs the run itself, not the
	// wait for a slot.
	if err := r.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
	defer cancel()

	start := time.Now()
	result := r.analyzer.Run(ctx, rec.RunID, rec.StoreURL)
	duration := time.Since(start)

	outcome := metrics.OutcomeCompleted
	if result.Status == models.StatusFailed {
		outcome = metrics.OutcomeFailed
	}
	metrics.ObserveRun(duration, outcome)
	r.latencies.Observe(duration)
	if count := r.latencies.Count(); count >= 20 && count%20 == 0 {
		r.logger.Info("run latency",
			slog.Duration("p95", r.latencies.Percentile(95)), slog.Int("samples", count))
	}

	rec.Status = result.Status
	rec.Result = &result

	putCtx, putCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer putCancel()
	if err := r.store.Put(putCtx, rec); err != nil {
		r.logger.Error("persist run result failed",
			slog.String("run_id", rec.RunID), slog.Any("error", err))
	}
}

// Get returns the current record for a run id.
func (r *Runner) Get(ctx context.Context, runID string) (store.Record, error) {
	return r.store.Get(ctx, runID)
}

// List returns recent records, newest first.
func (r *Runner) List(ctx context.Context, limit int) ([]store.Record, error) {
	return r.store.List(ctx, limit)
}

// Drain waits for in-flight runs to finish or the context to expire.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LatencyP95 reports the current p95 run latency.
func (r *Runner) LatencyP95() time.Duration {
	return r.latencies.Percentile(95)
}
