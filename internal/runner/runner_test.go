package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
	"github.com/funnelstack/funnel-probe/internal/store"
)

type stubAnalyzer struct {
	delay   time.Duration
	status  models.RunStatus
	active  int32
	maxSeen int32
}

func (a *stubAnalyzer) Run(_ context.Context, runID, storeURL string) models.AnalysisResult {
	current := atomic.AddInt32(&a.active, 1)
	for {
		seen := atomic.LoadInt32(&a.maxSeen)
		if current <= seen || atomic.CompareAndSwapInt32(&a.maxSeen, seen, current) {
			break
		}
	}
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	atomic.AddInt32(&a.active, -1)

	status := a.status
	if status == "" {
		status = models.StatusCompleted
	}
	return models.AnalysisResult{
		RunID:    runID,
		StoreURL: storeURL,
		Status:   status,
		Score:    72,
	}
}

type failingStore struct {
	store.RunStore
}

func (failingStore) Put(context.Context, store.Record) error {
	return errors.New("disk full")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func drain(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	st := store.NewMemoryStore(0)
	r := New(testLogger(), st, &stubAnalyzer{}, Config{MaxConcurrent: 2, RunTimeout: time.Minute})

	rec, err := r.Submit(context.Background(), "https://shop.example")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Status != models.StatusRunning || rec.RunID == "" {
		t.Fatalf("submitted record = %+v, want running with id", rec)
	}

	drain(t, r)

	got, err := r.Get(context.Background(), rec.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || got.Result.Score != 72 {
		t.Fatalf("result = %+v, want persisted analysis", got.Result)
	}
}

func TestSubmitPersistsFailedStatus(t *testing.T) {
	st := store.NewMemoryStore(0)
	r := New(testLogger(), st, &stubAnalyzer{status: models.StatusFailed}, Config{})

	rec, err := r.Submit(context.Background(), "https://shop.example")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	drain(t, r)

	got, err := r.Get(context.Background(), rec.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
}

func TestConcurrencyBound(t *testing.T) {
	st := store.NewMemoryStore(0)
	analyzer := &stubAnalyzer{delay: 30 * time.Millisecond}
	r := New(testLogger(), st, analyzer, Config{MaxConcurrent: 1, RunTimeout: time.Minute})

	for i := 0; i < 4; i++ {
		if _, err := r.Submit(context.Background(), "https://shop.example"); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	drain(t, r)

	if max := atomic.LoadInt32(&analyzer.maxSeen); max > 1 {
		t.Fatalf("max concurrent runs = %d, want at most 1", max)
	}
}

func TestSubmitFailsWhenStoreFails(t *testing.T) {
	r := New(testLogger(), failingStore{}, &stubAnalyzer{}, Config{})
	if _, err := r.Submit(context.Background(), "https://shop.example"); err == nil {
		t.Fatal("Submit must fail when the registry write fails")
	}
}

func TestListReturnsRecords(t *testing.T) {
	st := store.NewMemoryStore(0)
	r := New(testLogger(), st, &stubAnalyzer{}, Config{})

	if _, err := r.Submit(context.Background(), "https://shop.example"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	drain(t, r)

	records, err := r.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
}
