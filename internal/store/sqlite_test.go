package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
)

func newTestSQLite(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"), ttl)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorePutGetRoundTrip(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()

	drop := models.DropOffAddToCart
	rec := Record{
		RunID:    "run-1",
		StoreURL: "https://shop.example",
		Status:   models.StatusCompleted,
		Result: &models.AnalysisResult{
			RunID:    "run-1",
			StoreURL: "https://shop.example",
			Status:   models.StatusCompleted,
			Score:    42,
			Metrics:  models.Metrics{AddToCartSuccess: false, DropOffStep: &drop},
			Findings: []models.Finding{{ID: "add-to-cart-failed", Category: models.CategoryCritical}},
		},
		CreatedAt: time.Now(),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Result == nil || got.Result.Score != 42 {
		t.Fatalf("got %+v, want stored result", got)
	}
	if got.Result.Metrics.DropOffStep == nil || *got.Result.Metrics.DropOffStep != models.DropOffAddToCart {
		t.Fatalf("drop-off = %v, want add_to_cart", got.Result.Metrics.DropOffStep)
	}
	if len(got.Result.Findings) != 1 || got.Result.Findings[0].ID != "add-to-cart-failed" {
		t.Fatalf("findings = %+v", got.Result.Findings)
	}
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	s := newTestSQLite(t, 0)
	if _, err := s.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreUpsertTransition(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()
	created := time.Now()

	if err := s.Put(ctx, Record{RunID: "run-1", StoreURL: "https://shop.example", Status: models.StatusRunning, CreatedAt: created}); err != nil {
		t.Fatalf("Put running: %v", err)
	}
	if err := s.Put(ctx, Record{
		RunID: "run-1", StoreURL: "https://shop.example", Status: models.StatusCompleted,
		Result:    &models.AnalysisResult{RunID: "run-1", Score: 90},
		CreatedAt: created,
	}); err != nil {
		t.Fatalf("Put completed: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusCompleted || got.Result == nil {
		t.Fatalf("got %+v, want completed with result", got)
	}

	records, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(records))
	}
}

func TestSQLiteStoreListNewestFirstWithLimit(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		rec := Record{RunID: id, StoreURL: "https://shop.example", Status: models.StatusRunning, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Put(ctx, rec); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	records, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].RunID != "c" || records[1].RunID != "b" {
		t.Fatalf("records = %+v, want c,b", records)
	}
}

func TestSQLiteStoreTTLPrunesOldRuns(t *testing.T) {
	s := newTestSQLite(t, time.Hour)
	ctx := context.Background()

	old := Record{RunID: "old", StoreURL: "https://shop.example", Status: models.StatusCompleted, CreatedAt: time.Now().Add(-2 * time.Hour)}
	if err := s.Put(ctx, old); err != nil {
		t.Fatalf("Put old: %v", err)
	}
	fresh := Record{RunID: "fresh", StoreURL: "https://shop.example", Status: models.StatusRunning, CreatedAt: time.Now()}
	if err := s.Put(ctx, fresh); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}

	if _, err := s.Get(ctx, "old"); err != ErrNotFound {
		t.Fatalf("Get(old) = %v, want pruned", err)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Fatalf("Get(fresh): %v", err)
	}
}

func TestValkeyStoreRequiresAddr(t *testing.T) {
	if _, err := NewValkeyStore(ValkeyOptions{}, 0); err == nil {
		t.Fatal("NewValkeyStore without addr must fail")
	}
}
