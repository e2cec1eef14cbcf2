package store

import (
	"context"
	"errors"
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
)

// Record is one run's registry entry. Result is nil while the run is still
// in flight and populated exactly once when the run terminates.
type Record struct {
	RunID     string                 `json:"run_id"`
	StoreURL  string                 `json:"store_url"`
	Status    models.RunStatus       `json:"status"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// RunStore persists run records. Implementations must be safe for
// concurrent use; the runner writes from many goroutines.
type RunStore interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, runID string) (Record, error)
	// List returns records newest-first, at most limit entries.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// ErrNotFound signals that a run id is unknown to the store.
var ErrNotFound = errors.New("run not found")
