package engine

import (
	"github.com/funnelstack/funnel-probe/internal/metrics"
	"github.com/funnelstack/funnel-probe/internal/models"
)

// findingLog accumulates findings in arrival order, deduplicated by id with
// first-write-wins semantics so the earliest evidence is kept.
type findingLog struct {
	seen  map[string]struct{}
	items []models.Finding
}

func newFindingLog() *findingLog {
	return &findingLog{seen: make(map[string]struct{})}
}

func (l *findingLog) add(findings ...models.Finding) {
	for _, f := range findings {
		if f.ID == "" {
			continue
		}
		if _, ok := l.seen[f.ID]; ok {
			continue
		}
		l.seen[f.ID] = struct{}{}
		l.items = append(l.items, f)
		metrics.ObserveFinding(string(f.Category))
	}
}

func (l *findingLog) list() []models.Finding {
	return append([]models.Finding(nil), l.items...)
}
