package insights

import (
	"log/slog"
	"sort"
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
)

// Miner aggregates finding frequencies across completed analyses into
// cross-store patterns: which UX problems keep showing up, how often, and
// on which stores.
type Miner struct {
	logger *slog.Logger
}

// NewMiner constructs a Miner.
func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

const maxAffectedStores = 10

// Mine groups findings by id across results. Prevalence is the share of
// analyses in which the finding appeared at least once. Failed runs are
// skipped; their single analysis-failed finding says nothing about stores.
func (m *Miner) Mine(results []models.AnalysisResult) []models.FindingPattern {
	completed := 0
	stats := make(map[string]*findingAggregate)
	for _, result := range results {
		if result.Status != models.StatusCompleted {
			continue
		}
		completed++
		seen := make(map[string]struct{})
		for _, finding := range result.Findings {
			if finding.ID == "" {
				continue
			}
			agg, ok := stats[finding.ID]
			if !ok {
				agg = &findingAggregate{
					category: finding.Category,
					title:    finding.Title,
					stores:   make(map[string]struct{}),
				}
				stats[finding.ID] = agg
			}
			agg.occurrences++
			if _, dup := seen[finding.ID]; !dup {
				agg.analyses++
				seen[finding.ID] = struct{}{}
			}
			if result.CreatedAt.After(agg.lastSeen) {
				agg.lastSeen = result.CreatedAt
			}
			agg.stores[result.StoreURL] = struct{}{}
		}
	}
	if completed == 0 {
		return nil
	}

	patterns := make([]models.FindingPattern, 0, len(stats))
	for id, agg := range stats {
		patterns = append(patterns, models.FindingPattern{
			ID:             id,
			Category:       agg.category,
			Title:          agg.title,
			Occurrences:    agg.occurrences,
			Prevalence:     float64(agg.analyses) / float64(completed),
			LastSeen:       agg.lastSeen,
			AffectedStores: agg.storeList(maxAffectedStores),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Prevalence != patterns[j].Prevalence {
			return patterns[i].Prevalence > patterns[j].Prevalence
		}
		return patterns[i].ID < patterns[j].ID
	})

	m.logger.Debug("mined finding patterns",
		slog.Int("analyses", completed), slog.Int("patterns", len(patterns)))
	return patterns
}

type findingAggregate struct {
	category    models.FindingCategory
	title       string
	occurrences int
	analyses    int
	lastSeen    time.Time
	stores      map[string]struct{}
}

func (agg *findingAggregate) storeList(limit int) []string {
	stores := make([]string, 0, len(agg.stores))
	for url := range agg.stores {
		stores = append(stores, url)
	}
	sort.Strings(stores)
	if len(stores) > limit {
		stores = stores[:limit]
	}
	return stores
}
