package engine

import "github.com/funnelstack/funnel-probe/internal/models"

// Canonical scoring model: a funnel-completion component worth up to 60
// points plus a UX-quality component starting at 40 and penalized per
// finding severity, floored at zero. The total is clamped to [0,100].
const (
	addToCartPoints = 20
	checkoutPoints  = 20
	formFillPoints  = 20

	uxQualityBase     = 40
	criticalPenalty   = 15
	warningPenalty    = 8
	suggestionPenalty = 5
)

// Score converts funnel-completion flags and finding severities into [0,100].
func Score(metrics models.Metrics, findings []models.Finding) int {
	funnel := 0
	if metrics.AddToCartSuccess {
		funnel += addToCartPoints
	}
	if metrics.CheckoutReached {
		funnel += checkoutPoints
	}
	if metrics.CheckoutFormFilled {
		funnel += formFillPoints
	}

	quality := uxQualityBase
	for _, finding := range findings {
		switch finding.Category {
		case models.CategoryCritical:
			quality -= criticalPenalty
		case models.CategoryWarning:
			quality -= warningPenalty
		case models.CategorySuggestion:
			quality -= suggestionPenalty
		}
	}
	if quality < 0 {
		quality = 0
	}

	total := funnel + quality
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}
