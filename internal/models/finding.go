package models

// FindingCategory classifies the impact of a finding.
type FindingCategory string

const (
	CategoryCritical   FindingCategory = "critical"
	CategoryWarning    FindingCategory = "warning"
	CategorySuggestion FindingCategory = "suggestion"
	CategoryPositive   FindingCategory = "positive"
)

// Finding is a structured UX/conversion issue or positive signal derived from
// page observations. Evidence always carries the raw observation snippet that
// backs the claim; it is never synthesized.
type Finding struct {
	ID             string          `json:"id"`
	Category       FindingCategory `json:"category"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Evidence       string          `json:"evidence,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
}
