package models

import "time"

// FindingPattern aggregates a recurring finding across stored runs.
type FindingPattern struct {
	ID             string          `json:"id"`
	Category       FindingCategory `json:"category"`
	Title          string          `json:"title"`
	Occurrences    int             `json:"occurrences"`
	Prevalence     float64         `json:"prevalence"`
	LastSeen       time.Time       `json:"last_seen"`
	AffectedStores []string        `json:"affected_stores"`
}
