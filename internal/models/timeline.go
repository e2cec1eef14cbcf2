package models

import "time"

// TimelineEvent records one attempted action during a run. The sequence is
// append-only and causally ordered; Success reflects whether that specific
// action completed without error.
type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	URL       string    `json:"url,omitempty"`
	Success   bool      `json:"success"`
	Evidence  string    `json:"evidence,omitempty"`
}
