package engine

import (
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
)

// Recorder is the append-only timeline for a single run. Events are recorded
// in the causal order actions were attempted; there is no reordering and no
// deletion. A run is single-threaded, so the recorder needs no locking.
type Recorder struct {
	clock  func() time.Time
	events []models.TimelineEvent
}

// NewRecorder constructs a Recorder using the supplied clock.
func NewRecorder(clock func() time.Time) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{clock: clock}
}

// Record appends one event for an attempted action.
func (r *Recorder) Record(action, url string, success bool, evidence string) {
	r.events = append(r.events, models.TimelineEvent{
		Timestamp: r.clock().UTC(),
		Action:    action,
		URL:       url,
		Success:   success,
		Evidence:  evidence,
	})
}

// Events returns a copy of the recorded sequence.
func (r *Recorder) Events() []models.TimelineEvent {
	return append([]models.TimelineEvent(nil), r.events...)
}
