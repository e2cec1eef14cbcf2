package engine

import (
	"testing"
	"time"

	"github.com/funnelstack/funnel-probe/internal/models"
)

func TestRecorderPreservesOrder(t *testing.T) {
	r := NewRecorder(testClock())
	r.Record("first", "https://a", true, "")
	r.Record("second", "https://b", false, "boom")
	r.Record("third", "https://c", true, "")

	events := r.Events()
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	want := []string{"first", "second", "third"}
	for i, ev := range events {
		if ev.Action != want[i] {
			t.Fatalf("events[%d].Action = %q, want %q", i, ev.Action, want[i])
		}
		if i > 0 && ev.Timestamp.Before(events[i-1].Timestamp) {
			t.Fatalf("events[%d] timestamp regressed", i)
		}
	}
	if events[1].Success || events[1].Evidence != "boom" {
		t.Fatalf("events[1] = %+v, want failed with evidence", events[1])
	}
}

func TestRecorderEventsReturnsCopy(t *testing.T) {
	r := NewRecorder(nil)
	r.Record("only", "https://a", true, "")
	events := r.Events()
	events[0].Action = "mutated"
	if r.Events()[0].Action != "only" {
		t.Fatal("Events must return a copy, not the backing slice")
	}
}

func TestRecorderEvidenceCarriedPerEvent(t *testing.T) {
	r := NewRecorder(func() time.Time { return time.Unix(0, 0) })
	r.Record("Filled checkout form", "https://a", true, "8 of 9 sub-steps completed")

	events := r.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Action != "Filled checkout form" || events[0].Evidence == "" {
		t.Fatalf("events[0] = %+v, want labelled event with evidence", events[0])
	}
}

func TestFindingLogDeduplicatesById(t *testing.T) {
	log := newFindingLog()
	log.add(models.Finding{ID: "dup", Category: models.CategoryWarning, Evidence: "first"})
	log.add(models.Finding{ID: "dup", Category: models.CategoryWarning, Evidence: "second"})
	log.add(models.Finding{ID: "other", Category: models.CategoryPositive})
	log.add(models.Finding{Category: models.CategoryWarning}) // no id, dropped

	items := log.list()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != "dup" || items[0].Evidence != "first" {
		t.Fatalf("items[0] = %+v, want first occurrence kept", items[0])
	}
	if items[1].ID != "other" {
		t.Fatalf("items[1].ID = %q, want other", items[1].ID)
	}
}
