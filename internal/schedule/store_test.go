package schedule_test

import (
	"reflect"
	"testing"

	"crewboard/internal/domain"
	"crewboard/internal/schedule"
)

func TestStateAddKeepsInsertionOrder(t *testing.T) {
	var st schedule.State
	for _, id := range []string{"a", "b", "c"} {
		st = st.AddAssignment(domain.Assignment{ID: id})
	}
	got := st.All()
	if len(got) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(got))
	}
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestStateAddDoesNotMutateSnapshot(t *testing.T) {
	var st schedule.State
	st = st.AddAssignment(domain.Assignment{ID: "a"})
	before := st
	_ = st.AddAssignment(domain.Assignment{ID: "b"})
	_ = st.RemoveAssignment("a")
	if len(before.All()) != 1 || before.All()[0].ID != "a" {
		t.Fatalf("snapshot mutated: %+v", before.All())
	}
}

func TestStateRemoveIdempotent(t *testing.T) {
	var st schedule.State
	st = st.AddAssignment(domain.Assignment{ID: "a"})
	st = st.AddAssignment(domain.Assignment{ID: "b"})

	removed := st.RemoveAssignment("a")
	if len(removed.All()) != 1 || removed.All()[0].ID != "b" {
		t.Fatalf("unexpected contents after remove: %+v", removed.All())
	}
	// removing an absent id returns the same collection by value
	again := removed.RemoveAssignment("a")
	if !reflect.DeepEqual(again.All(), removed.All()) {
		t.Fatalf("remove of absent id changed state: %+v vs %+v", again.All(), removed.All())
	}
}

func TestStateNoteLifecycle(t *testing.T) {
	var st schedule.State
	st = st.UpsertNote(domain.SchedulerNote{ID: "n1", ResourceID: "alice", Date: "2025-08-25", Shift: "day", Body: "bring spare battery"})
	st = st.UpsertNote(domain.SchedulerNote{ID: "n1", ResourceID: "alice", Date: "2025-08-25", Shift: "day", Body: "battery packed"})
	if len(st.Notes) != 1 {
		t.Fatalf("expected upsert to replace, got %d notes", len(st.Notes))
	}
	if st.Notes[0].Body != "battery packed" {
		t.Fatalf("expected updated body, got %q", st.Notes[0].Body)
	}
	st = st.RemoveNote("n1")
	st = st.RemoveNote("n1")
	if len(st.Notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(st.Notes))
	}
}

func TestStateDayEvents(t *testing.T) {
	var st schedule.State
	st = st.AddDayEvent(domain.DayEvent{ID: "e1", Date: "2025-12-25", Kind: "holiday", Label: "Christmas"})
	st = st.AddDayEvent(domain.DayEvent{ID: "e2", Date: "2025-12-26", Kind: "info", Label: "Skeleton crew"})
	st = st.RemoveDayEvent("e1")
	if len(st.DayEvents) != 1 || st.DayEvents[0].ID != "e2" {
		t.Fatalf("unexpected day events: %+v", st.DayEvents)
	}
}
