package schedule_test

import (
	"errors"
	"reflect"
	"testing"

	"crewboard/internal/domain"
	"crewboard/internal/schedule"
)

func TestExpandWeekdaysOnly(t *testing.T) {
	// 2025-08-25 is a Monday, 2025-08-31 a Sunday
	slots, err := schedule.Expand("2025-08-25", "2025-08-31", "day", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 5 {
		t.Fatalf("expected 5 slots, got %d: %+v", len(slots), slots)
	}
	for i, want := range []string{"2025-08-25", "2025-08-26", "2025-08-27", "2025-08-28", "2025-08-29"} {
		if slots[i].Date != want || slots[i].Shift != "day" {
			t.Fatalf("slot %d: %+v", i, slots[i])
		}
	}
}

func TestExpandIncludesWeekends(t *testing.T) {
	slots, err := schedule.Expand("2025-08-25", "2025-08-31", "day", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
}

func TestExpandBothShifts(t *testing.T) {
	slots, err := schedule.Expand("2025-08-25", "2025-08-25", "both", true)
	if err != nil {
		t.Fatal(err)
	}
	want := []schedule.Slot{
		{Date: "2025-08-25", Shift: "day"},
		{Date: "2025-08-25", Shift: "night"},
	}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestExpandNormalizesReversedRange(t *testing.T) {
	forward, err := schedule.Expand("2025-08-25", "2025-08-29", "both", false)
	if err != nil {
		t.Fatal(err)
	}
	reversed, err := schedule.Expand("2025-08-29", "2025-08-25", "both", false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(forward, reversed) {
		t.Fatalf("reversed range differs:\n%+v\n%+v", forward, reversed)
	}
}

func TestExpandWeekendOnlyRangeIsEmpty(t *testing.T) {
	// Saturday to Sunday with weekends excluded
	slots, err := schedule.Expand("2025-08-30", "2025-08-31", "day", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected empty expansion, got %+v", slots)
	}
}

func TestExpandInvalidInput(t *testing.T) {
	if _, err := schedule.Expand("not-a-date", "2025-08-25", "day", true); !errors.Is(err, schedule.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := schedule.Expand("2025-08-25", "25.08.2025", "day", true); !errors.Is(err, schedule.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := schedule.Expand("2025-08-25", "2025-08-26", "graveyard", true); !errors.Is(err, schedule.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestApplyRangeCreatesAllSlots(t *testing.T) {
	e := newTestEngine(t)
	// Mon..Fri, both shifts, weekends excluded: 10 engine calls, all accepted
	st, res, err := e.ApplyRange(schedule.State{}, schedule.BulkRequest{
		ItemID:    "survey",
		TargetID:  "alice",
		StartDate: "2025-09-01",
		EndDate:   "2025-09-05",
		Shift:     "both",
	}, domain.ViewAll)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 10 || res.Rejected != 0 {
		t.Fatalf("expected 10 created, got %+v", res)
	}
	if len(st.All()) != 10 {
		t.Fatalf("expected 10 assignments, got %d", len(st.All()))
	}
	// ascending dates, day before night
	for i := 0; i < 10; i += 2 {
		if st.All()[i].Shift != "day" || st.All()[i+1].Shift != "night" {
			t.Fatalf("shift order broken at %d", i)
		}
		if st.All()[i].Date != st.All()[i+1].Date {
			t.Fatalf("date pairing broken at %d", i)
		}
	}
}

func TestApplyRangeBestEffort(t *testing.T) {
	e := newTestEngine(t)
	// pre-book the receiver on Wednesday
	st := mustDrop(t, e, schedule.State{}, "gnss-1", "bob", "2025-09-03", "day", domain.ViewPersonnel)

	st, res, err := e.ApplyRange(st, schedule.BulkRequest{
		ItemID:    "gnss-1",
		TargetID:  "alice",
		StartDate: "2025-09-01",
		EndDate:   "2025-09-05",
		Shift:     "day",
	}, domain.ViewPersonnel)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 4 || res.Rejected != 1 {
		t.Fatalf("expected 4 created / 1 rejected, got %+v", res)
	}
	var rejected *schedule.SlotOutcome
	for i := range res.Outcomes {
		if res.Outcomes[i].Reason != "" {
			rejected = &res.Outcomes[i]
		}
	}
	if rejected == nil || rejected.Date != "2025-09-03" || rejected.Reason != schedule.ReasonExclusivityViolation {
		t.Fatalf("unexpected rejection outcome: %+v", rejected)
	}
	if len(st.All()) != 5 {
		t.Fatalf("expected 5 assignments total, got %d", len(st.All()))
	}
}

func TestApplyRangeSelfConflict(t *testing.T) {
	e := newTestEngine(t)
	// assigning the same receiver to two people over overlapping ranges:
	// the second bulk sees the first bulk's slots and loses each of them
	st, first, err := e.ApplyRange(schedule.State{}, schedule.BulkRequest{
		ItemID: "gnss-1", TargetID: "alice",
		StartDate: "2025-09-01", EndDate: "2025-09-03", Shift: "day",
	}, domain.ViewPersonnel)
	if err != nil || first.Created != 3 {
		t.Fatalf("first bulk: %v %+v", err, first)
	}
	_, second, err := e.ApplyRange(st, schedule.BulkRequest{
		ItemID: "gnss-1", TargetID: "bob",
		StartDate: "2025-09-02", EndDate: "2025-09-04", Shift: "day",
	}, domain.ViewPersonnel)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created != 1 || second.Rejected != 2 {
		t.Fatalf("expected 1 created / 2 rejected, got %+v", second)
	}
}

func TestApplyRangeInvalidRangeIssuesNoEngineCalls(t *testing.T) {
	e := newTestEngine(t)
	st, res, err := e.ApplyRange(schedule.State{}, schedule.BulkRequest{
		ItemID: "survey", TargetID: "alice",
		StartDate: "garbage", EndDate: "2025-09-05", Shift: "day",
	}, domain.ViewAll)
	if !errors.Is(err, schedule.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if len(st.All()) != 0 || res.Created != 0 {
		t.Fatalf("expected untouched state, got %+v / %+v", st.All(), res)
	}
}
