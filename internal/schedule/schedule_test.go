package schedule_test

import (
	"fmt"
	"testing"

	"crewboard/internal/domain"
	"crewboard/internal/schedule"
)

// testCatalog builds the fixture grid used across the package tests: two
// people, two GNSS receivers, one van, one project, one absence type.
func testCatalog() schedule.Catalog {
	resources := []domain.Resource{
		{ID: "alice", Name: "Alice", Kind: domain.KindPersonnel},
		{ID: "bob", Name: "Bob", Kind: domain.KindPersonnel},
		{ID: "gnss-1", Name: "GNSS-1", Kind: domain.KindEquipment},
		{ID: "gnss-2", Name: "GNSS-2", Kind: domain.KindEquipment},
		{ID: "van-1", Name: "Van 1", Kind: domain.KindVehicle},
	}
	items := []domain.WorkItem{
		{ID: "survey", Name: "Site Survey", Kind: domain.ItemProject, Color: "#2563eb"},
		{ID: "gnss-1", Name: "GNSS-1", Kind: domain.KindEquipment},
		{ID: "gnss-2", Name: "GNSS-2", Kind: domain.KindEquipment},
		{ID: "van-1", Name: "Van 1", Kind: domain.KindVehicle},
		{ID: "alice", Name: "Alice", Kind: domain.KindPersonnel},
		{ID: "bob", Name: "Bob", Kind: domain.KindPersonnel},
		{ID: "vacation", Name: "Vacation", Kind: domain.ItemAbsence, Color: "#f59e0b"},
	}
	return schedule.NewCatalog(resources, items)
}

func newTestEngine(t *testing.T) schedule.Engine {
	t.Helper()
	e := schedule.New(testCatalog())
	n := 0
	e.NewID = func() string {
		n++
		return fmt.Sprintf("a-%d", n)
	}
	return e
}

func mustDrop(t *testing.T, e schedule.Engine, st schedule.State, itemID, targetID, date, shift, view string) schedule.State {
	t.Helper()
	st, res := e.HandleDrop(st, schedule.Proposal{ItemID: itemID, TargetID: targetID, Date: date, Shift: shift}, view)
	if !res.Accepted {
		t.Fatalf("drop %s onto %s rejected: %s (%s)", itemID, targetID, res.Reason, res.Detail)
	}
	return st
}
