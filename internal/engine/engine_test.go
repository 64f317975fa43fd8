package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"crewboard/internal/config"
	"crewboard/internal/db"
	"crewboard/internal/domain"
	"crewboard/internal/engine"
	"crewboard/internal/migrate"
	"crewboard/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	Team   domain.Team
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	team, err := eng.CreateTeam(ctx, "Field Ops", "tester")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Team: team}
}

func TestCreateTeamAddsCreatorAsPlanner(t *testing.T) {
	env := newTestEnv(t)
	members, err := env.Engine.Repo.ListTeamMembers(env.Ctx, env.Team.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "tester" || members[0].Role != "planner" {
		t.Fatalf("unexpected members: %+v", members)
	}
	if members[0].TeamID != env.Team.ID || members[0].AddedAt == "" {
		t.Fatalf("member not stamped: %+v", members[0])
	}
	events, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, env.Team.ID, "", "", "")
	if err != nil {
		t.Fatalf("latest events: %v", err)
	}
	if len(events) != 1 || events[0].Type != "team.created" {
		t.Fatalf("expected team.created event, got %+v", events)
	}
}

func TestCreateResourceValidatesKind(t *testing.T) {
	env := newTestEnv(t)
	r, err := env.Engine.CreateResource(env.Ctx, env.Team.ID, "Alice", "personnel", "tester")
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	if r.Kind != "personnel" || r.TeamID != env.Team.ID {
		t.Fatalf("unexpected resource: %+v", r)
	}
	if _, err := env.Engine.CreateResource(env.Ctx, env.Team.ID, "Thing", "gadget", "tester"); err == nil {
		t.Fatalf("expected invalid kind error")
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, env.Team.ID, "Bridge Survey", "#2563eb", "tester")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.Status != "active" {
		t.Fatalf("new project status = %q", p.Status)
	}
	if _, err := env.Engine.CreateProject(env.Ctx, env.Team.ID, "Bad", "blue", "tester"); err == nil {
		t.Fatalf("expected color validation error")
	}
	if err := env.Engine.UpdateProject(env.Ctx, p.ID, "archived", nil, nil, "tester"); err != nil {
		t.Fatalf("archive project: %v", err)
	}
	got, err := env.Engine.Repo.GetProject(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Status != "archived" {
		t.Fatalf("status after archive = %q", got.Status)
	}
	if err := env.Engine.UpdateProject(env.Ctx, p.ID, "paused", nil, nil, "tester"); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestUpsertNoteReplacesSameCell(t *testing.T) {
	env := newTestEnv(t)
	r, err := env.Engine.CreateResource(env.Ctx, env.Team.ID, "Alice", "personnel", "tester")
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	first, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, r.ID, "2025-09-03", "day", "bring charger", "tester")
	if err != nil {
		t.Fatalf("upsert note: %v", err)
	}
	second, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, r.ID, "2025-09-03", "day", "charger packed", "tester")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a new note: %s vs %s", second.ID, first.ID)
	}
	if second.Body != "charger packed" {
		t.Fatalf("note body = %q", second.Body)
	}
	notes, err := env.Engine.Repo.ListNotes(env.Ctx, env.Team.ID, "2025-09-01", "2025-09-07")
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if _, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, "ghost", "2025-09-03", "day", "x", "tester"); err == nil {
		t.Fatalf("expected unknown resource error")
	}
	if _, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, r.ID, "03/09/2025", "day", "x", "tester"); err == nil {
		t.Fatalf("expected date format error")
	}
}

func TestDayEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ev, err := env.Engine.AddDayEvent(env.Ctx, env.Team.ID, "2025-09-05", "holiday", "Company day", "tester")
	if err != nil {
		t.Fatalf("add day event: %v", err)
	}
	if ev.Kind != "holiday" {
		t.Fatalf("unexpected day event: %+v", ev)
	}
	if _, err := env.Engine.AddDayEvent(env.Ctx, env.Team.ID, "2025-09-05", "party", "x", "tester"); err == nil {
		t.Fatalf("expected invalid kind error")
	}
	if _, err := env.Engine.AddDayEvent(env.Ctx, env.Team.ID, "2025-09-05", "info", "", "tester"); err == nil {
		t.Fatalf("expected label required error")
	}
	if err := env.Engine.DeleteDayEvent(env.Ctx, env.Team.ID, ev.ID, "tester"); err != nil {
		t.Fatalf("delete day event: %v", err)
	}
	if err := env.Engine.DeleteDayEvent(env.Ctx, env.Team.ID, ev.ID, "tester"); err != repo.ErrNotFound {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestLoadCatalogIncludesProjectsResourcesAndAbsences(t *testing.T) {
	env := newTestEnv(t)
	alice, err := env.Engine.CreateResource(env.Ctx, env.Team.ID, "Alice", "personnel", "tester")
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	p, err := env.Engine.CreateProject(env.Ctx, env.Team.ID, "Bridge Survey", "#2563eb", "tester")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	archived, err := env.Engine.CreateProject(env.Ctx, env.Team.ID, "Old Job", "", "tester")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := env.Engine.UpdateProject(env.Ctx, archived.ID, "archived", nil, nil, "tester"); err != nil {
		t.Fatalf("archive: %v", err)
	}

	cat, err := env.Engine.LoadCatalog(env.Ctx, env.Team.ID)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if item, ok := cat.Item(p.ID); !ok || item.Kind != domain.ItemProject {
		t.Fatalf("active project missing from catalog")
	}
	if _, ok := cat.Item(archived.ID); ok {
		t.Fatalf("archived project should not be draggable")
	}
	// resources double as draggable items
	if item, ok := cat.Item(alice.ID); !ok || item.Kind != "personnel" {
		t.Fatalf("resource not in item catalog")
	}
	if item, ok := cat.Item("vacation"); !ok || item.Kind != domain.ItemAbsence {
		t.Fatalf("configured absence missing from catalog: %+v", item)
	}
}

func TestLoadWindowStateReturnsPersistedNotesAndDayEvents(t *testing.T) {
	env := newTestEnv(t)
	r, err := env.Engine.CreateResource(env.Ctx, env.Team.ID, "Alice", "personnel", "tester")
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	if _, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, r.ID, "2025-09-03", "day", "in window", "tester"); err != nil {
		t.Fatalf("upsert note: %v", err)
	}
	if _, err := env.Engine.UpsertNote(env.Ctx, env.Team.ID, r.ID, "2025-10-01", "day", "out of window", "tester"); err != nil {
		t.Fatalf("upsert note: %v", err)
	}
	if _, err := env.Engine.AddDayEvent(env.Ctx, env.Team.ID, "2025-09-05", "holiday", "Holiday", "tester"); err != nil {
		t.Fatalf("add day event: %v", err)
	}

	st, err := env.Engine.LoadWindowState(env.Ctx, env.Team.ID, "2025-09-01", "2025-09-07")
	if err != nil {
		t.Fatalf("load window state: %v", err)
	}
	if len(st.Assignments) != 0 {
		t.Fatalf("fresh window should have no assignments")
	}
	if len(st.Notes) != 1 || st.Notes[0].Body != "in window" {
		t.Fatalf("unexpected notes: %+v", st.Notes)
	}
	if len(st.DayEvents) != 1 {
		t.Fatalf("unexpected day events: %+v", st.DayEvents)
	}
}

func TestCreateAPIKeyReturnsPlaintextOnce(t *testing.T) {
	env := newTestEnv(t)
	key, plaintext, err := env.Engine.CreateAPIKey(env.Ctx, "ci", "tester")
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}
	if !strings.HasPrefix(plaintext, "cb_") {
		t.Fatalf("plaintext key = %q", plaintext)
	}
	if key.KeyHash == plaintext || key.KeyHash == "" {
		t.Fatalf("stored hash must not be the plaintext")
	}
	got, err := env.Engine.Repo.GetAPIKeyByHash(env.Ctx, repo.HashAPIKey(plaintext))
	if err != nil {
		t.Fatalf("lookup by hash: %v", err)
	}
	if got.ActorID != "tester" {
		t.Fatalf("actor = %q", got.ActorID)
	}
	if err := env.Engine.Repo.RevokeAPIKey(env.Ctx, key.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := env.Engine.Repo.GetAPIKeyByHash(env.Ctx, repo.HashAPIKey(plaintext)); err != repo.ErrNotFound {
		t.Fatalf("revoked key lookup = %v, want ErrNotFound", err)
	}
}
