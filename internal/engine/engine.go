package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crewboard/internal/config"
	"crewboard/internal/domain"
	"crewboard/internal/engine/auth"
	"crewboard/internal/events"
	"crewboard/internal/repo"
	"crewboard/internal/schedule"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Auth   auth.Service
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Auth:   auth.Service{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CreateTeam creates a team and adds the acting user as its first planner.
func (e Engine) CreateTeam(ctx context.Context, name, actorID string) (domain.Team, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Team{}, errors.New("name is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Team{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Team{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
	}
	if err := e.Repo.InsertTeam(ctx, tx, t); err != nil {
		return domain.Team{}, fmt.Errorf("insert team: %w", err)
	}
	if actorID != "" {
		member := domain.TeamMember{TeamID: t.ID, UserID: actorID, Role: "planner", AddedAt: now}
		if err := e.Repo.AddTeamMember(ctx, tx, member); err != nil {
			return domain.Team{}, fmt.Errorf("add member: %w", err)
		}
	}
	if err := e.Events.Append(ctx, tx, "team.created", t.ID, "team", t.ID, actorID, events.EventPayload{"name": t.Name}); err != nil {
		return domain.Team{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Team{}, err
	}
	return t, nil
}

func (e Engine) AddMember(ctx context.Context, teamID, userID, role, actorID string) (domain.TeamMember, error) {
	if userID == "" {
		return domain.TeamMember{}, errors.New("user is required")
	}
	if role == "" {
		role = "planner"
	}
	if _, err := e.Repo.GetTeam(ctx, teamID); err != nil {
		return domain.TeamMember{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.TeamMember{}, err
	}
	defer tx.Rollback()

	m := domain.TeamMember{
		TeamID:  teamID,
		UserID:  userID,
		Role:    role,
		AddedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.AddTeamMember(ctx, tx, m); err != nil {
		return domain.TeamMember{}, err
	}
	if err := e.Events.Append(ctx, tx, "team.member_added", teamID, "member", userID, actorID, events.EventPayload{"role": role}); err != nil {
		return domain.TeamMember{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TeamMember{}, err
	}
	return m, nil
}

var validResourceKinds = map[string]bool{
	domain.KindPersonnel: true,
	domain.KindEquipment: true,
	domain.KindVehicle:   true,
}

func (e Engine) CreateResource(ctx context.Context, teamID, name, kind, actorID string) (domain.Resource, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Resource{}, errors.New("name is required")
	}
	if !validResourceKinds[kind] {
		return domain.Resource{}, fmt.Errorf("kind must be personnel, equipment, or vehicle")
	}
	if _, err := e.Repo.GetTeam(ctx, teamID); err != nil {
		return domain.Resource{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Resource{}, err
	}
	defer tx.Rollback()

	res := domain.Resource{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		Name:      name,
		Kind:      kind,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertResource(ctx, tx, res); err != nil {
		return domain.Resource{}, fmt.Errorf("insert resource: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "resource.created", teamID, "resource", res.ID, actorID, events.EventPayload{"name": name, "kind": kind}); err != nil {
		return domain.Resource{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Resource{}, err
	}
	return res, nil
}

func (e Engine) RenameResource(ctx context.Context, id, name, actorID string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	res, err := e.Repo.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.UpdateResource(ctx, id, &name); err != nil {
		return err
	}
	return e.appendEvent(ctx, "resource.renamed", res.TeamID, "resource", id, actorID, events.EventPayload{"name": name})
}

func (e Engine) DeleteResource(ctx context.Context, id, actorID string) error {
	res, err := e.Repo.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteResource(ctx, id); err != nil {
		return err
	}
	return e.appendEvent(ctx, "resource.deleted", res.TeamID, "resource", id, actorID, nil)
}

func (e Engine) CreateProject(ctx context.Context, teamID, name, color, actorID string) (domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if color != "" && !strings.HasPrefix(color, "#") {
		return domain.Project{}, fmt.Errorf("color %q must be a hex value", color)
	}
	if _, err := e.Repo.GetTeam(ctx, teamID); err != nil {
		return domain.Project{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	p := domain.Project{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		Name:      name,
		Color:     color,
		Status:    "active",
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "project.created", teamID, "project", p.ID, actorID, events.EventPayload{"name": name}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (e Engine) UpdateProject(ctx context.Context, id, status string, name, color *string, actorID string) error {
	p, err := e.Repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	switch status {
	case "", "active", "archived":
	default:
		return fmt.Errorf("status must be active or archived")
	}
	if err := e.Repo.UpdateProject(ctx, id, status, name, color); err != nil {
		return err
	}
	payload := events.EventPayload{}
	if status != "" {
		payload["status"] = status
	}
	if name != nil {
		payload["name"] = *name
	}
	return e.appendEvent(ctx, "project.updated", p.TeamID, "project", id, actorID, payload)
}

func (e Engine) DeleteProject(ctx context.Context, id, actorID string) error {
	p, err := e.Repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	return e.appendEvent(ctx, "project.deleted", p.TeamID, "project", id, actorID, nil)
}

// UpsertNote pins a note onto a resource cell, replacing any prior note there.
func (e Engine) UpsertNote(ctx context.Context, teamID, resourceID, date, shift, body, actorID string) (domain.SchedulerNote, error) {
	if strings.TrimSpace(body) == "" {
		return domain.SchedulerNote{}, errors.New("body is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.SchedulerNote{}, fmt.Errorf("invalid date %q", date)
	}
	switch shift {
	case domain.ShiftDay, domain.ShiftNight:
	default:
		return domain.SchedulerNote{}, fmt.Errorf("shift must be day or night")
	}
	if _, err := e.Repo.GetResource(ctx, resourceID); err != nil {
		return domain.SchedulerNote{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.SchedulerNote{}, err
	}
	defer tx.Rollback()

	n := domain.SchedulerNote{
		ID:         uuid.New().String(),
		TeamID:     teamID,
		ResourceID: resourceID,
		Date:       date,
		Shift:      shift,
		Body:       body,
		UpdatedAt:  e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.UpsertNote(ctx, tx, n); err != nil {
		return domain.SchedulerNote{}, err
	}
	if err := e.Events.Append(ctx, tx, "note.upserted", teamID, "note", n.ID, actorID, events.EventPayload{"resource_id": resourceID, "date": date, "shift": shift}); err != nil {
		return domain.SchedulerNote{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.SchedulerNote{}, err
	}
	stored, err := e.Repo.GetNote(ctx, teamID, resourceID, date, shift)
	if err != nil {
		return n, nil
	}
	return stored, nil
}

func (e Engine) DeleteNote(ctx context.Context, teamID, id, actorID string) error {
	if err := e.Repo.DeleteNote(ctx, id); err != nil {
		return err
	}
	return e.appendEvent(ctx, "note.deleted", teamID, "note", id, actorID, nil)
}

func (e Engine) AddDayEvent(ctx context.Context, teamID, date, kind, label, actorID string) (domain.DayEvent, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.DayEvent{}, fmt.Errorf("invalid date %q", date)
	}
	switch kind {
	case "holiday", "blocker", "info":
	default:
		return domain.DayEvent{}, fmt.Errorf("kind must be holiday, blocker, or info")
	}
	if strings.TrimSpace(label) == "" {
		return domain.DayEvent{}, errors.New("label is required")
	}
	if _, err := e.Repo.GetTeam(ctx, teamID); err != nil {
		return domain.DayEvent{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.DayEvent{}, err
	}
	defer tx.Rollback()

	ev := domain.DayEvent{
		ID:     uuid.New().String(),
		TeamID: teamID,
		Date:   date,
		Kind:   kind,
		Label:  label,
	}
	if err := e.Repo.InsertDayEvent(ctx, tx, ev); err != nil {
		return domain.DayEvent{}, err
	}
	if err := e.Events.Append(ctx, tx, "day_event.added", teamID, "day_event", ev.ID, actorID, events.EventPayload{"date": date, "kind": kind}); err != nil {
		return domain.DayEvent{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DayEvent{}, err
	}
	return ev, nil
}

func (e Engine) DeleteDayEvent(ctx context.Context, teamID, id, actorID string) error {
	if err := e.Repo.DeleteDayEvent(ctx, id); err != nil {
		return err
	}
	return e.appendEvent(ctx, "day_event.deleted", teamID, "day_event", id, actorID, nil)
}

// CreateAPIKey mints a new key and returns the plaintext once. Only the hash
// is stored.
func (e Engine) CreateAPIKey(ctx context.Context, name, actorID string) (domain.APIKey, string, error) {
	if actorID == "" {
		return domain.APIKey{}, "", errors.New("actor is required")
	}
	plaintext := "cb_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	key := domain.APIKey{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(plaintext),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, plaintext, nil
}

// LoadCatalog assembles the droppable catalog for a team: every resource,
// plus work items derived from active projects, the resources themselves,
// and the configured absence types.
func (e Engine) LoadCatalog(ctx context.Context, teamID string) (schedule.Catalog, error) {
	resources, err := e.Repo.ListResources(ctx, repo.ResourceFilters{TeamID: teamID})
	if err != nil {
		return schedule.Catalog{}, err
	}
	projects, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{TeamID: teamID, Status: "active"})
	if err != nil {
		return schedule.Catalog{}, err
	}
	var items []domain.WorkItem
	for _, p := range projects {
		items = append(items, domain.WorkItem{
			ID:    p.ID,
			Name:  p.Name,
			Kind:  domain.ItemProject,
			Color: p.Color,
		})
	}
	// Resources are draggable in both directions, so each also appears as a
	// work item of its own kind.
	for _, r := range resources {
		items = append(items, domain.WorkItem{ID: r.ID, Name: r.Name, Kind: r.Kind})
	}
	if e.Config != nil {
		items = append(items, e.Config.AbsenceItems()...)
	}
	return schedule.NewCatalog(resources, items), nil
}

// LoadWindowState builds the initial board state for a date window from the
// persisted notes and day events. Assignments start empty and live in board
// sessions only.
func (e Engine) LoadWindowState(ctx context.Context, teamID, from, to string) (schedule.State, error) {
	notes, err := e.Repo.ListNotes(ctx, teamID, from, to)
	if err != nil {
		return schedule.State{}, err
	}
	dayEvents, err := e.Repo.ListDayEvents(ctx, teamID, from, to)
	if err != nil {
		return schedule.State{}, err
	}
	return schedule.State{Notes: notes, DayEvents: dayEvents}, nil
}

func (e Engine) appendEvent(ctx context.Context, evtType, teamID, entityKind, entityID, actorID string, payload events.EventPayload) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, evtType, teamID, entityKind, entityID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}
