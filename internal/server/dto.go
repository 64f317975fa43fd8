package server

import (
	"crewboard/internal/board"
	"crewboard/internal/domain"
	"crewboard/internal/schedule"
)

type CreateTeamRequest struct {
	Name string `json:"name" example:"Field Ops"`
}

type TeamResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func teamResponse(t domain.Team) TeamResponse {
	return TeamResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func mapTeams(in []domain.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(in))
	for _, t := range in {
		out = append(out, teamResponse(t))
	}
	return out
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty" enum:"planner,viewer,"`
}

type MemberResponse struct {
	TeamID  string `json:"team_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	AddedAt string `json:"added_at" format:"date-time"`
}

func memberResponse(m domain.TeamMember) MemberResponse {
	return MemberResponse{TeamID: m.TeamID, UserID: m.UserID, Role: m.Role, AddedAt: m.AddedAt}
}

func mapMembers(in []domain.TeamMember) []MemberResponse {
	out := make([]MemberResponse, 0, len(in))
	for _, m := range in {
		out = append(out, memberResponse(m))
	}
	return out
}

type CreateResourceRequest struct {
	Name string `json:"name" example:"GNSS Receiver 1"`
	Kind string `json:"kind" enum:"personnel,equipment,vehicle"`
}

type ResourceResponse struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind" enum:"personnel,equipment,vehicle"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func resourceResponse(r domain.Resource) ResourceResponse {
	return ResourceResponse{ID: r.ID, TeamID: r.TeamID, Name: r.Name, Kind: r.Kind, CreatedAt: r.CreatedAt}
}

func mapResources(in []domain.Resource) []ResourceResponse {
	out := make([]ResourceResponse, 0, len(in))
	for _, r := range in {
		out = append(out, resourceResponse(r))
	}
	return out
}

type CreateProjectRequest struct {
	Name  string `json:"name" example:"Bridge Survey"`
	Color string `json:"color,omitempty" example:"#2563eb"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Status    string `json:"status" enum:"active,archived"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, TeamID: p.TeamID, Name: p.Name, Color: p.Color, Status: p.Status, CreatedAt: p.CreatedAt}
}

func mapProjects(in []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(in))
	for _, p := range in {
		out = append(out, projectResponse(p))
	}
	return out
}

type CreateBoardRequest struct {
	TeamID string `json:"team_id"`
	From   string `json:"from" format:"date"`
	To     string `json:"to" format:"date"`
	View   string `json:"view,omitempty" enum:"all,personnel,equipment,vehicles,"`
}

type WorkItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Color    string `json:"color,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type BoardResponse struct {
	ID        string             `json:"id"`
	TeamID    string             `json:"team_id"`
	From      string             `json:"from" format:"date"`
	To        string             `json:"to" format:"date"`
	View      string             `json:"view"`
	Resources []ResourceResponse `json:"resources"`
	Items     []WorkItemResponse `json:"items"`
}

func boardResponse(s *board.Session, catalog schedule.Catalog) BoardResponse {
	items := make([]WorkItemResponse, 0)
	for _, it := range catalog.Items() {
		items = append(items, WorkItemResponse{ID: it.ID, Name: it.Name, Kind: it.Kind, Color: it.Color, Duration: it.Duration})
	}
	return BoardResponse{
		ID:        s.ID,
		TeamID:    s.TeamID,
		From:      s.From,
		To:        s.To,
		View:      s.View(),
		Resources: mapResources(catalog.Resources()),
		Items:     items,
	}
}

type AssignmentResponse struct {
	ID         string `json:"id"`
	WorkItemID string `json:"work_item_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date" format:"date"`
	Shift      string `json:"shift" enum:"day,night"`
	Type       string `json:"type"`
	Duration   int    `json:"duration"`
}

func assignmentResponse(a domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		WorkItemID: a.WorkItemID,
		ResourceID: a.ResourceID,
		Date:       a.Date,
		Shift:      a.Shift,
		Type:       a.Type,
		Duration:   a.Duration,
	}
}

type BoardStateResponse struct {
	ID          string               `json:"id"`
	TeamID      string               `json:"team_id"`
	View        string               `json:"view"`
	ShiftFilter string               `json:"shift_filter"`
	Assignments []AssignmentResponse `json:"assignments"`
	Notes       []NoteResponse       `json:"notes"`
	DayEvents   []DayEventResponse   `json:"day_events"`
}

func boardStateResponse(s *board.Session) BoardStateResponse {
	st := s.Snapshot()
	assignments := make([]AssignmentResponse, 0, len(st.Assignments))
	for _, a := range st.Assignments {
		assignments = append(assignments, assignmentResponse(a))
	}
	notes := make([]NoteResponse, 0, len(st.Notes))
	for _, n := range st.Notes {
		notes = append(notes, noteResponse(n))
	}
	dayEvents := make([]DayEventResponse, 0, len(st.DayEvents))
	for _, ev := range st.DayEvents {
		dayEvents = append(dayEvents, dayEventResponse(ev))
	}
	return BoardStateResponse{
		ID:          s.ID,
		TeamID:      s.TeamID,
		View:        s.View(),
		ShiftFilter: s.Shift(),
		Assignments: assignments,
		Notes:       notes,
		DayEvents:   dayEvents,
	}
}

type BoardViewResponse struct {
	View        string `json:"view"`
	ShiftFilter string `json:"shift_filter"`
}

type DropRequest struct {
	ItemID   string `json:"item_id"`
	TargetID string `json:"target_id"`
	Date     string `json:"date" format:"date"`
	Shift    string `json:"shift" enum:"day,night"`
}

type DropResponse struct {
	Accepted   bool                `json:"accepted"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Detail     string              `json:"detail,omitempty"`
}

func dropResponse(res schedule.DropResult) DropResponse {
	out := DropResponse{Accepted: res.Accepted, Reason: res.Reason, Detail: res.Detail}
	if res.Accepted {
		a := assignmentResponse(res.Assignment)
		out.Assignment = &a
	}
	return out
}

// Range fields carry no format or enum tags: malformed dates and shift
// selectors must reach the expander so they report as invalid_range, not
// as a schema failure.
type BulkAssignRequest struct {
	ItemID          string `json:"item_id"`
	TargetID        string `json:"target_id"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Shift           string `json:"shift"`
	IncludeWeekends *bool  `json:"include_weekends,omitempty"`
}

type SlotOutcomeResponse struct {
	Date         string `json:"date" format:"date"`
	Shift        string `json:"shift" enum:"day,night"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type BulkAssignResponse struct {
	Created  int                   `json:"created"`
	Rejected int                   `json:"rejected"`
	Outcomes []SlotOutcomeResponse `json:"outcomes"`
}

func bulkAssignResponse(res schedule.BulkResult) BulkAssignResponse {
	outcomes := make([]SlotOutcomeResponse, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		outcomes = append(outcomes, SlotOutcomeResponse{
			Date:         o.Date,
			Shift:        o.Shift,
			AssignmentID: o.AssignmentID,
			Reason:       o.Reason,
		})
	}
	return BulkAssignResponse{Created: res.Created, Rejected: res.Rejected, Outcomes: outcomes}
}

type NoteRequest struct {
	ResourceID string `json:"resource_id"`
	Date       string `json:"date" format:"date"`
	Shift      string `json:"shift" enum:"day,night"`
	Body       string `json:"body"`
}

type NoteResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date" format:"date"`
	Shift      string `json:"shift" enum:"day,night"`
	Body       string `json:"body"`
	UpdatedAt  string `json:"updated_at" format:"date-time"`
}

func noteResponse(n domain.SchedulerNote) NoteResponse {
	return NoteResponse{
		ID:         n.ID,
		ResourceID: n.ResourceID,
		Date:       n.Date,
		Shift:      n.Shift,
		Body:       n.Body,
		UpdatedAt:  n.UpdatedAt,
	}
}

type DayEventRequest struct {
	Date  string `json:"date" format:"date"`
	Kind  string `json:"kind" enum:"holiday,blocker,info"`
	Label string `json:"label"`
}

type DayEventResponse struct {
	ID    string `json:"id"`
	Date  string `json:"date" format:"date"`
	Kind  string `json:"kind" enum:"holiday,blocker,info"`
	Label string `json:"label"`
}

func dayEventResponse(e domain.DayEvent) DayEventResponse {
	return DayEventResponse{ID: e.ID, Date: e.Date, Kind: e.Kind, Label: e.Label}
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	TeamID     string `json:"team_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

func mapEvents(in []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(in))
	for _, e := range in {
		out = append(out, EventResponse{
			ID:         e.ID,
			TS:         e.TS,
			Type:       e.Type,
			TeamID:     e.TeamID,
			EntityKind: e.EntityKind,
			EntityID:   e.EntityID,
			ActorID:    e.ActorID,
			Payload:    e.Payload,
		})
	}
	return out
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKeyCreatedResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func mapAPIKeys(in []domain.APIKey) []APIKeyResponse {
	out := make([]APIKeyResponse, 0, len(in))
	for _, k := range in {
		out = append(out, APIKeyResponse{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt})
	}
	return out
}

type MeResponse struct {
	ActorID string `json:"actor_id"`
	Source  string `json:"source"`
}
