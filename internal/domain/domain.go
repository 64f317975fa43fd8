package domain

// Resource kinds (rows on the scheduling grid).
const (
	KindPersonnel = "personnel"
	KindEquipment = "equipment"
	KindVehicle   = "vehicle"
)

// Work item kinds (draggable things placed onto a grid cell).
const (
	ItemProject = "project"
	ItemAbsence = "absence"
)

// Shifts and shift selectors.
const (
	ShiftDay   = "day"
	ShiftNight = "night"
	ShiftBoth  = "both"
)

// View modes controlling grid orientation.
const (
	ViewAll       = "all"
	ViewPersonnel = "personnel"
	ViewEquipment = "equipment"
	ViewVehicles  = "vehicles"
)

type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TeamMember struct {
	TeamID  string `json:"team_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role" enum:"planner,viewer"`
	AddedAt string `json:"added_at" format:"date-time"`
}

// Resource is a schedulable entity: a person, a piece of equipment, or a
// vehicle. Immutable once created.
type Resource struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind" enum:"personnel,equipment,vehicle"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Project is assignable work that appears in the work item catalog.
type Project struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Status    string `json:"status" enum:"active,paused,archived"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// WorkItem is a draggable catalog entry. Projects and absence types are work
// items outright; equipment and vehicle resources double as work items in
// personnel-centric views, and personnel double as work items in
// equipment/vehicle-centric views.
type WorkItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind" enum:"project,equipment,vehicle,personnel,absence"`
	Color    string `json:"color,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// Assignment is a committed placement of a work item onto a resource for a
// given date and shift. The stored orientation is canonical regardless of
// which visual direction the drag happened (see schedule.Validate).
type Assignment struct {
	ID         string `json:"id"`
	WorkItemID string `json:"work_item_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date" format:"date"`
	Shift      string `json:"shift" enum:"day,night"`
	Type       string `json:"type" enum:"project,equipment,vehicle,absence"`
	Duration   int    `json:"duration"`
}

// SchedulerNote is a free-text annotation on a (resource, date, shift) cell.
// No conflict rules apply.
type SchedulerNote struct {
	ID         string `json:"id"`
	TeamID     string `json:"team_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date" format:"date"`
	Shift      string `json:"shift" enum:"day,night"`
	Body       string `json:"body"`
	UpdatedAt  string `json:"updated_at" format:"date-time"`
}

// DayEvent is a calendar-wide annotation attached to a date, independent of
// assignments and resources.
type DayEvent struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Date   string `json:"date" format:"date"`
	Kind   string `json:"kind" enum:"holiday,blocker,info"`
	Label  string `json:"label"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	TeamID     string `json:"team_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
