package schedule

import (
	"errors"

	"github.com/google/uuid"

	"crewboard/internal/domain"
)

// Engine is the single mutating entry point for turning a completed drag
// gesture into a state change. It never returns a Go error for a refused
// drop; a failed drag must leave the grid consistent, so rejections surface
// only through DropResult.
type Engine struct {
	Catalog Catalog
	NewID   func() string
}

func New(c Catalog) Engine {
	return Engine{
		Catalog: c,
		NewID:   func() string { return uuid.New().String() },
	}
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.New().String()
}

// DropResult is the discriminated outcome of HandleDrop.
type DropResult struct {
	Accepted   bool
	Assignment domain.Assignment
	Reason     string
	Detail     string
}

// HandleDrop validates the proposal against the current state and either
// commits a new assignment or returns the state unchanged with the rejection
// reason. First writer wins: an earlier conflicting assignment is never
// overwritten.
func (e Engine) HandleDrop(st State, p Proposal, viewMode string) (State, DropResult) {
	pl, err := Validate(e.Catalog, p, st.All(), viewMode)
	if err != nil {
		var rej RejectionError
		if errors.As(err, &rej) {
			return st, DropResult{Reason: rej.Reason, Detail: rej.Detail}
		}
		return st, DropResult{Reason: ReasonUnknownItemKind, Detail: err.Error()}
	}
	a := domain.Assignment{
		ID:         e.newID(),
		WorkItemID: pl.WorkItemID,
		ResourceID: pl.ResourceID,
		Date:       p.Date,
		Shift:      p.Shift,
		Type:       pl.Type,
		Duration:   pl.Duration,
	}
	return st.AddAssignment(a), DropResult{Accepted: true, Assignment: a}
}

// RemoveAssignment removes without validation; removal is always permitted
// and removing an unknown id is a no-op.
func (e Engine) RemoveAssignment(st State, id string) State {
	return st.RemoveAssignment(id)
}
