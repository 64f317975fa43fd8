package schedule

import (
	"crewboard/internal/domain"
)

// State is the in-memory collection of assignments, notes, and day events for
// the loaded time window. All mutating operations return a new State and
// leave the receiver untouched, so callers can hold references to earlier
// snapshots safely. State does no I/O; durable save of notes and day events
// is the caller's concern.
type State struct {
	Assignments []domain.Assignment
	Notes       []domain.SchedulerNote
	DayEvents   []domain.DayEvent
}

// AddAssignment appends in insertion order.
func (s State) AddAssignment(a domain.Assignment) State {
	out := s
	out.Assignments = appendCopy(s.Assignments, a)
	return out
}

// RemoveAssignment filters out the matching id. Removing an absent id is a
// no-op, not an error.
func (s State) RemoveAssignment(id string) State {
	out := s
	out.Assignments = removeByID(s.Assignments, id, func(a domain.Assignment) string { return a.ID })
	return out
}

// All returns the current assignments in insertion order.
func (s State) All() []domain.Assignment {
	return s.Assignments
}

func (s State) UpsertNote(n domain.SchedulerNote) State {
	out := s
	for i, existing := range s.Notes {
		if existing.ID == n.ID {
			notes := make([]domain.SchedulerNote, len(s.Notes))
			copy(notes, s.Notes)
			notes[i] = n
			out.Notes = notes
			return out
		}
	}
	out.Notes = appendCopy(s.Notes, n)
	return out
}

func (s State) RemoveNote(id string) State {
	out := s
	out.Notes = removeByID(s.Notes, id, func(n domain.SchedulerNote) string { return n.ID })
	return out
}

func (s State) AddDayEvent(e domain.DayEvent) State {
	out := s
	out.DayEvents = appendCopy(s.DayEvents, e)
	return out
}

func (s State) RemoveDayEvent(id string) State {
	out := s
	out.DayEvents = removeByID(s.DayEvents, id, func(e domain.DayEvent) string { return e.ID })
	return out
}

// appendCopy appends onto a fresh backing array so prior snapshots never see
// the new element through shared capacity.
func appendCopy[T any](in []T, v T) []T {
	out := make([]T, len(in), len(in)+1)
	copy(out, in)
	return append(out, v)
}

func removeByID[T any](in []T, id string, idOf func(T) string) []T {
	idx := -1
	for i, v := range in {
		if idOf(v) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return in
	}
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:idx]...)
	return append(out, in[idx+1:]...)
}
