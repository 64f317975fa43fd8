package board

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"crewboard/internal/domain"
	"crewboard/internal/schedule"
)

// Session is a live planning board over a date window. All mutations take the
// session lock, so concurrent drops on the same cell resolve first-writer-wins.
type Session struct {
	ID     string
	TeamID string
	From   string
	To     string

	mu          sync.Mutex
	viewMode    string
	shiftFilter string
	engine      schedule.Engine
	state       schedule.State
}

func NewSession(teamID, from, to, viewMode string, engine schedule.Engine, initial schedule.State) *Session {
	return &Session{
		ID:          uuid.New().String(),
		TeamID:      teamID,
		From:        from,
		To:          to,
		viewMode:    viewMode,
		shiftFilter: "all",
		engine:      engine,
		state:       initial,
	}
}

// View returns the current view mode under the session lock.
func (s *Session) View() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewMode
}

// Shift returns the current shift filter under the session lock.
func (s *Session) Shift() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shiftFilter
}

func (s *Session) Drop(p schedule.Proposal) schedule.DropResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, res := s.engine.HandleDrop(s.state, p, s.viewMode)
	s.state = next
	return res
}

func (s *Session) BulkAssign(req schedule.BulkRequest) (schedule.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, res, err := s.engine.ApplyRange(s.state, req, s.viewMode)
	if err != nil {
		return schedule.BulkResult{}, err
	}
	s.state = next
	return res, nil
}

func (s *Session) RemoveAssignment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.engine.RemoveAssignment(s.state, id)
}

func (s *Session) UpsertNote(n domain.SchedulerNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.UpsertNote(n)
}

func (s *Session) RemoveNote(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.RemoveNote(id)
}

func (s *Session) AddDayEvent(e domain.DayEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.AddDayEvent(e)
}

func (s *Session) RemoveDayEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.RemoveDayEvent(id)
}

// Snapshot returns the current immutable state. Safe to read without further
// locking because State values never mutate shared slices.
func (s *Session) Snapshot() schedule.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

var validViews = map[string]bool{
	domain.ViewAll:       true,
	domain.ViewPersonnel: true,
	domain.ViewEquipment: true,
	domain.ViewVehicles:  true,
}

func (s *Session) SetView(viewMode string) error {
	if !validViews[viewMode] {
		return errors.New("view must be all, personnel, equipment, or vehicles")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = viewMode
	return nil
}

func (s *Session) SetShiftFilter(filter string) error {
	switch filter {
	case "all", domain.ShiftDay, domain.ShiftNight:
	default:
		return errors.New("shift filter must be all, day, or night")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shiftFilter = filter
	return nil
}

// Manager tracks live board sessions by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		res = append(res, s)
	}
	return res
}
