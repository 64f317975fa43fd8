package repo

import (
	"context"
	"database/sql"

	"crewboard/internal/domain"
)

// UpsertNote inserts or replaces the note pinned to a resource cell. One note
// per (team, resource, date, shift).
func (r Repo) UpsertNote(ctx context.Context, tx *sql.Tx, n domain.SchedulerNote) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO scheduler_notes(id,team_id,resource_id,date,shift,body,updated_at) VALUES (?,?,?,?,?,?,?)
ON CONFLICT(team_id,resource_id,date,shift) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`,
		n.ID, n.TeamID, n.ResourceID, n.Date, n.Shift, n.Body, n.UpdatedAt)
	return err
}

func (r Repo) GetNote(ctx context.Context, teamID, resourceID, date, shift string) (domain.SchedulerNote, error) {
	var n domain.SchedulerNote
	err := r.DB.QueryRowContext(ctx, `SELECT id,team_id,resource_id,date,shift,body,updated_at FROM scheduler_notes WHERE team_id=? AND resource_id=? AND date=? AND shift=?`,
		teamID, resourceID, date, shift).
		Scan(&n.ID, &n.TeamID, &n.ResourceID, &n.Date, &n.Shift, &n.Body, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return n, ErrNotFound
	}
	return n, err
}

// ListNotes returns notes for a team inside a date window, inclusive.
func (r Repo) ListNotes(ctx context.Context, teamID, from, to string) ([]domain.SchedulerNote, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,team_id,resource_id,date,shift,body,updated_at FROM scheduler_notes WHERE team_id=? AND date>=? AND date<=? ORDER BY date ASC, resource_id ASC, shift ASC`,
		teamID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SchedulerNote
	for rows.Next() {
		var n domain.SchedulerNote
		if err := rows.Scan(&n.ID, &n.TeamID, &n.ResourceID, &n.Date, &n.Shift, &n.Body, &n.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r Repo) DeleteNote(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM scheduler_notes WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertDayEvent(ctx context.Context, tx *sql.Tx, e domain.DayEvent) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO day_events(id,team_id,date,kind,label) VALUES (?,?,?,?,?)`,
		e.ID, e.TeamID, e.Date, e.Kind, e.Label)
	return err
}

func (r Repo) ListDayEvents(ctx context.Context, teamID, from, to string) ([]domain.DayEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,team_id,date,kind,label FROM day_events WHERE team_id=? AND date>=? AND date<=? ORDER BY date ASC, id ASC`,
		teamID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DayEvent
	for rows.Next() {
		var e domain.DayEvent
		if err := rows.Scan(&e.ID, &e.TeamID, &e.Date, &e.Kind, &e.Label); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) DeleteDayEvent(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM day_events WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
