package auth

import (
	"context"
	"database/sql"
	"fmt"
)

// ForbiddenError indicates the user is not a member of the team.
type ForbiddenError struct {
	TeamID string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("membership in team %s required", e.TeamID)
}

// Service provides team membership checks backed by SQL.
type Service struct {
	DB *sql.DB
}

func (s Service) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT 1 FROM team_members WHERE team_id=? AND user_id=? LIMIT 1`, teamID, userID)
	var n int
	err := row.Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// RequireMember returns ForbiddenError when the user does not belong to the team.
func (s Service) RequireMember(ctx context.Context, teamID, userID string) error {
	ok, err := s.IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ForbiddenError{TeamID: teamID}
	}
	return nil
}

func (s Service) MemberRole(ctx context.Context, teamID, userID string) (string, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT role FROM team_members WHERE team_id=? AND user_id=?`, teamID, userID)
	var role string
	err := row.Scan(&role)
	if err == sql.ErrNoRows {
		return "", ForbiddenError{TeamID: teamID}
	}
	return role, err
}
