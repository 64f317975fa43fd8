package crewboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Crewboard HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Team represents the API team model.
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Resource represents a schedulable row on the board.
type Resource struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at"`
}

// Project represents a plannable project.
type Project struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// WorkItem is a draggable item from the board catalog.
type WorkItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Color    string `json:"color,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// Board describes an open board window and its catalog.
type Board struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"team_id"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	View      string     `json:"view"`
	Resources []Resource `json:"resources"`
	Items     []WorkItem `json:"items"`
}

// Assignment is a placed slot on the board.
type Assignment struct {
	ID         string `json:"id"`
	WorkItemID string `json:"work_item_id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	Type       string `json:"type"`
	Duration   int    `json:"duration"`
}

// Note is a scheduler note pinned to a cell.
type Note struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	Body       string `json:"body"`
	UpdatedAt  string `json:"updated_at"`
}

// DayEvent marks a whole calendar day.
type DayEvent struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// BoardState is the live snapshot of an open board.
type BoardState struct {
	ID          string       `json:"id"`
	TeamID      string       `json:"team_id"`
	View        string       `json:"view"`
	ShiftFilter string       `json:"shift_filter"`
	Assignments []Assignment `json:"assignments"`
	Notes       []Note       `json:"notes"`
	DayEvents   []DayEvent   `json:"day_events"`
}

// DropResult reports the outcome of a single drop. A rejected drop is a
// normal result, not an API error.
type DropResult struct {
	Accepted   bool        `json:"accepted"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Detail     string      `json:"detail,omitempty"`
}

// SlotOutcome reports one slot of a bulk assignment.
type SlotOutcome struct {
	Date         string `json:"date"`
	Shift        string `json:"shift"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// BulkResult reports the outcome of a range assignment.
type BulkResult struct {
	Created  int           `json:"created"`
	Rejected int           `json:"rejected"`
	Outcomes []SlotOutcome `json:"outcomes"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	TeamID     string `json:"team_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateTeam creates a team; the caller becomes its first planner.
func (c *Client) CreateTeam(ctx context.Context, name string) (Team, error) {
	var out Team
	err := c.do(ctx, http.MethodPost, "v1/teams", map[string]string{"name": name}, &out)
	return out, err
}

// Teams lists the teams the caller belongs to.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var out []Team
	err := c.do(ctx, http.MethodGet, "v1/teams", nil, &out)
	return out, err
}

// AddMember adds a user to a team.
func (c *Client) AddMember(ctx context.Context, teamID, userID, role string) error {
	body := map[string]string{"user_id": userID}
	if role != "" {
		body["role"] = role
	}
	return c.do(ctx, http.MethodPost, c.teamPath(teamID, "members"), body, nil)
}

// CreateResource adds a schedulable resource to a team.
func (c *Client) CreateResource(ctx context.Context, teamID, name, kind string) (Resource, error) {
	var out Resource
	err := c.do(ctx, http.MethodPost, c.teamPath(teamID, "resources"),
		map[string]string{"name": name, "kind": kind}, &out)
	return out, err
}

// Resources lists a team's resources.
func (c *Client) Resources(ctx context.Context, teamID string) ([]Resource, error) {
	var out []Resource
	err := c.do(ctx, http.MethodGet, c.teamPath(teamID, "resources"), nil, &out)
	return out, err
}

// CreateProject adds a plannable project to a team.
func (c *Client) CreateProject(ctx context.Context, teamID, name, color string) (Project, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var out Project
	err := c.do(ctx, http.MethodPost, c.teamPath(teamID, "projects"), body, &out)
	return out, err
}

// Projects lists a team's projects.
func (c *Client) Projects(ctx context.Context, teamID string) ([]Project, error) {
	var out []Project
	err := c.do(ctx, http.MethodGet, c.teamPath(teamID, "projects"), nil, &out)
	return out, err
}

// OpenBoard opens a board over a date window (dates are YYYY-MM-DD).
func (c *Client) OpenBoard(ctx context.Context, teamID, from, to string) (Board, error) {
	var out Board
	err := c.do(ctx, http.MethodPost, "v1/boards",
		map[string]string{"team_id": teamID, "from": from, "to": to}, &out)
	return out, err
}

// BoardState fetches the live snapshot of an open board.
func (c *Client) BoardState(ctx context.Context, boardID string) (BoardState, error) {
	var out BoardState
	err := c.do(ctx, http.MethodGet, c.boardPath(boardID, ""), nil, &out)
	return out, err
}

// CloseBoard discards an open board session.
func (c *Client) CloseBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodDelete, c.boardPath(boardID, ""), nil, nil)
}

// SetView switches a board's view or shift filter. Empty fields are left
// unchanged.
func (c *Client) SetView(ctx context.Context, boardID, view, shiftFilter string) error {
	body := map[string]string{}
	if view != "" {
		body["view"] = view
	}
	if shiftFilter != "" {
		body["shift_filter"] = shiftFilter
	}
	return c.do(ctx, http.MethodPatch, c.boardPath(boardID, "view"), body, nil)
}

// Drop places one item on a target slot and reports the outcome.
func (c *Client) Drop(ctx context.Context, boardID, itemID, targetID, date, shift string) (DropResult, error) {
	var out DropResult
	err := c.do(ctx, http.MethodPost, c.boardPath(boardID, "drops"), map[string]string{
		"item_id":   itemID,
		"target_id": targetID,
		"date":      date,
		"shift":     shift,
	}, &out)
	return out, err
}

// BulkAssign applies one item across a date range.
func (c *Client) BulkAssign(ctx context.Context, boardID, itemID, targetID, startDate, endDate, shift string) (BulkResult, error) {
	var out BulkResult
	err := c.do(ctx, http.MethodPost, c.boardPath(boardID, "bulk-assign"), map[string]string{
		"item_id":    itemID,
		"target_id":  targetID,
		"start_date": startDate,
		"end_date":   endDate,
		"shift":      shift,
	}, &out)
	return out, err
}

// RemoveAssignment deletes an assignment from an open board. Removing an
// unknown assignment is not an error.
func (c *Client) RemoveAssignment(ctx context.Context, boardID, assignmentID string) error {
	return c.do(ctx, http.MethodDelete, c.boardPath(boardID, "assignments/"+url.PathEscape(assignmentID)), nil, nil)
}

// PutNote creates or replaces the note on a board cell.
func (c *Client) PutNote(ctx context.Context, boardID, resourceID, date, shift, body string) (Note, error) {
	var out Note
	err := c.do(ctx, http.MethodPut, c.boardPath(boardID, "notes"), map[string]string{
		"resource_id": resourceID,
		"date":        date,
		"shift":       shift,
		"body":        body,
	}, &out)
	return out, err
}

// Events fetches a team's most recent log entries.
func (c *Client) Events(ctx context.Context, teamID string, limit int) ([]Event, error) {
	endpoint := c.teamPath(teamID, "events")
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}
	var out []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) teamPath(teamID, p string) string {
	team := url.PathEscape(teamID)
	return fmt.Sprintf("v1/teams/%s/%s", team, strings.TrimLeft(p, "/"))
}

func (c *Client) boardPath(boardID, p string) string {
	board := url.PathEscape(boardID)
	if p == "" {
		return "v1/boards/" + board
	}
	return fmt.Sprintf("v1/boards/%s/%s", board, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
