package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"crewboard/internal/config"
	"crewboard/internal/db"
	"crewboard/internal/engine"
	"crewboard/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{AllowLegacyActorHeader: true}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

var asTester = map[string]string{"X-Actor-Id": "tester"}

func mustDecode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", string(data), err)
	}
}

func setupTeam(t *testing.T, srv *testServer) (teamID string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/teams", map[string]any{"name": "Field Ops"}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create team status %d: %s", res.StatusCode, string(data))
	}
	var team TeamResponse
	mustDecode(t, data, &team)
	return team.ID
}

func createResource(t *testing.T, srv *testServer, teamID, name, kind string) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/teams/"+teamID+"/resources",
		map[string]any{"name": name, "kind": kind}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create resource status %d: %s", res.StatusCode, string(data))
	}
	var out ResourceResponse
	mustDecode(t, data, &out)
	return out.ID
}

func createBoard(t *testing.T, srv *testServer, teamID string) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards", map[string]any{
		"team_id": teamID,
		"from":    "2025-09-01",
		"to":      "2025-09-07",
	}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create board status %d: %s", res.StatusCode, string(data))
	}
	var out BoardResponse
	mustDecode(t, data, &out)
	return out.ID
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/teams", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	mustDecode(t, data, &envelope)
	if envelope.Error.Code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %q", envelope.Error.Code)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func TestNonMemberForbidden(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	teamID := setupTeam(t, srv)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/teams/"+teamID, nil,
		map[string]string{"X-Actor-Id": "stranger"})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", res.StatusCode, string(data))
	}
}

func TestBoardDropFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	teamID := setupTeam(t, srv)
	aliceID := createResource(t, srv, teamID, "Alice", "personnel")
	gnssID := createResource(t, srv, teamID, "GNSS Receiver 1", "equipment")
	bobID := createResource(t, srv, teamID, "Bob", "personnel")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/teams/"+teamID+"/projects",
		map[string]any{"name": "Bridge Survey", "color": "#2563eb"}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var project ProjectResponse
	mustDecode(t, data, &project)

	boardID := createBoard(t, srv, teamID)

	// Project onto a person commits an assignment.
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/drops", map[string]any{
		"item_id":   project.ID,
		"target_id": aliceID,
		"date":      "2025-09-01",
		"shift":     "day",
	}, asTester)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("drop status %d: %s", res.StatusCode, string(data))
	}
	var drop DropResponse
	mustDecode(t, data, &drop)
	if !drop.Accepted || drop.Assignment == nil {
		t.Fatalf("expected accepted drop, got %+v", drop)
	}
	if drop.Assignment.WorkItemID != project.ID || drop.Assignment.ResourceID != aliceID {
		t.Fatalf("unexpected orientation: %+v", drop.Assignment)
	}

	// Equipment claims Alice for the same shift.
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/drops", map[string]any{
		"item_id":   gnssID,
		"target_id": aliceID,
		"date":      "2025-09-01",
		"shift":     "day",
	}, asTester)
	mustDecode(t, data, &drop)
	if !drop.Accepted {
		t.Fatalf("equipment drop rejected: %+v", drop)
	}

	// Same equipment cannot also go to Bob on that shift.
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/drops", map[string]any{
		"item_id":   gnssID,
		"target_id": bobID,
		"date":      "2025-09-01",
		"shift":     "day",
	}, asTester)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("drop status %d: %s", res.StatusCode, string(data))
	}
	mustDecode(t, data, &drop)
	if drop.Accepted || drop.Reason != "exclusivity_violation" {
		t.Fatalf("expected exclusivity_violation, got %+v", drop)
	}

	// Snapshot shows both committed assignments.
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/boards/"+boardID, nil, asTester)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("snapshot status %d: %s", res.StatusCode, string(data))
	}
	var state BoardStateResponse
	mustDecode(t, data, &state)
	if len(state.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(state.Assignments))
	}

	// Removal is idempotent.
	removeURL := srv.URL + "/v1/boards/" + boardID + "/assignments/" + state.Assignments[0].ID
	res, _ = doJSON(t, srv.Client(), http.MethodDelete, removeURL, nil, asTester)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("remove status %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodDelete, removeURL, nil, asTester)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("second remove status %d", res.StatusCode)
	}
}

func TestBoardBulkAssign(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	teamID := setupTeam(t, srv)
	aliceID := createResource(t, srv, teamID, "Alice", "personnel")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/teams/"+teamID+"/projects",
		map[string]any{"name": "Bridge Survey"}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var project ProjectResponse
	mustDecode(t, data, &project)
	boardID := createBoard(t, srv, teamID)

	// 2025-09-01 is a Monday; weekends excluded by default.
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/bulk-assign", map[string]any{
		"item_id":    project.ID,
		"target_id":  aliceID,
		"start_date": "2025-09-01",
		"end_date":   "2025-09-07",
		"shift":      "day",
	}, asTester)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("bulk status %d: %s", res.StatusCode, string(data))
	}
	var bulk BulkAssignResponse
	mustDecode(t, data, &bulk)
	if bulk.Created != 5 || bulk.Rejected != 0 {
		t.Fatalf("expected 5 created, got %+v", bulk)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/bulk-assign", map[string]any{
		"item_id":    project.ID,
		"target_id":  aliceID,
		"start_date": "2025-09-01",
		"end_date":   "not-a-date",
		"shift":      "day",
	}, asTester)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid range, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	mustDecode(t, data, &envelope)
	if envelope.Error.Code != "invalid_range" {
		t.Fatalf("expected invalid_range, got %q", envelope.Error.Code)
	}

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/bulk-assign", map[string]any{
		"item_id":    project.ID,
		"target_id":  aliceID,
		"start_date": "2025-09-01",
		"end_date":   "2025-09-07",
		"shift":      "dusk",
	}, asTester)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad shift selector, got %d: %s", res.StatusCode, string(data))
	}
	envelope.Error.Code = ""
	mustDecode(t, data, &envelope)
	if envelope.Error.Code != "invalid_range" {
		t.Fatalf("expected invalid_range for shift selector, got %q", envelope.Error.Code)
	}
}

func TestBoardNotesAndDayEvents(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	teamID := setupTeam(t, srv)
	aliceID := createResource(t, srv, teamID, "Alice", "personnel")
	boardID := createBoard(t, srv, teamID)

	res, data := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/v1/boards/"+boardID+"/notes", map[string]any{
		"resource_id": aliceID,
		"date":        "2025-09-02",
		"shift":       "day",
		"body":        "half day, leaves at noon",
	}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("note status %d: %s", res.StatusCode, string(data))
	}
	var note NoteResponse
	mustDecode(t, data, &note)

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/boards/"+boardID+"/day-events", map[string]any{
		"date":  "2025-09-01",
		"kind":  "holiday",
		"label": "Labor Day",
	}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("day event status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/boards/"+boardID, nil, asTester)
	var state BoardStateResponse
	mustDecode(t, data, &state)
	if len(state.Notes) != 1 || len(state.DayEvents) != 1 {
		t.Fatalf("expected 1 note and 1 day event, got %d and %d", len(state.Notes), len(state.DayEvents))
	}

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/v1/boards/"+boardID+"/notes/"+note.ID, nil, asTester)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("note delete status %d", res.StatusCode)
	}

	// A fresh board over the same window reloads persisted day events.
	otherBoard := createBoard(t, srv, teamID)
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/boards/"+otherBoard, nil, asTester)
	mustDecode(t, data, &state)
	if len(state.DayEvents) != 1 {
		t.Fatalf("expected persisted day event on new board, got %d", len(state.DayEvents))
	}
	if len(state.Notes) != 0 {
		t.Fatalf("expected deleted note gone on new board, got %d", len(state.Notes))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/apikeys", map[string]any{"name": "ci"}, asTester)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key status %d: %s", res.StatusCode, string(data))
	}
	var created APIKeyCreatedResponse
	mustDecode(t, data, &created)
	if created.Key == "" {
		t.Fatal("expected plaintext key in create response")
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil,
		map[string]string{"X-Api-Key": created.Key})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	mustDecode(t, data, &me)
	if me.ActorID != "tester" || me.Source != "api_key" {
		t.Fatalf("unexpected principal %+v", me)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/v1/apikeys/"+created.ID, nil, asTester)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("revoke status %d", res.StatusCode)
	}
	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil,
		map[string]string{"X-Api-Key": created.Key})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revoke, got %d", res.StatusCode)
	}
}
