package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"crewboard/internal/board"
	"crewboard/internal/domain"
	"crewboard/internal/engine"
	"crewboard/internal/schedule"
)

func boardFromManager(boards *board.Manager, id string) (*board.Session, huma.StatusError) {
	s, ok := boards.Get(id)
	if !ok {
		return nil, newAPIError(http.StatusNotFound, "not_found", "board not found", nil)
	}
	return s, nil
}

func registerBoards(api huma.API, e engine.Engine, boards *board.Manager) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/boards",
		Summary:       "Open a planning board",
		Description:   "Creates a live board session over a date window. Assignments made on the board are held in the session; notes and day events load from storage.",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateBoardRequest `json:"body"`
	}) (*struct {
		Body BoardResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireMember(ctx, e, input.Body.TeamID); err != nil {
			return nil, handleError(err)
		}
		if _, err := time.Parse("2006-01-02", input.Body.From); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid from date", nil)
		}
		if _, err := time.Parse("2006-01-02", input.Body.To); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid to date", nil)
		}
		viewMode := input.Body.View
		if viewMode == "" {
			viewMode = domain.ViewAll
			if e.Config != nil && e.Config.Board.DefaultView != "" {
				viewMode = e.Config.Board.DefaultView
			}
		}
		catalog, err := e.LoadCatalog(ctx, input.Body.TeamID)
		if err != nil {
			return nil, handleError(err)
		}
		initial, err := e.LoadWindowState(ctx, input.Body.TeamID, input.Body.From, input.Body.To)
		if err != nil {
			return nil, handleError(err)
		}
		session := board.NewSession(input.Body.TeamID, input.Body.From, input.Body.To, viewMode, schedule.New(catalog), initial)
		boards.Add(session)
		return &struct {
			Body BoardResponse `json:"body"`
		}{Body: boardResponse(session, catalog)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{board_id}",
		Summary:     "Board snapshot",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
	}) (*struct {
		Body BoardStateResponse `json:"body"`
	}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BoardStateResponse `json:"body"`
		}{Body: boardStateResponse(session)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-board",
		Method:      http.MethodDelete,
		Path:        "/boards/{board_id}",
		Summary:     "Close board",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
	}) (*struct{}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		boards.Remove(input.BoardID)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-board-view",
		Method:      http.MethodPatch,
		Path:        "/boards/{board_id}/view",
		Summary:     "Switch board view",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		Body    struct {
			View        string `json:"view,omitempty" enum:"all,personnel,equipment,vehicles,"`
			ShiftFilter string `json:"shift_filter,omitempty" enum:"all,day,night,"`
		} `json:"body"`
	}) (*struct {
		Body BoardViewResponse `json:"body"`
	}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		if input.Body.View != "" {
			if err := session.SetView(input.Body.View); err != nil {
				return nil, handleError(err)
			}
		}
		if input.Body.ShiftFilter != "" {
			if err := session.SetShiftFilter(input.Body.ShiftFilter); err != nil {
				return nil, handleError(err)
			}
		}
		return &struct {
			Body BoardViewResponse `json:"body"`
		}{Body: BoardViewResponse{View: session.View(), ShiftFilter: session.Shift()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "drop-item",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/drops",
		Summary:     "Drop a work item onto a resource cell",
		Description: "Validates the drop and either commits an assignment or reports the rejection reason. A rejected drop is a normal outcome, not an error.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		Body    DropRequest `json:"body"`
	}) (*struct {
		Body DropResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		res := session.Drop(schedule.Proposal{
			ItemID:   input.Body.ItemID,
			TargetID: input.Body.TargetID,
			Date:     input.Body.Date,
			Shift:    input.Body.Shift,
		})
		return &struct {
			Body DropResponse `json:"body"`
		}{Body: dropResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bulk-assign",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/bulk-assign",
		Summary:     "Assign an item across a date range",
		Description: "Expands the range into slots and applies each drop best-effort. Conflicting slots are reported, not rolled back.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		Body    BulkAssignRequest `json:"body"`
	}) (*struct {
		Body BulkAssignResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		includeWeekends := false
		if input.Body.IncludeWeekends != nil {
			includeWeekends = *input.Body.IncludeWeekends
		} else if e.Config != nil {
			includeWeekends = e.Config.Board.IncludeWeekends
		}
		res, err := session.BulkAssign(schedule.BulkRequest{
			ItemID:          input.Body.ItemID,
			TargetID:        input.Body.TargetID,
			StartDate:       input.Body.StartDate,
			EndDate:         input.Body.EndDate,
			Shift:           input.Body.Shift,
			IncludeWeekends: includeWeekends,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BulkAssignResponse `json:"body"`
		}{Body: bulkAssignResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-assignment",
		Method:      http.MethodDelete,
		Path:        "/boards/{board_id}/assignments/{assignment_id}",
		Summary:     "Remove an assignment",
		Description: "Removal is always permitted and idempotent.",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID      string `path:"board_id"`
		AssignmentID string `path:"assignment_id"`
	}) (*struct{}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		session.RemoveAssignment(input.AssignmentID)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "upsert-board-note",
		Method:        http.MethodPut,
		Path:          "/boards/{board_id}/notes",
		Summary:       "Pin a note to a cell",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		Body    NoteRequest `json:"body"`
	}) (*struct {
		Body NoteResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.UpsertNote(ctx, session.TeamID, input.Body.ResourceID, input.Body.Date, input.Body.Shift, input.Body.Body, principal.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		session.UpsertNote(n)
		return &struct {
			Body NoteResponse `json:"body"`
		}{Body: noteResponse(n)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board-note",
		Method:      http.MethodDelete,
		Path:        "/boards/{board_id}/notes/{note_id}",
		Summary:     "Remove a note",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		NoteID  string `path:"note_id"`
	}) (*struct{}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteNote(ctx, session.TeamID, input.NoteID, principal.ActorID); err != nil {
			return nil, handleError(err)
		}
		session.RemoveNote(input.NoteID)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-day-event",
		Method:        http.MethodPost,
		Path:          "/boards/{board_id}/day-events",
		Summary:       "Add a day event",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		Body    DayEventRequest `json:"body"`
	}) (*struct {
		Body DayEventResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		ev, err := e.AddDayEvent(ctx, session.TeamID, input.Body.Date, input.Body.Kind, input.Body.Label, principal.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		session.AddDayEvent(ev)
		return &struct {
			Body DayEventResponse `json:"body"`
		}{Body: dayEventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-day-event",
		Method:      http.MethodDelete,
		Path:        "/boards/{board_id}/day-events/{event_id}",
		Summary:     "Remove a day event",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
		EventID string `path:"event_id"`
	}) (*struct{}, error) {
		session, serr := boardFromManager(boards, input.BoardID)
		if serr != nil {
			return nil, serr
		}
		if err := requireMember(ctx, e, session.TeamID); err != nil {
			return nil, handleError(err)
		}
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteDayEvent(ctx, session.TeamID, input.EventID, principal.ActorID); err != nil {
			return nil, handleError(err)
		}
		session.RemoveDayEvent(input.EventID)
		return nil, nil
	})
}
