package schedule

import (
	"fmt"
	"time"

	"crewboard/internal/domain"
)

// ErrInvalidRange marks a bulk request whose dates or shift selector are
// malformed. It is returned before any engine call is issued.
var ErrInvalidRange = fmt.Errorf("invalid range")

const dateLayout = "2006-01-02"

// Slot is one concrete (date, shift) pair produced by Expand.
type Slot struct {
	Date  string `json:"date" format:"date"`
	Shift string `json:"shift" enum:"day,night"`
}

// Expand turns a date range plus shift selector into the ordered sequence of
// slots a bulk assignment covers: dates ascending, day before night within a
// date. A reversed range is normalized rather than refused, mirroring the
// range picker's auto-correct behavior. When includeWeekends is false,
// Saturdays and Sundays contribute no slots for either shift. An empty
// result (for example a weekend-only range with weekends excluded) is a
// valid no-op, not an error.
func Expand(startDate, endDate, shiftSelector string, includeWeekends bool) ([]Slot, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("start date %q: %w", startDate, ErrInvalidRange)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("end date %q: %w", endDate, ErrInvalidRange)
	}
	var shifts []string
	switch shiftSelector {
	case domain.ShiftDay, domain.ShiftNight:
		shifts = []string{shiftSelector}
	case domain.ShiftBoth:
		shifts = []string{domain.ShiftDay, domain.ShiftNight}
	default:
		return nil, fmt.Errorf("shift selector %q: %w", shiftSelector, ErrInvalidRange)
	}
	if end.Before(start) {
		start, end = end, start
	}

	var slots []Slot
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !includeWeekends {
			if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}
		date := d.Format(dateLayout)
		for _, shift := range shifts {
			slots = append(slots, Slot{Date: date, Shift: shift})
		}
	}
	return slots, nil
}

// BulkRequest is one logical "assign this item to this target every day from
// start to end" request.
type BulkRequest struct {
	ItemID          string
	TargetID        string
	StartDate       string
	EndDate         string
	Shift           string
	IncludeWeekends bool
}

// SlotOutcome records the per-slot result of a bulk apply.
type SlotOutcome struct {
	Date         string `json:"date" format:"date"`
	Shift        string `json:"shift" enum:"day,night"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// BulkResult aggregates a best-effort bulk apply: individual rejections do
// not abort the remaining slots.
type BulkResult struct {
	Created  int           `json:"created"`
	Rejected int           `json:"rejected"`
	Outcomes []SlotOutcome `json:"outcomes"`
}

// ApplyRange expands the request and drives the engine once per slot, in
// order. Ordering is a correctness requirement, not an optimization: each
// drop's exclusivity check must observe all earlier slots' results so that
// first-writer-wins holds within the bulk itself.
func (e Engine) ApplyRange(st State, req BulkRequest, viewMode string) (State, BulkResult, error) {
	slots, err := Expand(req.StartDate, req.EndDate, req.Shift, req.IncludeWeekends)
	if err != nil {
		return st, BulkResult{}, err
	}
	var res BulkResult
	for _, slot := range slots {
		var drop DropResult
		st, drop = e.HandleDrop(st, Proposal{
			ItemID:   req.ItemID,
			TargetID: req.TargetID,
			Date:     slot.Date,
			Shift:    slot.Shift,
		}, viewMode)
		outcome := SlotOutcome{Date: slot.Date, Shift: slot.Shift}
		if drop.Accepted {
			res.Created++
			outcome.AssignmentID = drop.Assignment.ID
		} else {
			res.Rejected++
			outcome.Reason = drop.Reason
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}
	return st, res, nil
}
