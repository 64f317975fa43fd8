package schedule

import (
	"fmt"

	"crewboard/internal/domain"
)

// Rejection reasons returned by Validate.
const (
	ReasonInvalidTargetKind    = "invalid_target_kind"
	ReasonUnknownItemKind      = "unknown_item_kind"
	ReasonResourceNotFound     = "resource_not_found"
	ReasonExclusivityViolation = "exclusivity_violation"
)

// RejectionError reports why a proposed placement was refused. It is a value
// outcome of validation, never a panic path.
type RejectionError struct {
	Reason string
	Detail string
}

func (e RejectionError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Proposal describes a completed drag gesture before validation: ItemID is
// the dragged work item, TargetID the resource row it was dropped on.
type Proposal struct {
	ItemID   string
	TargetID string
	Date     string
	Shift    string
}

// Placement is an accepted proposal with its derived assignment type and the
// canonically oriented (work item, resource) pair.
type Placement struct {
	Type       string
	WorkItemID string
	ResourceID string
	Duration   int
}

// Validate decides whether committing the proposal would violate an
// exclusivity rule given the current assignments and view mode, and computes
// the canonical assignment type and orientation.
//
// The stored orientation is always "equipment/vehicle id lives in
// work_item_id, person id in resource_id" for cross-kind placements: in
// personnel-style views the dragged item id is stored as the work item and
// the drop target as the resource; in equipment/vehicle views the pair is
// swapped so the same physical booking has a single representation no matter
// which direction it was dragged from.
func Validate(c Catalog, p Proposal, existing []domain.Assignment, viewMode string) (Placement, error) {
	target, ok := c.Resource(p.TargetID)
	if !ok {
		return Placement{}, RejectionError{Reason: ReasonResourceNotFound, Detail: fmt.Sprintf("resource %s not in catalog", p.TargetID)}
	}
	item, ok := c.Item(p.ItemID)
	if !ok {
		return Placement{}, RejectionError{Reason: ReasonUnknownItemKind, Detail: fmt.Sprintf("work item %s not in catalog", p.ItemID)}
	}

	assignType, err := classify(item, target)
	if err != nil {
		return Placement{}, err
	}

	personnelView := viewMode == domain.ViewPersonnel || viewMode == domain.ViewAll
	if personnelView {
		// Equipment and vehicles cannot be in two places in one shift. A
		// project or absence item may appear on multiple rows; that
		// asymmetry is observed product behavior, not an oversight here.
		if assignType == domain.KindEquipment || assignType == domain.KindVehicle {
			for _, a := range existing {
				if a.WorkItemID == p.ItemID && a.Date == p.Date && a.Shift == p.Shift {
					return Placement{}, RejectionError{
						Reason: ReasonExclusivityViolation,
						Detail: fmt.Sprintf("%s already booked on %s %s", p.ItemID, p.Date, p.Shift),
					}
				}
			}
		}
	} else {
		// A person is being dragged onto an equipment/vehicle row. The slot
		// takes one occupant, and the person takes one booking of this type
		// per shift.
		for _, a := range existing {
			if a.Date != p.Date || a.Shift != p.Shift {
				continue
			}
			if a.WorkItemID == p.TargetID {
				return Placement{}, RejectionError{
					Reason: ReasonExclusivityViolation,
					Detail: fmt.Sprintf("slot %s already occupied on %s %s", p.TargetID, p.Date, p.Shift),
				}
			}
			if a.ResourceID == p.ItemID && a.Type == assignType {
				return Placement{}, RejectionError{
					Reason: ReasonExclusivityViolation,
					Detail: fmt.Sprintf("%s already has a %s booking on %s %s", p.ItemID, assignType, p.Date, p.Shift),
				}
			}
		}
	}

	pl := Placement{Type: assignType, Duration: item.Duration}
	if pl.Duration <= 0 {
		pl.Duration = 1
	}
	if personnelView {
		pl.WorkItemID = p.ItemID
		pl.ResourceID = p.TargetID
	} else {
		pl.WorkItemID = p.TargetID
		pl.ResourceID = p.ItemID
	}
	return pl, nil
}

// classify derives the assignment type from the dragged item's kind; a
// dragged person takes the type of the equipment/vehicle row it lands on.
func classify(item domain.WorkItem, target domain.Resource) (string, error) {
	switch item.Kind {
	case domain.ItemProject:
		return domain.ItemProject, nil
	case domain.KindEquipment:
		return domain.KindEquipment, nil
	case domain.KindVehicle:
		return domain.KindVehicle, nil
	case domain.ItemAbsence:
		return domain.ItemAbsence, nil
	case domain.KindPersonnel:
		switch target.Kind {
		case domain.KindEquipment:
			return domain.KindEquipment, nil
		case domain.KindVehicle:
			return domain.KindVehicle, nil
		default:
			return "", RejectionError{
				Reason: ReasonInvalidTargetKind,
				Detail: fmt.Sprintf("cannot place a person on a %s row", target.Kind),
			}
		}
	default:
		return "", RejectionError{Reason: ReasonUnknownItemKind, Detail: fmt.Sprintf("item kind %q", item.Kind)}
	}
}
