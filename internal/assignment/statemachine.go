package assignment

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
)

// Via names the operation requesting a transition.
type Via int

const (
	// ViaEdit is a direct field update.
	ViaEdit Via = iota
	// ViaApproval is the approve operation of the pending workflow.
	ViaApproval
)

func (v Via) String() string {
	if v == ViaApproval {
		return "approval"
	}
	return "edit"
}

// CheckTransition reports whether status may move from one value to another
// through the given operation. Staying in the same status is always allowed.
func CheckTransition(from, to model.Status, via Via) error {
	if !to.Valid() {
		return apperr.Field(FieldStatus, fmt.Sprintf("unknown status %q", to))
	}
	if via == ViaApproval {
		if from != model.StatusPending || to != model.StatusAssigned {
			return apperr.Field(FieldStatus, "approval only moves pending assignments to assigned")
		}
		return nil
	}
	if from == to {
		return nil
	}

	switch {
	case to == model.StatusPending:
		return apperr.Field(FieldStatus, "assignments cannot move back to pending")
	case from == model.StatusPending && to == model.StatusAssigned:
		return apperr.Field(FieldStatus, "pending assignments are assigned through approval")
	case from == model.StatusPending:
		return apperr.Field(FieldStatus, "pending assignments must be approved or rejected first")
	}
	// assigned, returned, faulty and scrapped move freely among themselves.
	return nil
}

// Transition validates moving an assignment from prev to next through via
// and returns next with companion fields normalised: leaving returned clears
// the return date. All violations are reported together.
func Transition(prev, next Snapshot, via Via, today model.Date) (Snapshot, error) {
	from, to := prev.Assignment.Status, next.Assignment.Status

	var errs error
	if err := CheckTransition(from, to, via); err != nil {
		errs = multierr.Append(errs, err)
	}

	if from == model.StatusReturned && to != model.StatusReturned {
		next.Assignment.ReturnDate = model.Date{}
	}

	if via == ViaApproval && next.Assignment.SignedForm == "" {
		errs = multierr.Append(errs, apperr.Field(FieldSignedForm, "a signed form is required for approval"))
	}

	errs = multierr.Append(errs, checkFields(next, today))
	if err := apperr.Validation(errs); err != nil {
		return prev, err
	}
	return next, nil
}

// Initial validates a newly requested assignment. An empty status becomes
// pending; any other status is rejected.
func Initial(s Snapshot, today model.Date) (Snapshot, error) {
	var errs error
	switch s.Assignment.Status {
	case "":
		s.Assignment.Status = model.StatusPending
	case model.StatusPending:
	default:
		errs = multierr.Append(errs, apperr.Field(FieldStatus, "new assignments always start pending"))
	}
	errs = multierr.Append(errs, checkFields(s, today))
	if err := apperr.Validation(errs); err != nil {
		return s, err
	}
	return s, nil
}

// checkFields enforces the invariants that hold in every state.
func checkFields(s Snapshot, today model.Date) error {
	a := s.Assignment
	var errs error

	if a.PersonnelID <= 0 {
		errs = multierr.Append(errs, apperr.Field(FieldPersonnel, "is required"))
	}
	if a.ItemID <= 0 {
		errs = multierr.Append(errs, apperr.Field(FieldItem, "is required"))
	}

	if a.AssignmentDate.IsZero() {
		errs = multierr.Append(errs, apperr.Field(FieldAssignmentDate, "is required"))
	} else if a.AssignmentDate.After(today) {
		errs = multierr.Append(errs, apperr.Field(FieldAssignmentDate, "must not be in the future"))
	}

	if a.Status == model.StatusReturned {
		switch {
		case a.ReturnDate.IsZero():
			errs = multierr.Append(errs, apperr.Field(FieldReturnDate, "is required when status is returned"))
		case a.ReturnDate.After(today):
			errs = multierr.Append(errs, apperr.Field(FieldReturnDate, "must not be in the future"))
		case !a.AssignmentDate.IsZero() && a.ReturnDate.Before(a.AssignmentDate):
			errs = multierr.Append(errs, apperr.Field(FieldReturnDate, "must not be before the assignment date"))
		}
	} else if !a.ReturnDate.IsZero() {
		errs = multierr.Append(errs, apperr.Field(FieldReturnDate, "is only allowed when status is returned"))
	}

	if s.Item.AssetTag == "" && s.Item.ID != 0 {
		errs = multierr.Append(errs, apperr.Field(FieldItemAssetTag, "is required"))
	}
	return errs
}
