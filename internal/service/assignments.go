package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/assignment"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

// Assignments runs single-assignment operations and the pending workflow.
type Assignments struct {
	Deps
}

// NewAssignments returns the assignment service.
func NewAssignments(deps Deps) *Assignments {
	return &Assignments{Deps: deps.withDefaults()}
}

// CreateInput is a new assignment request. Status may be empty or pending.
type CreateInput struct {
	ItemID         int64
	PersonnelID    int64
	Status         model.Status
	AssignmentDate model.Date
	ReturnDate     model.Date
	Notes          string
}

// Create stores a new pending assignment with its "created" history entry.
func (s *Assignments) Create(ctx context.Context, in CreateInput, actor model.Actor) (*model.Assignment, error) {
	var id int64
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		refs, err := loadReferences(ctx, tx, in.ItemID, in.PersonnelID)
		if err != nil {
			return err
		}

		snap := assignment.Snapshot{Assignment: model.Assignment{
			ItemID:         in.ItemID,
			PersonnelID:    in.PersonnelID,
			Status:         in.Status,
			AssignmentDate: in.AssignmentDate,
			ReturnDate:     in.ReturnDate,
			Notes:          strings.TrimSpace(in.Notes),
			CreatedBy:      actor.ID,
		}}
		if refs.item != nil {
			snap.Item = *refs.item
		}
		snap, initErr := assignment.Initial(snap, s.today())
		if err := validation(refs.violations, initErr); err != nil {
			return err
		}

		id, err = store.CreateAssignment(ctx, tx, snap.Assignment)
		if err != nil {
			return err
		}

		entry, ok := assignment.NewEntry(model.ActionCreated, assignment.Snapshot{}, snap, actor, s.Now())
		if !ok {
			return fmt.Errorf("creating assignment %d: no fields to record", id)
		}
		history := assignment.Append(nil, entry)
		return store.AppendHistory(ctx, tx, id, history[0])
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePending(ctx)
	s.Metrics.HistoryEntry(model.ActionCreated)
	s.record(ctx, actor, model.AuditAssignmentCreated, "assignment", []int64{id}, "")
	zerolog.Ctx(ctx).Info().Int64("assignment_id", id).Msg("assignment created")

	return s.Get(ctx, id)
}

// references holds the resolved item of an assignment and the violations
// found while resolving its item and person.
type references struct {
	item       *model.Item
	violations error
}

// loadReferences resolves the item and person an assignment points at. Zero
// ids are skipped. Missing or deleted references become field violations.
func loadReferences(ctx context.Context, q store.Querier, itemID, personnelID int64) (references, error) {
	var refs references

	if itemID > 0 {
		item, err := store.GetItem(ctx, q, itemID)
		if err != nil {
			return refs, err
		}
		if item == nil || item.DeletedAt != nil {
			refs.violations = multierr.Append(refs.violations,
				apperr.Field(assignment.FieldItem, fmt.Sprintf("item %d does not exist", itemID)))
		} else {
			refs.item = item
		}
	}

	if personnelID > 0 {
		person, err := store.GetPersonnel(ctx, q, personnelID)
		if err != nil {
			return refs, err
		}
		if person == nil || person.DeletedAt != nil {
			refs.violations = multierr.Append(refs.violations,
				apperr.Field(assignment.FieldPersonnel, fmt.Sprintf("personnel %d does not exist", personnelID)))
		}
	}
	return refs, nil
}

// Get returns an assignment with its history and the item's display status.
func (s *Assignments) Get(ctx context.Context, id int64) (*model.Assignment, error) {
	a, err := store.GetAssignment(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("assignment", id)
	}

	a.History, err = store.ListHistory(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a.History == nil {
		a.History = []model.HistoryEntry{}
	}

	one := []model.Assignment{*a}
	if err := fillDisplayStatuses(ctx, s.DB, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// List returns one page of assignments with items and personnel populated.
func (s *Assignments) List(ctx context.Context, f store.AssignmentFilter, p pagination.Params) (pagination.Page[model.Assignment], error) {
	if f.Status != "" && !f.Status.Valid() {
		return pagination.Page[model.Assignment]{}, validation(apperr.Field("status", fmt.Sprintf("unknown status %q", f.Status)))
	}
	if f.Sort != "" && !store.ValidAssignmentSort(f.Sort) {
		return pagination.Page[model.Assignment]{}, validation(apperr.Field("sort", fmt.Sprintf("unknown sort key %q", f.Sort)))
	}

	items, total, err := store.ListAssignments(ctx, s.DB, f, p)
	if err != nil {
		return pagination.Page[model.Assignment]{}, err
	}
	if err := fillDisplayStatuses(ctx, s.DB, items); err != nil {
		return pagination.Page[model.Assignment]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

// UpdateInput is a field update. Version is the version the caller read and
// must equal the stored one.
type UpdateInput struct {
	Patch   assignment.Patch
	Version int64
}

// Update applies a field update through the state machine. A history entry
// is appended only when a tracked field changed.
func (s *Assignments) Update(ctx context.Context, id int64, in UpdateInput, actor model.Actor) (*model.Assignment, error) {
	if in.Version <= 0 {
		return nil, validation(apperr.Field("version", "is required"))
	}

	var prev, next assignment.Snapshot
	var changed bool

	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		cur, err := store.GetAssignment(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("assignment", id)
		}
		if in.Version != cur.Version {
			return apperr.Conflict("assignment was modified since it was read").
				WithDetails(map[string]any{"id": id, "version": cur.Version})
		}

		prev = snapshotOf(cur)
		base := prev

		var refErrs error
		swapItem := in.Patch.ItemID != nil && *in.Patch.ItemID != cur.ItemID
		swapPersonnel := in.Patch.PersonnelID != nil && *in.Patch.PersonnelID != cur.PersonnelID
		if swapItem || swapPersonnel {
			var itemID, personnelID int64
			if swapItem {
				itemID = *in.Patch.ItemID
			}
			if swapPersonnel {
				personnelID = *in.Patch.PersonnelID
			}
			refs, err := loadReferences(ctx, tx, itemID, personnelID)
			if err != nil {
				return err
			}
			refErrs = refs.violations
			if refs.item != nil {
				base.Item = *refs.item
				base.Assignment.ItemID = refs.item.ID
			}
		}

		next = in.Patch.Apply(base)

		var formErr error
		if in.Patch.SignedForm != nil && *in.Patch.SignedForm != "" && *in.Patch.SignedForm != cur.SignedForm {
			ok, err := s.formExists(ctx, tx, *in.Patch.SignedForm)
			if err != nil {
				return err
			}
			if !ok {
				formErr = apperr.Field(assignment.FieldSignedForm, "does not reference an uploaded form")
			}
		}

		var transErr error
		next, transErr = assignment.Transition(prev, next, assignment.ViaEdit, s.today())
		if err := validation(refErrs, formErr, transErr); err != nil {
			return err
		}

		entry, ok := assignment.NewEntry(model.ActionUpdated, prev, next, actor, s.Now())
		if !ok {
			return nil
		}
		changed = true

		if !in.Patch.Item.Empty() && next.Item != base.Item {
			if err := store.UpdateItem(ctx, tx, next.Item); err != nil {
				if store.IsUniqueViolation(err) {
					return apperr.Conflict("another item already uses this asset tag or serial number").
						WithDetails(map[string]any{"id": id, "itemId": next.Item.ID})
				}
				return err
			}
		}

		next.Assignment.Version = cur.Version
		if err := store.UpdateAssignment(ctx, tx, next.Assignment); err != nil {
			return staleConflict(err, id)
		}

		history, err := store.ListHistory(ctx, tx, id)
		if err != nil {
			return err
		}
		history = assignment.Append(history, entry)
		return store.AppendHistory(ctx, tx, id, history[len(history)-1])
	})
	if err != nil {
		return nil, err
	}

	if changed {
		from, to := prev.Assignment.Status, next.Assignment.Status
		if from != to {
			s.Metrics.Transition(string(from), string(to), assignment.ViaEdit.String())
		}
		s.Metrics.HistoryEntry(model.ActionUpdated)
		s.record(ctx, actor, model.AuditAssignmentUpdated, "assignment", []int64{id},
			strings.Join(changedFields(prev, next), ","))
		zerolog.Ctx(ctx).Info().Int64("assignment_id", id).Msg("assignment updated")
	}

	return s.Get(ctx, id)
}

func changedFields(prev, next assignment.Snapshot) []string {
	var fields []string
	for _, c := range assignment.Diff(prev, next) {
		fields = append(fields, c.Field)
	}
	return fields
}

// Delete hard-deletes an assignment and its history.
func (s *Assignments) Delete(ctx context.Context, id int64, actor model.Actor) error {
	var wasPending bool
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		cur, err := store.GetAssignment(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.NotFound("assignment", id)
		}
		wasPending = cur.Status == model.StatusPending
		return staleConflict(store.DeleteAssignment(ctx, tx, id, cur.Version), id)
	})
	if err != nil {
		return err
	}

	if wasPending {
		s.invalidatePending(ctx)
	}
	s.record(ctx, actor, model.AuditAssignmentDeleted, "assignment", []int64{id}, "")
	zerolog.Ctx(ctx).Info().Int64("assignment_id", id).Msg("assignment deleted")
	return nil
}

// Search returns matching assignments grouped by personnel.
func (s *Assignments) Search(ctx context.Context, f store.SearchFilter) ([]model.PersonnelGroup, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation(apperr.Field("status", fmt.Sprintf("unknown status %q", f.Status)))
	}
	found, err := store.SearchAssignments(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	if err := fillDisplayStatuses(ctx, s.DB, found); err != nil {
		return nil, err
	}
	return assignment.GroupByPersonnel(found), nil
}
