package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/assignment"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

// Batch operation names, as reported in metrics.
const (
	opApprove = "approve"
	opReject  = "reject"
)

// BatchResult describes a committed batch.
type BatchResult struct {
	AssignmentIDs []int64                       `json:"assignmentIds"`
	ItemStatuses  map[int64]model.DisplayStatus `json:"itemStatuses"`
}

// PendingGrouped returns one page of pending assignments grouped by
// personnel. Pages count groups, not assignments.
func (s *Assignments) PendingGrouped(ctx context.Context, p pagination.Params) (pagination.Page[model.PendingGroup], error) {
	pending, err := store.ListPendingAssignments(ctx, s.DB)
	if err != nil {
		return pagination.Page[model.PendingGroup]{}, err
	}
	if err := fillDisplayStatuses(ctx, s.DB, pending); err != nil {
		return pagination.Page[model.PendingGroup]{}, err
	}
	return pagination.Slice(assignment.GroupPending(pending), p), nil
}

// PendingCount returns the number of pending assignments, served from the
// cache when possible.
func (s *Assignments) PendingCount(ctx context.Context) (int, error) {
	n, ok, err := s.Cache.Get(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("pending count cache read failed")
	}
	if err == nil && ok {
		s.Metrics.CacheLookup(true)
		return n, nil
	}
	s.Metrics.CacheLookup(false)

	n, err = store.CountAssignmentsByStatus(ctx, s.DB, model.StatusPending)
	if err != nil {
		return 0, err
	}
	if err := s.Cache.Set(ctx, n); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("pending count cache write failed")
	}
	return n, nil
}

// checkBatch validates the id list of a batch request.
func checkBatch(ids []int64) error {
	if len(ids) == 0 {
		return apperr.Field("assignmentIds", "at least one assignment is required")
	}
	seen := make(map[int64]bool, len(ids))
	var errs error
	for _, id := range ids {
		if id <= 0 {
			errs = multierr.Append(errs, apperr.Field("assignmentIds", fmt.Sprintf("invalid id %d", id)))
			continue
		}
		if seen[id] {
			errs = multierr.Append(errs, apperr.Field("assignmentIds", fmt.Sprintf("duplicate id %d", id)))
		}
		seen[id] = true
	}
	return errs
}

// loadPending re-reads a batch member inside the batch transaction. Unknown
// ids are NOT_FOUND and non-pending ones CONFLICT; both name the id.
func loadPending(ctx context.Context, tx *sql.Tx, id int64) (*model.Assignment, error) {
	cur, err := store.GetAssignment(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.NotFound("assignment", id)
	}
	if cur.Status != model.StatusPending {
		return nil, apperr.Conflict(fmt.Sprintf("assignment %d is %s, not pending", id, cur.Status)).
			WithDetails(map[string]any{"id": id, "status": cur.Status})
	}
	return cur, nil
}

// ApproveMultiple moves every listed pending assignment to assigned with the
// given signed form, all in one transaction. If any member fails nothing is
// applied.
func (s *Assignments) ApproveMultiple(ctx context.Context, ids []int64, formRef string, actor model.Actor) (*BatchResult, error) {
	result, err := s.approve(ctx, ids, formRef, actor)
	s.Metrics.Batch(opApprove, len(ids), err)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Ints64("assignment_ids", ids).Msg("batch approval rejected")
		return nil, err
	}

	for range ids {
		s.Metrics.Transition(string(model.StatusPending), string(model.StatusAssigned), assignment.ViaApproval.String())
		s.Metrics.HistoryEntry(model.ActionApproved)
	}
	s.invalidatePending(ctx)
	s.record(ctx, actor, model.AuditAssignmentApproved, "assignment", ids, formRef)
	zerolog.Ctx(ctx).Info().Ints64("assignment_ids", ids).Str("form", formRef).Msg("assignments approved")
	return result, nil
}

func (s *Assignments) approve(ctx context.Context, ids []int64, formRef string, actor model.Actor) (*BatchResult, error) {
	var itemIDs []int64
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		// The form is checked in the same transaction that references it so
		// the orphan purge cannot remove it before commit.
		errs := checkBatch(ids)
		if formRef == "" {
			errs = multierr.Append(errs, apperr.Field("formRef", "a signed form is required for approval"))
		} else {
			ok, err := s.formExists(ctx, tx, formRef)
			if err != nil {
				return err
			}
			if !ok {
				errs = multierr.Append(errs, apperr.Field("formRef", "does not reference an uploaded form"))
			}
		}
		if err := validation(errs); err != nil {
			return err
		}

		today, now := s.today(), s.Now()
		for _, id := range ids {
			cur, err := loadPending(ctx, tx, id)
			if err != nil {
				return err
			}

			prev := snapshotOf(cur)
			next := prev
			next.Assignment.Status = model.StatusAssigned
			next.Assignment.SignedForm = formRef

			next, err = assignment.Transition(prev, next, assignment.ViaApproval, today)
			if err != nil {
				return apperr.New(apperr.CodeValidation, fmt.Sprintf("assignment %d cannot be approved", id)).
					WithDetails(map[string]any{"id": id, "fields": apperr.Fields(err)})
			}

			entry, ok := assignment.NewEntry(model.ActionApproved, prev, next, actor, now)
			if !ok {
				return fmt.Errorf("approving assignment %d: no change to record", id)
			}
			history, err := store.ListHistory(ctx, tx, id)
			if err != nil {
				return err
			}
			history = assignment.Append(history, entry)

			next.Assignment.Version = cur.Version
			if err := store.UpdateAssignment(ctx, tx, next.Assignment); err != nil {
				return staleConflict(err, id)
			}
			if err := store.AppendHistory(ctx, tx, id, history[len(history)-1]); err != nil {
				return err
			}
			itemIDs = append(itemIDs, cur.ItemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.batchResult(ctx, ids, itemIDs)
}

// RejectMultiple deletes every listed pending assignment and its history in
// one transaction. If any member fails nothing is applied.
func (s *Assignments) RejectMultiple(ctx context.Context, ids []int64, actor model.Actor) (*BatchResult, error) {
	result, err := s.reject(ctx, ids)
	s.Metrics.Batch(opReject, len(ids), err)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Ints64("assignment_ids", ids).Msg("batch rejection rejected")
		return nil, err
	}

	s.invalidatePending(ctx)
	s.record(ctx, actor, model.AuditAssignmentRejected, "assignment", ids, "")
	zerolog.Ctx(ctx).Info().Ints64("assignment_ids", ids).Msg("assignments rejected")
	return result, nil
}

func (s *Assignments) reject(ctx context.Context, ids []int64) (*BatchResult, error) {
	if err := validation(checkBatch(ids)); err != nil {
		return nil, err
	}

	var itemIDs []int64
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, id := range ids {
			cur, err := loadPending(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := store.DeleteAssignment(ctx, tx, id, cur.Version); err != nil {
				return staleConflict(err, id)
			}
			itemIDs = append(itemIDs, cur.ItemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.batchResult(ctx, ids, itemIDs)
}

// batchResult recomputes the display status of every item a batch touched.
func (s *Assignments) batchResult(ctx context.Context, ids, itemIDs []int64) (*BatchResult, error) {
	unique := make([]int64, 0, len(itemIDs))
	seen := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	statuses, err := itemDisplayStatuses(ctx, s.DB, unique)
	if err != nil {
		return nil, err
	}
	return &BatchResult{AssignmentIDs: ids, ItemStatuses: statuses}, nil
}
