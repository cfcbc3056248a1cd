// Package service runs the assignment workflows: it validates through the
// state machine, records history through the diff engine and persists each
// operation in one transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/assignment"
	"github.com/erazemk/zimmet/internal/audit"
	"github.com/erazemk/zimmet/internal/cache"
	"github.com/erazemk/zimmet/internal/metrics"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

// FormChecker reports whether a signed-form reference points at a stored
// form. q is the transaction that stores the reference.
type FormChecker interface {
	Exists(ctx context.Context, q store.Querier, ref string) (bool, error)
}

// Deps are the collaborators shared by the services. Only DB is required.
type Deps struct {
	DB      *sql.DB
	Cache   cache.PendingCounter
	Audit   *audit.Recorder
	Metrics *metrics.Metrics
	Forms   FormChecker
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) today() model.Date {
	return model.DateOf(d.Now())
}

// formExists reports whether ref points at a stored form. Without a
// checker every reference is accepted.
func (d Deps) formExists(ctx context.Context, q store.Querier, ref string) (bool, error) {
	if d.Forms == nil {
		return true, nil
	}
	return d.Forms.Exists(ctx, q, ref)
}

// invalidatePending drops the cached pending count. Failures only cost a
// stale count until the TTL expires.
func (d Deps) invalidatePending(ctx context.Context) {
	if err := d.Cache.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("pending count invalidation failed")
	}
}

func (d Deps) record(ctx context.Context, actor model.Actor, action, entityType string, ids []int64, detail string) {
	d.Audit.Record(ctx, model.AuditEvent{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityIDs:  ids,
		Detail:     detail,
	})
}

// validation merges field violations from several checks into one
// VALIDATION_ERROR. Checks return either *apperr.FieldError values
// (possibly combined with multierr) or a folded VALIDATION_ERROR.
func validation(errs ...error) error {
	var all error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if fields := apperr.Fields(err); fields != nil {
			for _, f := range fields {
				all = multierr.Append(all, apperr.Field(f.Field, f.Message))
			}
			continue
		}
		all = multierr.Append(all, err)
	}
	return apperr.Validation(all)
}

// staleConflict maps a failed version check to a CONFLICT naming the
// assignment.
func staleConflict(err error, id int64) error {
	if errors.Is(err, store.ErrStale) {
		return apperr.Conflict("assignment was modified concurrently").
			WithDetails(map[string]any{"id": id})
	}
	return err
}

// snapshotOf projects a loaded assignment onto the tracked field set.
func snapshotOf(a *model.Assignment) assignment.Snapshot {
	s := assignment.Snapshot{Assignment: *a}
	s.Assignment.History = nil
	s.Assignment.Item = nil
	s.Assignment.Personnel = nil
	if a.Item != nil {
		s.Item = *a.Item
	}
	return s
}

// fillDisplayStatuses sets the display status of every joined item with one
// batched query.
func fillDisplayStatuses(ctx context.Context, q store.Querier, as []model.Assignment) error {
	var ids []int64
	seen := make(map[int64]bool)
	for _, a := range as {
		if !seen[a.ItemID] {
			seen[a.ItemID] = true
			ids = append(ids, a.ItemID)
		}
	}
	statuses, err := itemDisplayStatuses(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range as {
		if as[i].Item != nil {
			as[i].Item.SetDisplayStatus(statuses[as[i].ItemID])
		}
	}
	return nil
}

func itemDisplayStatuses(ctx context.Context, q store.Querier, itemIDs []int64) (map[int64]model.DisplayStatus, error) {
	byItem, err := store.StatusesByItem(ctx, q, itemIDs)
	if err != nil {
		return nil, err
	}
	return assignment.DisplayStatuses(itemIDs, byItem), nil
}
