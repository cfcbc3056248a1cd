package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
	"github.com/erazemk/zimmet/internal/store"
)

// Items manages the asset catalogue.
type Items struct {
	Deps
}

// NewItems returns the item service.
func NewItems(deps Deps) *Items {
	return &Items{Deps: deps.withDefaults()}
}

func normalizeItem(item model.Item) model.Item {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.Brand = strings.TrimSpace(item.Brand)
	item.Model = strings.TrimSpace(item.Model)
	item.SerialNumber = strings.TrimSpace(item.SerialNumber)
	item.AssetTag = strings.TrimSpace(item.AssetTag)
	return item
}

func checkItem(item model.Item) error {
	var errs error
	if item.Name == "" {
		errs = multierr.Append(errs, apperr.Field("name", "is required"))
	}
	if item.AssetTag == "" {
		errs = multierr.Append(errs, apperr.Field("assetTag", "is required"))
	}
	return validation(errs)
}

func itemConflict(err error) error {
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("another item already uses this asset tag or serial number")
	}
	return err
}

// Create adds an item.
func (s *Items) Create(ctx context.Context, item model.Item, actor model.Actor) (*model.Item, error) {
	item = normalizeItem(item)
	if err := checkItem(item); err != nil {
		return nil, err
	}

	created, err := store.CreateItem(ctx, s.DB, item)
	if err != nil {
		return nil, itemConflict(err)
	}
	created.SetDisplayStatus(model.DisplayIdle)

	s.record(ctx, actor, model.AuditItemCreated, "item", []int64{created.ID}, created.AssetTag)
	zerolog.Ctx(ctx).Info().Int64("item_id", created.ID).Str("asset_tag", created.AssetTag).Msg("item created")
	return created, nil
}

// Get returns a non-deleted item with its display status.
func (s *Items) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.DeletedAt != nil {
		return nil, apperr.NotFound("item", id)
	}

	statuses, err := itemDisplayStatuses(ctx, s.DB, []int64{id})
	if err != nil {
		return nil, err
	}
	item.SetDisplayStatus(statuses[id])
	return item, nil
}

// List returns one page of items with their display statuses.
func (s *Items) List(ctx context.Context, f store.ItemFilter, p pagination.Params) (pagination.Page[model.Item], error) {
	items, total, err := store.ListItems(ctx, s.DB, f, p)
	if err != nil {
		return pagination.Page[model.Item]{}, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	statuses, err := itemDisplayStatuses(ctx, s.DB, ids)
	if err != nil {
		return pagination.Page[model.Item]{}, err
	}
	for i := range items {
		items[i].SetDisplayStatus(statuses[items[i].ID])
	}
	return pagination.NewPage(items, p, total), nil
}

// Update replaces an item's metadata.
func (s *Items) Update(ctx context.Context, item model.Item, actor model.Actor) (*model.Item, error) {
	item = normalizeItem(item)
	if err := checkItem(item); err != nil {
		return nil, err
	}

	cur, err := store.GetItem(ctx, s.DB, item.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil || cur.DeletedAt != nil {
		return nil, apperr.NotFound("item", item.ID)
	}
	if err := store.UpdateItem(ctx, s.DB, item); err != nil {
		return nil, itemConflict(err)
	}

	s.record(ctx, actor, model.AuditItemUpdated, "item", []int64{item.ID}, item.AssetTag)
	zerolog.Ctx(ctx).Info().Int64("item_id", item.ID).Msg("item updated")
	return s.Get(ctx, item.ID)
}

// Delete soft-deletes an item. Items with active assignments are refused.
func (s *Items) Delete(ctx context.Context, id int64, actor model.Actor) error {
	err := store.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		cur, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil || cur.DeletedAt != nil {
			return apperr.NotFound("item", id)
		}

		active, err := store.CountActiveForItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Integrity(fmt.Sprintf("item %d has %d active assignments", id, active)).
				WithDetails(map[string]any{"id": id, "activeAssignments": active})
		}
		return store.DeleteItem(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, model.AuditItemDeleted, "item", []int64{id}, "")
	zerolog.Ctx(ctx).Info().Int64("item_id", id).Msg("item deleted")
	return nil
}
