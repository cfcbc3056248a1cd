package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
)

const itemColumns = `id, name, category, brand, model, serial_number, asset_tag, created_at, updated_at, deleted_at`

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var category, brand, itemModel, serial sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &category, &brand, &itemModel, &serial,
		&item.AssetTag, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
		return nil, err
	}
	item.Category = category.String
	item.Brand = brand.String
	item.Model = itemModel.String
	item.SerialNumber = serial.String
	return item, nil
}

// CreateItem creates a new item.
func CreateItem(ctx context.Context, q Querier, item model.Item) (*model.Item, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (name, category, brand, model, serial_number, asset_tag)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name, nullString(item.Category), nullString(item.Brand), nullString(item.Model),
		nullString(item.SerialNumber), item.AssetTag,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID, including soft-deleted items.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows ListItems.
type ItemFilter struct {
	Query    string // matches name, asset tag or serial number
	Category string
}

// ListItems returns one page of non-deleted items ordered by name, and the
// total number of matches.
func ListItems(ctx context.Context, q Querier, f ItemFilter, p pagination.Params) ([]model.Item, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if f.Query != "" {
		where = append(where, `(name LIKE ? ESCAPE '\' OR asset_tag LIKE ? ESCAPE '\' OR serial_number LIKE ? ESCAPE '\')`)
		pattern := likePattern(f.Query)
		args = append(args, pattern, pattern, pattern)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	p = p.Normalize()
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+cond+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

// UpdateItem writes an item's metadata.
func UpdateItem(ctx context.Context, q Querier, item model.Item) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, brand = ?, model = ?, serial_number = ?, asset_tag = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Name, nullString(item.Category), nullString(item.Brand), nullString(item.Model),
		nullString(item.SerialNumber), item.AssetTag, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
