package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
)

const personnelColumns = `id, name, department, registry_no, created_at, deleted_at`

func scanPersonnel(row scanner) (*model.Personnel, error) {
	p := &model.Personnel{}
	var department, registryNo sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &department, &registryNo, &p.CreatedAt, &p.DeletedAt); err != nil {
		return nil, err
	}
	p.Department = department.String
	p.RegistryNo = registryNo.String
	return p, nil
}

// CreatePersonnel creates a new person.
func CreatePersonnel(ctx context.Context, q Querier, p model.Personnel) (*model.Personnel, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO personnel (name, department, registry_no) VALUES (?, ?, ?)`,
		p.Name, nullString(p.Department), nullString(p.RegistryNo),
	)
	if err != nil {
		return nil, fmt.Errorf("creating personnel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting personnel id: %w", err)
	}

	return GetPersonnel(ctx, q, id)
}

// GetPersonnel returns a person by ID, including soft-deleted ones.
func GetPersonnel(ctx context.Context, q Querier, id int64) (*model.Personnel, error) {
	p, err := scanPersonnel(q.QueryRowContext(ctx,
		`SELECT `+personnelColumns+` FROM personnel WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting personnel: %w", err)
	}
	return p, nil
}

// ListPersonnel returns one page of non-deleted personnel ordered by name,
// and the total number of matches. query matches name, department or
// registry number.
func ListPersonnel(ctx context.Context, q Querier, query string, p pagination.Params) ([]model.Personnel, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if query != "" {
		where = append(where, `(name LIKE ? ESCAPE '\' OR department LIKE ? ESCAPE '\' OR registry_no LIKE ? ESCAPE '\')`)
		pattern := likePattern(query)
		args = append(args, pattern, pattern, pattern)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM personnel WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting personnel: %w", err)
	}

	p = p.Normalize()
	rows, err := q.QueryContext(ctx,
		`SELECT `+personnelColumns+` FROM personnel WHERE `+cond+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing personnel: %w", err)
	}
	defer rows.Close()

	var people []model.Personnel
	for rows.Next() {
		person, err := scanPersonnel(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning personnel: %w", err)
		}
		people = append(people, *person)
	}
	return people, total, rows.Err()
}

// UpdatePersonnel writes a person's details.
func UpdatePersonnel(ctx context.Context, q Querier, p model.Personnel) error {
	_, err := q.ExecContext(ctx,
		`UPDATE personnel SET name = ?, department = ?, registry_no = ? WHERE id = ? AND deleted_at IS NULL`,
		p.Name, nullString(p.Department), nullString(p.RegistryNo), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating personnel: %w", err)
	}
	return nil
}

// DeletePersonnel soft-deletes a person.
func DeletePersonnel(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE personnel SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting personnel: %w", err)
	}
	return nil
}
