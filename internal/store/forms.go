package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/zimmet/internal/model"
)

// CreateForm records an uploaded signed form.
func CreateForm(ctx context.Context, q Querier, f model.Form) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO forms (name, mime, size, uploaded_by, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		f.Name, f.Mime, f.Size, f.UploadedBy, f.UploadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating form: %w", err)
	}
	return nil
}

// GetForm returns a form record by file name.
func GetForm(ctx context.Context, q Querier, name string) (*model.Form, error) {
	f := &model.Form{}
	err := q.QueryRowContext(ctx,
		`SELECT name, mime, size, uploaded_by, uploaded_at FROM forms WHERE name = ?`, name,
	).Scan(&f.Name, &f.Mime, &f.Size, &f.UploadedBy, &f.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting form: %w", err)
	}
	return f, nil
}

// ListOrphanForms returns the names of forms uploaded before cutoff that no
// assignment references.
func ListOrphanForms(ctx context.Context, q Querier, cutoff time.Time) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT f.name FROM forms f
		 WHERE f.uploaded_at < ?
		   AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.signed_form = ? || f.name)
		 ORDER BY f.name`,
		cutoff.UTC(), model.FormRefPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orphan forms: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning form: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteOrphanForm removes a form record unless an assignment references
// it. It reports whether the record was removed.
func DeleteOrphanForm(ctx context.Context, q Querier, name string) (bool, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM forms
		 WHERE name = ?
		   AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.signed_form = ? || forms.name)`,
		name, model.FormRefPrefix,
	)
	if err != nil {
		return false, fmt.Errorf("deleting form: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting form: %w", err)
	}
	return n > 0, nil
}
