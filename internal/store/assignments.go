package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
)

const assignmentSelect = `SELECT a.id, a.item_id, a.personnel_id, a.status, a.assignment_date, a.return_date,
        a.notes, a.signed_form, a.version, a.created_by, a.created_at, a.updated_at,
        i.id, i.name, i.category, i.brand, i.model, i.serial_number, i.asset_tag,
        i.created_at, i.updated_at, i.deleted_at,
        p.id, p.name, p.department, p.registry_no, p.created_at, p.deleted_at
 FROM assignments a
 JOIN items i ON i.id = a.item_id
 JOIN personnel p ON p.id = a.personnel_id`

func scanAssignment(row scanner) (*model.Assignment, error) {
	a := &model.Assignment{Item: &model.Item{}, Personnel: &model.Personnel{}}
	var notes, signedForm sql.NullString
	var category, brand, itemModel, serial sql.NullString
	var department, registryNo sql.NullString
	err := row.Scan(&a.ID, &a.ItemID, &a.PersonnelID, &a.Status, &a.AssignmentDate, &a.ReturnDate,
		&notes, &signedForm, &a.Version, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		&a.Item.ID, &a.Item.Name, &category, &brand, &itemModel, &serial, &a.Item.AssetTag,
		&a.Item.CreatedAt, &a.Item.UpdatedAt, &a.Item.DeletedAt,
		&a.Personnel.ID, &a.Personnel.Name, &department, &registryNo, &a.Personnel.CreatedAt, &a.Personnel.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Notes = notes.String
	a.SignedForm = signedForm.String
	a.Item.Category = category.String
	a.Item.Brand = brand.String
	a.Item.Model = itemModel.String
	a.Item.SerialNumber = serial.String
	a.Personnel.Department = department.String
	a.Personnel.RegistryNo = registryNo.String
	return a, nil
}

func scanAssignments(rows *sql.Rows) ([]model.Assignment, error) {
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateAssignment inserts an assignment at version 1 and returns its ID.
func CreateAssignment(ctx context.Context, q Querier, a model.Assignment) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO assignments (item_id, personnel_id, status, assignment_date, return_date,
		                          notes, signed_form, version, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		a.ItemID, a.PersonnelID, a.Status, a.AssignmentDate, a.ReturnDate,
		nullString(a.Notes), nullString(a.SignedForm), a.CreatedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("creating assignment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting assignment id: %w", err)
	}
	return id, nil
}

// GetAssignment returns an assignment with its item and personnel joined.
// History is not loaded.
func GetAssignment(ctx context.Context, q Querier, id int64) (*model.Assignment, error) {
	a, err := scanAssignment(q.QueryRowContext(ctx, assignmentSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// UpdateAssignment writes a's fields if the stored version still equals
// a.Version, and bumps the version. It returns ErrStale when no row matched.
func UpdateAssignment(ctx context.Context, q Querier, a model.Assignment) error {
	result, err := q.ExecContext(ctx,
		`UPDATE assignments
		 SET item_id = ?, personnel_id = ?, status = ?, assignment_date = ?, return_date = ?,
		     notes = ?, signed_form = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		a.ItemID, a.PersonnelID, a.Status, a.AssignmentDate, a.ReturnDate,
		nullString(a.Notes), nullString(a.SignedForm), a.ID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating assignment %d: %w", a.ID, ErrStale)
	}
	return nil
}

// DeleteAssignment hard-deletes an assignment if the stored version still
// equals version. History rows go with it (ON DELETE CASCADE). It returns
// ErrStale when no row matched.
func DeleteAssignment(ctx context.Context, q Querier, id, version int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM assignments WHERE id = ? AND version = ?`, id, version,
	)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting assignment %d: %w", id, ErrStale)
	}
	return nil
}

// AssignmentFilter narrows ListAssignments. Zero values match everything.
type AssignmentFilter struct {
	Status      model.Status
	PersonnelID int64
	ItemID      int64
	Query       string // matches personnel name, item name, asset tag or serial number
	Sort        string // a key of assignmentSorts, "-" prefix for descending
}

var assignmentSorts = map[string]string{
	"assignmentDate": "a.assignment_date",
	"returnDate":     "a.return_date",
	"createdAt":      "a.created_at",
	"updatedAt":      "a.updated_at",
	"status":         "a.status",
	"personnel":      "p.name",
	"item":           "i.name",
	"assetTag":       "i.asset_tag",
}

// DefaultAssignmentSort is used when no sort key is given.
const DefaultAssignmentSort = "-assignmentDate"

// ValidAssignmentSort reports whether sort names a known key.
func ValidAssignmentSort(sort string) bool {
	_, ok := assignmentSorts[strings.TrimPrefix(sort, "-")]
	return ok
}

func assignmentOrder(sort string) string {
	if sort == "" || !ValidAssignmentSort(sort) {
		sort = DefaultAssignmentSort
	}
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
	}
	column := assignmentSorts[strings.TrimPrefix(sort, "-")]
	return column + " " + dir + ", a.id " + dir
}

func (f AssignmentFilter) where() (string, []any) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, f.Status)
	}
	if f.PersonnelID != 0 {
		where = append(where, "a.personnel_id = ?")
		args = append(args, f.PersonnelID)
	}
	if f.ItemID != 0 {
		where = append(where, "a.item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.Query != "" {
		where = append(where, `(p.name LIKE ? ESCAPE '\' OR i.name LIKE ? ESCAPE '\'
		                        OR i.asset_tag LIKE ? ESCAPE '\' OR i.serial_number LIKE ? ESCAPE '\')`)
		pattern := likePattern(f.Query)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListAssignments returns one page of assignments and the total number of
// matches.
func ListAssignments(ctx context.Context, q Querier, f AssignmentFilter, p pagination.Params) ([]model.Assignment, int, error) {
	cond, args := f.where()

	var total int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments a
		 JOIN items i ON i.id = a.item_id
		 JOIN personnel p ON p.id = a.personnel_id`+cond, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting assignments: %w", err)
	}

	p = p.Normalize()
	rows, err := q.QueryContext(ctx,
		assignmentSelect+cond+` ORDER BY `+assignmentOrder(f.Sort)+` LIMIT ? OFFSET ?`,
		append(args, p.Limit, p.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing assignments: %w", err)
	}

	out, err := scanAssignments(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListPendingAssignments returns every pending assignment.
func ListPendingAssignments(ctx context.Context, q Querier) ([]model.Assignment, error) {
	rows, err := q.QueryContext(ctx,
		assignmentSelect+` WHERE a.status = ? ORDER BY a.assignment_date, a.id`, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending assignments: %w", err)
	}
	return scanAssignments(rows)
}

// SearchFilter selects assignments for reporting. Text fields are substring
// matches; zero values match everything.
type SearchFilter struct {
	PersonnelName    string
	ItemAssetTag     string
	ItemSerialNumber string
	Status           model.Status
}

// SearchAssignments returns every assignment matching f.
func SearchAssignments(ctx context.Context, q Querier, f SearchFilter) ([]model.Assignment, error) {
	var where []string
	var args []any
	if f.PersonnelName != "" {
		where = append(where, `p.name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.PersonnelName))
	}
	if f.ItemAssetTag != "" {
		where = append(where, `i.asset_tag LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.ItemAssetTag))
	}
	if f.ItemSerialNumber != "" {
		where = append(where, `i.serial_number LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.ItemSerialNumber))
	}
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, f.Status)
	}

	query := assignmentSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY p.name, a.assignment_date, a.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("searching assignments: %w", err)
	}
	return scanAssignments(rows)
}

// CountAssignmentsByStatus returns how many assignments have status.
func CountAssignmentsByStatus(ctx context.Context, q Querier, status model.Status) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE status = ?`, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting assignments: %w", err)
	}
	return n, nil
}

// activeStatuses are the statuses that hold an item or person.
var activeStatuses = func() []any {
	var out []any
	for _, s := range model.Statuses {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}()

// CountActiveForItem returns how many non-terminal assignments reference an
// item.
func CountActiveForItem(ctx context.Context, q Querier, itemID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE item_id = ? AND status IN (`+placeholders(len(activeStatuses))+`)`,
		append([]any{itemID}, activeStatuses...)...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting item assignments: %w", err)
	}
	return n, nil
}

// CountActiveForPersonnel returns how many non-terminal assignments reference
// a person.
func CountActiveForPersonnel(ctx context.Context, q Querier, personnelID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE personnel_id = ? AND status IN (`+placeholders(len(activeStatuses))+`)`,
		append([]any{personnelID}, activeStatuses...)...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting personnel assignments: %w", err)
	}
	return n, nil
}

// StatusesByItem returns the statuses of all assignments of the given items
// in one query.
func StatusesByItem(ctx context.Context, q Querier, itemIDs []int64) (map[int64][]model.Status, error) {
	out := make(map[int64][]model.Status, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT item_id, status FROM assignments WHERE item_id IN (`+placeholders(len(itemIDs))+`)`,
		int64Args(itemIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading item statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var status model.Status
		if err := rows.Scan(&itemID, &status); err != nil {
			return nil, fmt.Errorf("scanning item status: %w", err)
		}
		out[itemID] = append(out[itemID], status)
	}
	return out, rows.Err()
}
