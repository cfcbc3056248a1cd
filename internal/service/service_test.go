package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/assignment"
	"github.com/erazemk/zimmet/internal/audit"
	"github.com/erazemk/zimmet/internal/cache"
	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/store"
)

var (
	clock = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	jan10 = model.NewDate(2024, 1, 10)
)

type fixture struct {
	db          *sql.DB
	cache       *cache.Memory
	assignments *Assignments
	items       *Items
	personnel   *Personnel
	actor       model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	deps := Deps{
		DB:    database,
		Cache: cache.NewMemory(0),
		Audit: audit.NewRecorder(nil, audit.DBSink{DB: database}),
		Now:   func() time.Time { return clock },
	}
	manager, err := store.CreateUser(context.Background(), database, "manager", "x", model.RoleManager)
	require.NoError(t, err)
	return &fixture{
		db:          database,
		cache:       deps.Cache.(*cache.Memory),
		assignments: NewAssignments(deps),
		items:       NewItems(deps),
		personnel:   NewPersonnel(deps),
		actor:       model.Actor{ID: &manager.ID, Name: manager.Username},
	}
}

func (f *fixture) item(t *testing.T, tag string) *model.Item {
	t.Helper()
	item, err := f.items.Create(context.Background(), model.Item{Name: "Laptop", Brand: "Dell", AssetTag: tag}, f.actor)
	require.NoError(t, err)
	return item
}

func (f *fixture) person(t *testing.T, name string) *model.Personnel {
	t.Helper()
	p, err := f.personnel.Create(context.Background(), model.Personnel{Name: name}, f.actor)
	require.NoError(t, err)
	return p
}

func (f *fixture) request(t *testing.T, itemID, personnelID int64) *model.Assignment {
	t.Helper()
	a, err := f.assignments.Create(context.Background(), CreateInput{
		ItemID:         itemID,
		PersonnelID:    personnelID,
		AssignmentDate: jan10,
	}, f.actor)
	require.NoError(t, err)
	return a
}

// update applies patch at the assignment's current version.
func (f *fixture) update(t *testing.T, id int64, patch assignment.Patch) (*model.Assignment, error) {
	t.Helper()
	cur, err := store.GetAssignment(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, cur)
	return f.assignments.Update(context.Background(), id, UpdateInput{Patch: patch, Version: cur.Version}, f.actor)
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	events, _, err := store.ListAuditEvents(context.Background(), f.db, defaultPage)
	require.NoError(t, err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

func fieldNames(err error) []string {
	var names []string
	for _, f := range apperr.Fields(err) {
		names = append(names, f.Field)
	}
	return names
}

func changedFieldNames(e model.HistoryEntry) []string {
	var names []string
	for _, c := range e.Changes {
		names = append(names, c.Field)
	}
	return names
}

func ptr[T any](v T) *T { return &v }

// injectFailure makes every write of the given kind on one assignment fail.
func injectFailure(t *testing.T, database *sql.DB, event string, id int64) {
	t.Helper()
	_, err := database.Exec(fmt.Sprintf(
		`CREATE TRIGGER inject_failure BEFORE %s ON assignments WHEN OLD.id = %d
		 BEGIN SELECT RAISE(ABORT, 'injected failure'); END`, event, id))
	require.NoError(t, err)
}
