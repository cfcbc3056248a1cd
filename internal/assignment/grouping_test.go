package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/model"
	"github.com/erazemk/zimmet/internal/pagination"
)

func pendingFor(id int64, person *model.Personnel, day int, status model.Status) model.Assignment {
	return model.Assignment{
		ID:             id,
		PersonnelID:    person.ID,
		Personnel:      person,
		Status:         status,
		AssignmentDate: model.NewDate(2024, time.May, day),
	}
}

func TestGroupPending(t *testing.T) {
	ali := &model.Personnel{ID: 1, Name: "Ali"}
	zeynep := &model.Personnel{ID: 2, Name: "Zeynep"}
	ayse := &model.Personnel{ID: 3, Name: "ayşe"}

	groups := GroupPending([]model.Assignment{
		pendingFor(1, zeynep, 3, model.StatusPending),
		pendingFor(2, ali, 5, model.StatusPending),
		pendingFor(3, ali, 2, model.StatusPending),
		pendingFor(4, ali, 1, model.StatusAssigned),
		pendingFor(5, ayse, 1, model.StatusPending),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "Ali", groups[0].Personnel.Name)
	require.Len(t, groups[0].Assignments, 2)
	assert.Equal(t, int64(3), groups[0].Assignments[0].ID)
	assert.Equal(t, int64(2), groups[0].Assignments[1].ID)
	assert.Equal(t, "ayşe", groups[1].Personnel.Name)
	assert.Equal(t, "Zeynep", groups[2].Personnel.Name)
}

func TestGroupPendingPagesOverGroups(t *testing.T) {
	ali := &model.Personnel{ID: 1, Name: "Ali"}
	veli := &model.Personnel{ID: 2, Name: "Veli"}

	var assignments []model.Assignment
	for i := int64(1); i <= 30; i++ {
		assignments = append(assignments, pendingFor(i, ali, 1, model.StatusPending))
	}
	assignments = append(assignments, pendingFor(31, veli, 1, model.StatusPending))

	page := pagination.Slice(GroupPending(assignments), pagination.Params{Page: 1, Limit: 1})
	require.Len(t, page.Items, 1)
	assert.Len(t, page.Items[0].Assignments, 30)
	assert.Equal(t, 2, page.Total)

	second := pagination.Slice(GroupPending(assignments), pagination.Params{Page: 2, Limit: 1})
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Veli", second.Items[0].Personnel.Name)
}

func TestGroupPendingEmpty(t *testing.T) {
	groups := GroupPending(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}
