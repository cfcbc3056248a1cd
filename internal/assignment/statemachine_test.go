package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/apperr"
	"github.com/erazemk/zimmet/internal/model"
)

var today = model.NewDate(2024, time.June, 15)

func snapshot(status model.Status) Snapshot {
	return Snapshot{
		Assignment: model.Assignment{
			ID:             1,
			ItemID:         10,
			PersonnelID:    20,
			Status:         status,
			AssignmentDate: model.NewDate(2024, time.June, 1),
		},
		Item: model.Item{ID: 10, Name: "Laptop", Brand: "Dell", AssetTag: "DMB-0001"},
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	var names []string
	for _, f := range apperr.Fields(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to model.Status
		via      Via
		ok       bool
	}{
		{model.StatusPending, model.StatusAssigned, ViaApproval, true},
		{model.StatusPending, model.StatusAssigned, ViaEdit, false},
		{model.StatusPending, model.StatusReturned, ViaEdit, false},
		{model.StatusPending, model.StatusFaulty, ViaEdit, false},
		{model.StatusPending, model.StatusScrapped, ViaEdit, false},
		{model.StatusPending, model.StatusPending, ViaEdit, true},
		{model.StatusAssigned, model.StatusReturned, ViaEdit, true},
		{model.StatusAssigned, model.StatusFaulty, ViaEdit, true},
		{model.StatusAssigned, model.StatusScrapped, ViaEdit, true},
		{model.StatusAssigned, model.StatusPending, ViaEdit, false},
		{model.StatusReturned, model.StatusAssigned, ViaEdit, true},
		{model.StatusFaulty, model.StatusReturned, ViaEdit, true},
		{model.StatusScrapped, model.StatusFaulty, ViaEdit, true},
		{model.StatusScrapped, model.StatusPending, ViaEdit, false},
		{model.StatusAssigned, model.StatusAssigned, ViaApproval, false},
		{model.StatusReturned, model.StatusAssigned, ViaApproval, false},
		{model.StatusAssigned, model.Status("lost"), ViaEdit, false},
	}

	for _, tt := range tests {
		err := CheckTransition(tt.from, tt.to, tt.via)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s via %s", tt.from, tt.to, tt.via)
		} else {
			assert.Error(t, err, "%s -> %s via %s", tt.from, tt.to, tt.via)
		}
	}
}

func TestPendingCannotSkipApproval(t *testing.T) {
	for _, to := range []model.Status{model.StatusReturned, model.StatusFaulty, model.StatusScrapped, model.StatusAssigned} {
		prev := snapshot(model.StatusPending)
		next := prev
		next.Assignment.Status = to
		next.Assignment.ReturnDate = today
		next.Assignment.SignedForm = "/forms/1.pdf"

		_, err := Transition(prev, next, ViaEdit, today)
		assert.Contains(t, fieldNames(t, err), FieldStatus, "pending -> %s", to)
	}
}

func TestApprovalRequiresSignedForm(t *testing.T) {
	prev := snapshot(model.StatusPending)
	next := prev
	next.Assignment.Status = model.StatusAssigned

	_, err := Transition(prev, next, ViaApproval, today)
	assert.Equal(t, []string{FieldSignedForm}, fieldNames(t, err))

	next.Assignment.SignedForm = "/forms/1.pdf"
	got, err := Transition(prev, next, ViaApproval, today)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Assignment.Status)
}

func TestReturnedRequiresPastReturnDate(t *testing.T) {
	prev := snapshot(model.StatusAssigned)

	next := prev
	next.Assignment.Status = model.StatusReturned
	_, err := Transition(prev, next, ViaEdit, today)
	assert.Equal(t, []string{FieldReturnDate}, fieldNames(t, err))

	next.Assignment.ReturnDate = model.NewDate(2024, time.June, 16)
	_, err = Transition(prev, next, ViaEdit, today)
	assert.Equal(t, []string{FieldReturnDate}, fieldNames(t, err))

	next.Assignment.ReturnDate = today
	got, err := Transition(prev, next, ViaEdit, today)
	require.NoError(t, err)
	assert.Equal(t, today, got.Assignment.ReturnDate)
}

func TestLeavingReturnedClearsReturnDate(t *testing.T) {
	prev := snapshot(model.StatusReturned)
	prev.Assignment.ReturnDate = model.NewDate(2024, time.June, 10)

	for _, to := range []model.Status{model.StatusAssigned, model.StatusFaulty, model.StatusScrapped} {
		next := prev
		next.Assignment.Status = to

		got, err := Transition(prev, next, ViaEdit, today)
		require.NoError(t, err, "returned -> %s", to)
		assert.True(t, got.Assignment.ReturnDate.IsZero(), "returned -> %s keeps return date", to)
	}
}

func TestReturnDateOnlyWhenReturned(t *testing.T) {
	prev := snapshot(model.StatusAssigned)
	next := prev
	next.Assignment.ReturnDate = today

	_, err := Transition(prev, next, ViaEdit, today)
	assert.Equal(t, []string{FieldReturnDate}, fieldNames(t, err))
}

func TestTransitionAggregatesViolations(t *testing.T) {
	prev := snapshot(model.StatusAssigned)
	next := prev
	next.Assignment.Status = model.StatusReturned
	next.Assignment.AssignmentDate = model.NewDate(2030, time.January, 1)

	_, err := Transition(prev, next, ViaEdit, today)
	assert.ElementsMatch(t, []string{FieldAssignmentDate, FieldReturnDate}, fieldNames(t, err))
}

func TestTransitionReturnsPrevOnError(t *testing.T) {
	prev := snapshot(model.StatusPending)
	next := prev
	next.Assignment.Status = model.StatusScrapped

	got, err := Transition(prev, next, ViaEdit, today)
	require.Error(t, err)
	assert.Equal(t, prev, got)
}

func TestInitial(t *testing.T) {
	s := snapshot("")
	got, err := Initial(s, today)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Assignment.Status)

	s = snapshot(model.StatusAssigned)
	_, err = Initial(s, today)
	assert.Equal(t, []string{FieldStatus}, fieldNames(t, err))

	s = snapshot("")
	s.Assignment.AssignmentDate = model.NewDate(2024, time.June, 16)
	s.Assignment.PersonnelID = 0
	_, err = Initial(s, today)
	assert.ElementsMatch(t, []string{FieldPersonnel, FieldAssignmentDate}, fieldNames(t, err))
}
