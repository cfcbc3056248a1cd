package assignment

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/model"
)

var at = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

func TestDiffNestedItemField(t *testing.T) {
	prev := snapshot(model.StatusAssigned)
	brand := "HP"
	next := Patch{Item: ItemPatch{Brand: &brand}}.Apply(prev)

	entry, ok := NewEntry(model.ActionUpdated, prev, next, model.Actor{Name: "admin"}, at)
	require.True(t, ok)
	assert.Equal(t, []model.Change{{Field: "item.brand", From: "Dell", To: "HP"}}, entry.Changes)
	assert.Equal(t, RegistryVersion, entry.RegistryVersion)

	// Same value again is a no-op.
	again := Patch{Item: ItemPatch{Brand: &brand}}.Apply(next)
	_, ok = NewEntry(model.ActionUpdated, next, again, model.Actor{}, at)
	assert.False(t, ok)
}

func TestDiffFormAttachedSentinel(t *testing.T) {
	prev := snapshot(model.StatusPending)
	form := "/forms/1.pdf"
	next := Patch{SignedForm: &form}.Apply(prev)

	changes := Diff(prev, next)
	require.Len(t, changes, 1)
	assert.Equal(t, model.Change{Field: FieldSignedForm, To: form, Event: model.EventFormAttached}, changes[0])

	replaced := "/forms/2.pdf"
	third := Patch{SignedForm: &replaced}.Apply(next)
	changes = Diff(next, third)
	require.Len(t, changes, 1)
	assert.Equal(t, model.Change{Field: FieldSignedForm, From: form, To: replaced}, changes[0])
}

func TestDiffComparesDatesByCalendarValue(t *testing.T) {
	prev := snapshot(model.StatusAssigned)
	parsed, err := model.ParseDate("2024-06-01T18:00:00Z")
	require.NoError(t, err)
	next := Patch{AssignmentDate: &parsed}.Apply(prev)

	assert.Empty(t, Diff(prev, next))
}

func TestDiffClearedFieldHasNilTo(t *testing.T) {
	prev := snapshot(model.StatusAssigned)
	prev.Assignment.Notes = "charger missing"
	empty := ""
	next := Patch{Notes: &empty}.Apply(prev)

	assert.Equal(t, []model.Change{{Field: FieldNotes, From: "charger missing", To: nil}}, Diff(prev, next))
}

// randomSnapshot varies every registered field over a small value space so
// that equal and different values both occur often.
func randomSnapshot(r *rand.Rand) Snapshot {
	pick := func(vals ...string) string { return vals[r.Intn(len(vals))] }
	s := Snapshot{
		Assignment: model.Assignment{
			PersonnelID:    int64(r.Intn(3) + 1),
			ItemID:         int64(r.Intn(3) + 1),
			Status:         model.Statuses[r.Intn(len(model.Statuses))],
			AssignmentDate: model.NewDate(2024, time.January, r.Intn(3)+1),
			Notes:          pick("", "a", "b"),
			SignedForm:     pick("", "/forms/1.pdf", "/forms/2.pdf"),
		},
		Item: model.Item{
			Name:         pick("Laptop", "Phone"),
			Category:     pick("", "IT"),
			Brand:        pick("Dell", "HP", ""),
			Model:        pick("", "X1"),
			SerialNumber: pick("", "SN1", "SN2"),
			AssetTag:     pick("T1", "T2"),
		},
	}
	if r.Intn(2) == 0 {
		s.Assignment.ReturnDate = model.NewDate(2024, time.February, r.Intn(2)+1)
	}
	return s
}

func TestDiffEmitsExactlyTheChangedFields(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		prev, next := randomSnapshot(r), randomSnapshot(r)

		want := map[string]bool{}
		pv, nv := Values(prev), Values(next)
		for name := range pv {
			if pv[name] != nv[name] {
				want[name] = true
			}
		}

		got := map[string]bool{}
		for _, c := range Diff(prev, next) {
			assert.False(t, got[c.Field], "duplicate change for %s", c.Field)
			got[c.Field] = true
		}
		require.Equal(t, want, got, "iteration %d", i)
	}
}

func TestReplayReconstructsEveryState(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var history []model.HistoryEntry
	prev := Snapshot{}

	for i := 0; i < 50; i++ {
		next := randomSnapshot(r)
		entry, ok := NewEntry(model.ActionUpdated, prev, next, model.Actor{Name: "u" + strconv.Itoa(i)}, at)
		if ok {
			before := len(history)
			history = Append(history, entry)
			require.Len(t, history, before+1)
			assert.Equal(t, before+1, history[before].Seq)
		}
		assert.Equal(t, Values(next), Replay(history), "step %d", i)
		prev = next
	}

	assert.Equal(t, Values(prev), Values(ReplaySnapshot(history)))
}

func TestAppendDoesNotMutateExistingHistory(t *testing.T) {
	first := model.HistoryEntry{Action: model.ActionCreated, Changes: []model.Change{{Field: FieldStatus, To: "pending"}}}
	history := Append(nil, first)
	snapshotCopy := append([]model.HistoryEntry(nil), history...)

	second := model.HistoryEntry{Action: model.ActionUpdated, Changes: []model.Change{{Field: FieldNotes, To: "x"}}}
	extended := Append(history, second)

	assert.Equal(t, snapshotCopy, history)
	require.Len(t, extended, 2)
	assert.Equal(t, first.Action, extended[0].Action)
	assert.Equal(t, 1, extended[0].Seq)
	assert.Equal(t, 2, extended[1].Seq)
}

func TestFieldNamesAreStable(t *testing.T) {
	assert.Equal(t, []string{
		"personnel", "item", "status", "assignmentDate", "returnDate", "notes", "signedForm",
		"item.name", "item.category", "item.brand", "item.model", "item.serialNumber", "item.assetTag",
	}, FieldNames())
}
