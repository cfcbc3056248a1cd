package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/model"
)

func TestAppendAndListHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := seedItem(t, database, "T-1")
	person := seedPersonnel(t, database, "Ali")
	id := seedAssignment(t, database, item.ID, person.ID, model.StatusPending, jan)

	actorID := int64(7)
	at := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, AppendHistory(ctx, database, id, model.HistoryEntry{
		Seq: 1, Action: model.ActionCreated, At: at, ActorID: &actorID, ActorName: "manager",
		RegistryVersion: 1,
		Changes:         []model.Change{{Field: "status", To: "pending"}},
	}))
	require.NoError(t, AppendHistory(ctx, database, id, model.HistoryEntry{
		Seq: 2, Action: model.ActionUpdated, At: at.Add(time.Hour), RegistryVersion: 1,
		Changes: []model.Change{
			{Field: "item.brand", From: "Dell", To: "HP"},
			{Field: "signedForm", To: "/forms/a.pdf", Event: model.EventFormAttached},
		},
	}))

	history, err := ListHistory(ctx, database, id)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, 1, history[0].Seq)
	assert.Equal(t, model.ActionCreated, history[0].Action)
	assert.True(t, at.Equal(history[0].At))
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, actorID, *history[0].ActorID)
	assert.Equal(t, "manager", history[0].ActorName)
	assert.Nil(t, history[0].Changes[0].From)

	assert.Nil(t, history[1].ActorID)
	assert.Equal(t, []model.Change{
		{Field: "item.brand", From: "Dell", To: "HP"},
		{Field: "signedForm", To: "/forms/a.pdf", Event: model.EventFormAttached},
	}, history[1].Changes)
}

func TestAppendHistoryRejectsDuplicateSeq(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := seedItem(t, database, "T-1")
	person := seedPersonnel(t, database, "Ali")
	id := seedAssignment(t, database, item.ID, person.ID, model.StatusPending, jan)

	entry := model.HistoryEntry{
		Seq: 1, Action: model.ActionCreated, At: time.Now(), RegistryVersion: 1,
		Changes: []model.Change{{Field: "status", To: "pending"}},
	}
	require.NoError(t, AppendHistory(ctx, database, id, entry))
	assert.Error(t, AppendHistory(ctx, database, id, entry))
}

func TestAppendHistoryRejectsEmptyChangeSet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := seedItem(t, database, "T-1")
	person := seedPersonnel(t, database, "Ali")
	id := seedAssignment(t, database, item.ID, person.ID, model.StatusPending, jan)

	for _, changes := range [][]model.Change{{}, nil} {
		err := AppendHistory(ctx, database, id, model.HistoryEntry{
			Seq: 1, Action: model.ActionUpdated, At: time.Now(), RegistryVersion: 1,
			Changes: changes,
		})
		assert.Error(t, err, "changes %#v", changes)
	}
}
