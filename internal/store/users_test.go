package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zimmet/internal/db"
	"github.com/erazemk/zimmet/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", got.Username)
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)
	require.NoError(t, err)

	user, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	missing, err := GetUserByUsername(ctx, database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetUserByUsernamePrefersActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	old, err := CreateUser(ctx, database, "alice", "old", model.RoleUser)
	require.NoError(t, err)
	require.NoError(t, DeleteUser(ctx, database, old.ID))

	_, err = CreateUser(ctx, database, "alice", "new", model.RoleManager)
	require.NoError(t, err)

	user, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", user.PasswordHash)
	assert.Nil(t, user.DeletedAt)
}

func TestListAndCountUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "a", "hash", model.RoleUser)
	require.NoError(t, err)
	b, err := CreateUser(ctx, database, "b", "hash", model.RoleManager)
	require.NoError(t, err)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, DeleteUser(ctx, database, b.ID))
	n, err := CountUsers(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateUserRoleAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)
	require.NoError(t, err)
	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))
	require.NoError(t, UpdateUser(ctx, database, user.ID, model.RoleManager))

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Equal(t, model.RoleManager, got.Role)
}
