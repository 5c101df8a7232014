package database

import (
	"context"
	"testing"

	"cleanbook/internal/domain"
	"cleanbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{OpenID: "owner", Name: "Owner", Email: "owner@example.com", LoginMethod: models.LoginMethodOperator, Role: models.RoleAdmin}
	require.NoError(t, db.UpsertUser(ctx, u))
	require.NotZero(t, u.ID)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.OpenID)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.True(t, got.IsAdmin())
	assert.False(t, got.LastSignedIn.IsZero())

	// same open id updates in place
	again := &models.User{OpenID: "owner", Name: "Owner Renamed", Role: models.RoleUser}
	require.NoError(t, db.UpsertUser(ctx, again))
	assert.Equal(t, u.ID, again.ID)

	got, err = db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner Renamed", got.Name)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestUpsertUser_DefaultRole(t *testing.T) {
	db := setupTestDB(t)

	u := &models.User{OpenID: "guest"}
	require.NoError(t, db.UpsertUser(context.Background(), u))
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
