package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/dbtest"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
)

func TestCreateAndLookup(t *testing.T) {
	conn := dbtest.Open(t, &models.User{})
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserInput{
		Username:     "  Nurse.Joy ",
		PasswordHash: "hash",
		FullName:     "Joy",
		Role:         enums.UserRoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "nurse.joy", created.Username)
	assert.True(t, created.IsActive)

	found, err := repo.FindByUsername(ctx, " NURSE.JOY")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.UpdateLastLogin(ctx, uuid.New(), time.Now()), ErrNotFound))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDuplicateUsername(t *testing.T) {
	conn := dbtest.Open(t, &models.User{})
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserInput{Username: "admin", PasswordHash: "x", FullName: "A", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserInput{Username: "ADMIN", PasswordHash: "x", FullName: "B", Role: enums.UserRoleAdmin})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestUpdateLastLogin(t *testing.T) {
	conn := dbtest.Open(t, &models.User{})
	repo := NewRepository(conn)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserInput{Username: "staff", PasswordHash: "x", FullName: "S", Role: enums.UserRoleStaff})
	require.NoError(t, err)

	at := time.Date(2026, 10, 17, 7, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, at.Equal(*reloaded.LastLoginAt))

	dto := FromModel(reloaded)
	assert.Equal(t, "staff", dto.Username)
	assert.Equal(t, enums.UserRoleStaff, dto.Role)
}

func TestCreateRejectsIncompleteAccounts(t *testing.T) {
	conn := dbtest.Open(t, &models.User{})
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserInput{Username: "  ", PasswordHash: "x", Role: enums.UserRoleStaff})
	assert.Error(t, err)
	_, err = repo.Create(ctx, CreateUserInput{Username: "pharmacist", PasswordHash: "x", Role: "pharmacist"})
	assert.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
