package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/db/dbtest"
	"github.com/resinriver/storefront/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	inactive := false
	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Dana@Example.COM ",
		PasswordHash: "hash",
		FirstName:    " Dana ",
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, "Dana", user.FirstName)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)

	found, err := repo.FindByEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.IsActive)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, now))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, now.Equal(found.LastLoginAt.UTC()))

	_, err = repo.Create(ctx, CreateUserDTO{Email: "dana@example.com", PasswordHash: "hash"})
	assert.True(t, db.IsUniqueViolation(err, ""))
}
