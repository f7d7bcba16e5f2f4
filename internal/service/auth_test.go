package service

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/session"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	u, tokens, err := f.auth.Register(ctx, " Ada@Example.com ", "password123", "Ada")
	require.NoError(t, err)
	assert.Equal(t, access.RoleStudent, u.Role)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, _, err = f.auth.Register(ctx, "ada@example.com", "password123", "Ada again")
	assert.True(t, errors.Is(err, user.ErrEmailTaken))

	_, _, err = f.auth.Register(ctx, "bob@example.com", "short", "Bob")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, _, err = f.auth.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	_, _, err = f.auth.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, errors.Is(err, user.ErrInvalidLogin))

	logged, _, err := f.auth.Login(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	me, err := f.auth.Me(ctx, access.Identity{UserID: u.ID, Role: u.Role})
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, first, err := f.auth.Register(ctx, "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEmpty(t, second.AccessToken)

	// the rotated token is spent
	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, session.ErrInvalid))

	require.NoError(t, f.auth.Logout(ctx, second.RefreshToken))
	_, err = f.auth.Refresh(ctx, second.RefreshToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	_, err = f.auth.Refresh(ctx, "")
	assert.True(t, errors.Is(err, session.ErrMissing))

	_, err = f.auth.Refresh(ctx, "garbage")
	assert.True(t, errors.Is(err, session.ErrInvalid))
}

func TestAuthService_RefreshPicksUpRoleChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	u, tokens, err := f.auth.Register(ctx, "ada@example.com", "password123", "Ada")
	require.NoError(t, err)

	_, err = f.store.UpdateUserRole(ctx, u.ID, access.RoleManager)
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	claims, err := f.auth.jwt.VerifyAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, access.RoleManager, claims.Role)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	require.NoError(t, f.auth.EnsureAdmin(ctx, "root@example.com", "password123", "Root"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "root@example.com", "password123", "Root"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "", "", ""))

	u, _, err := f.auth.Login(ctx, "root@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, access.RoleAdmin, u.Role)

	stats, err := f.store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
}
