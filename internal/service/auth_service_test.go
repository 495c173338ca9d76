package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/ai-reports/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()

	user, err := auth.Register(ctx, " Ada Lovelace ", "Ada@Example.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	token, loggedIn, err := auth.Login(ctx, "ADA@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	id, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRegisterErrors(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()

	_, err := auth.Register(ctx, "", "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Register(ctx, "Owner", "owner@example.com", "pw")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginErrors(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()
	_, err := auth.Register(ctx, "Grace", "grace@example.com", "right")
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = auth.Login(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()
	_, err := auth.Register(ctx, "Alan", "alan@example.com", "pw")
	require.NoError(t, err)
	token, _, err := auth.Login(ctx, "alan@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, token))
	require.NoError(t, auth.Logout(ctx, token), "logout is idempotent")

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// a fresh login still works
	again, _, err := auth.Login(ctx, "alan@example.com", "pw")
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, again)
	assert.NoError(t, err)

	assert.NoError(t, auth.Logout(ctx, "not-a-token"))
}

func TestValidateTokenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.authService().(*authService)

	_, err := svc.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewAuthService(f.repos.Users, f.repos.Revoked, "another-secret", time.Hour).(*authService)
	foreign, err := other.generateJWT(f.user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, ErrUnauthorized)

	svc.jwtExpiration = -time.Minute
	expired, err := svc.generateJWT(f.user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeletedUserTokenStopsValidating(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()
	user, err := auth.Register(ctx, "Linus", "linus@example.com", "pw")
	require.NoError(t, err)
	token, _, err := auth.Login(ctx, "linus@example.com", "pw")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.DeleteAccount(ctx, f.user.ID, user.ID), ErrForbidden)
	require.NoError(t, auth.DeleteAccount(ctx, user.ID, user.ID))

	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = auth.Login(ctx, "linus@example.com", "pw")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, auth.DeleteAccount(ctx, user.ID, user.ID), ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()
	user, err := auth.Register(ctx, "Barbara", "barbara@example.com", "old")
	require.NoError(t, err)

	name, email, password := "Barbara Liskov", "BL@example.com", "new"
	_, err = auth.UpdateProfile(ctx, f.user.ID, user.ID, ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := auth.UpdateProfile(ctx, user.ID, user.ID, ProfileUpdate{FullName: &name, Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Barbara Liskov", updated.FullName)
	assert.Equal(t, "bl@example.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)

	_, _, err = auth.Login(ctx, "bl@example.com", "old")
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = auth.Login(ctx, "bl@example.com", "new")
	assert.NoError(t, err)

	taken := "owner@example.com"
	_, err = auth.UpdateProfile(ctx, user.ID, user.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	blank := " "
	_, err = auth.UpdateProfile(ctx, user.ID, user.ID, ProfileUpdate{FullName: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSweepRevoked(t *testing.T) {
	f := newFixture(t)
	auth := f.authService()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.repos.Revoked.Revoke(ctx, &domain.RevokedCredential{Token: "old", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}))
	require.NoError(t, f.repos.Revoked.Revoke(ctx, &domain.RevokedCredential{Token: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	n, err := auth.SweepRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, err := f.repos.Revoked.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
