package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/pkg/tokens"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, " Artist@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "artist@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	_, err = f.auth.Register(ctx, "artist@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrConflict)

	res, err := f.auth.Login(ctx, "ARTIST@example.com", "correct-horse")
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, []byte("secret"))
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = f.auth.Login(ctx, "artist@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.auth.Login(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuth_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "not-an-email", "longenough")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.auth.Register(ctx, "a@example.com", "short")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuth_BootstrapAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.auth.BootstrapAdmin(ctx, "owner@example.com", "owner-pass")
	require.NoError(t, err)

	again, err := f.auth.BootstrapAdmin(ctx, "owner@example.com", "owner-pass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	_, err = f.auth.BootstrapAdmin(ctx, "owner@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	res, err := f.auth.Login(ctx, "owner@example.com", "owner-pass")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)
}
