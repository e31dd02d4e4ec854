package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newFakeDB()
	svc := NewAuthService(fakeOrganizerRepo{store})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{Email: "td@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	org, err := svc.Register(ctx, RegisterInput{Email: "  TD@Example.com ", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "td@example.com", org.Email)
	assert.NotEqual(t, "longenough", org.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Email: "td@example.com", Password: "otherpassword"})
	assert.ErrorIs(t, err, ErrOrganizerEmailConflict)

	got, err := svc.Login(ctx, LoginInput{Email: "TD@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "td@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPlayerService(t *testing.T) {
	store := newFakeDB()
	svc := NewPlayerService(fakePlayerRepo{store})
	ctx := context.Background()

	_, err := svc.Register(ctx, "   ")
	assert.ErrorIs(t, err, ErrPlayerNameRequired)

	p, err := svc.Register(ctx, "  Magnus   Carlsen ")
	require.NoError(t, err)
	assert.Equal(t, "Magnus Carlsen", p.Name)

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	_, err = svc.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	for _, name := range []string{"Hikaru", "Fabiano"} {
		_, err := svc.Register(ctx, name)
		require.NoError(t, err)
	}
	page, total, err := svc.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Hikaru", page[0].Name)

	page, _, err = svc.List(ctx, -1, -5)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	tid := store.addTournament(t, 4, p.ID)
	assert.NotZero(t, tid)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrPlayerInUse)
	assert.ErrorIs(t, svc.Delete(ctx, 999), ErrPlayerNotFound)
	require.NoError(t, svc.Delete(ctx, page[2].ID))
}
