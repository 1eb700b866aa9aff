package accounts

import (
	"context"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/pkg/utils"
)

var cheap = utils.HashParams{Time: 1, Memory: 1024, Threads: 1, SaltLen: 8, KeyLen: 16}

func newService() *Service {
	return NewService(NewMemoryStore(), WithHashParams(cheap), WithDefaultTimezone("UTC"))
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	s := newService()

	u, err := s.SignUp(ctx, "  Quiet_Owl ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "quiet_owl", u.Username)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := s.SignIn(ctx, "QUIET_OWL", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.SignIn(ctx, "quiet_owl", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	s := newService()

	_, err := s.SignUp(ctx, "owl", "password1")
	require.NoError(t, err)

	_, err = s.SignUp(ctx, "OWL", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.SignUp(ctx, "_owl", "password1")
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	_, err = s.SignUp(ctx, "another", "short")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestPreferencesDefaultAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newService()
	u, err := s.SignUp(ctx, "owl", "password1")
	require.NoError(t, err)

	p, err := s.Preferences(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(u.ID.String(), "UTC"), p)

	dark := true
	tz := "Europe/Rome"
	p, err = s.UpdatePreferences(ctx, u.ID.String(), models.PreferencesUpdate{DarkMode: &dark, Timezone: &tz})
	require.NoError(t, err)
	assert.True(t, p.DarkMode)
	assert.Equal(t, "Europe/Rome", p.Timezone)
	assert.True(t, p.Notifications)

	again, err := s.Preferences(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, p, again)

	bad := "25:99"
	_, err = s.UpdatePreferences(ctx, u.ID.String(), models.PreferencesUpdate{DailyReminder: &bad})
	var verr *utils.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserLookup(t *testing.T) {
	ctx := context.Background()
	s := newService()
	u, err := s.SignUp(ctx, "owl", "password1")
	require.NoError(t, err)

	free, err := s.UsernameAvailable(ctx, "OWL")
	require.NoError(t, err)
	assert.False(t, free)
	free, err = s.UsernameAvailable(ctx, "hawk")
	require.NoError(t, err)
	assert.True(t, free)

	got, err := s.User(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "owl", got.Username)

	_, err = s.User(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s := newService()
	u, err := s.SignUp(ctx, "owl", "password1")
	require.NoError(t, err)
	dark := true
	_, err = s.UpdatePreferences(ctx, u.ID.String(), models.PreferencesUpdate{DarkMode: &dark})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, u.ID.String()))
	_, err = s.User(ctx, u.ID.String())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, u.ID.String()), ErrUserNotFound)

	again, err := s.SignUp(ctx, "owl", "password1")
	require.NoError(t, err)
	p, err := s.Preferences(ctx, again.ID.String())
	require.NoError(t, err)
	assert.False(t, p.DarkMode)
}
