package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
)

type mapCache struct {
	data map[string][]byte
	fail bool
	gets int
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.gets++
	if c.fail {
		return false, errors.New("cache down")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any) error {
	if c.fail {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	c.data[key] = raw
	return err
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestCachedStorePreferences(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	cache := &mapCache{data: map[string][]byte{}}
	s := NewCachedStore(mem, cache, logger.Discard())

	u, err := s.CreateUser(ctx, "owl", "hash")
	require.NoError(t, err)

	_, ok, err := s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, cache.data, "absent preferences are not cached")

	p := models.DefaultPreferences(u.ID.String(), "UTC")
	p.DarkMode = true
	_, err = s.SavePreferences(ctx, p)
	require.NoError(t, err)

	got, ok, err := s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.DarkMode)
	assert.Contains(t, cache.data, "preferences:"+u.ID.String())

	p.DarkMode = false
	_, err = s.SavePreferences(ctx, p)
	require.NoError(t, err)
	assert.NotContains(t, cache.data, "preferences:"+u.ID.String(), "save invalidates")

	got, _, err = s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.DarkMode)
}

func TestCachedStoreDeleteUserInvalidates(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{data: map[string][]byte{}}
	s := NewCachedStore(NewMemoryStore(), cache, logger.Discard())

	u, err := s.CreateUser(ctx, "owl", "hash")
	require.NoError(t, err)
	_, err = s.SavePreferences(ctx, models.DefaultPreferences(u.ID.String(), "UTC"))
	require.NoError(t, err)
	_, _, err = s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	require.Contains(t, cache.data, "preferences:"+u.ID.String())

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	assert.NotContains(t, cache.data, "preferences:"+u.ID.String())
	_, ok, err := s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedStoreFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s := NewCachedStore(mem, &mapCache{data: map[string][]byte{}, fail: true}, logger.Discard())

	u, err := s.CreateUser(ctx, "owl", "hash")
	require.NoError(t, err)
	_, err = s.SavePreferences(ctx, models.DefaultPreferences(u.ID.String(), "UTC"))
	require.NoError(t, err)

	_, ok, err := s.Preferences(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
