package accounts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/services"
)

// Cache is the subset of services.RedisCache used here.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// CachedStore serves preferences from a cache in front of another Store.
// A failing cache falls back to the underlying store.
type CachedStore struct {
	Store
	cache Cache
	log   *slog.Logger
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(store Store, cache Cache, log *slog.Logger) *CachedStore {
	return &CachedStore{Store: store, cache: cache, log: log.With(logger.Component, logger.ComponentAccounts)}
}

func preferencesKey(userID string) string {
	return services.CacheKey("preferences", userID)
}

func (s *CachedStore) Preferences(ctx context.Context, userID uuid.UUID) (models.Preferences, bool, error) {
	key := preferencesKey(userID.String())
	var p models.Preferences
	found, err := s.cache.Get(ctx, key, &p)
	if err != nil {
		s.log.Warn("preferences cache read failed", logger.UserID, userID.String(), logger.Error, err)
	}
	if found {
		return p, true, nil
	}

	p, ok, err := s.Store.Preferences(ctx, userID)
	if err != nil || !ok {
		return p, ok, err
	}
	if err := s.cache.Set(ctx, key, p); err != nil {
		s.log.Warn("preferences cache write failed", logger.UserID, userID.String(), logger.Error, err)
	}
	return p, true, nil
}

func (s *CachedStore) SavePreferences(ctx context.Context, p models.Preferences) (models.Preferences, error) {
	saved, err := s.Store.SavePreferences(ctx, p)
	if err != nil {
		return saved, err
	}
	if err := s.cache.Delete(ctx, preferencesKey(p.UserID)); err != nil {
		s.log.Warn("preferences cache invalidation failed", logger.UserID, p.UserID, logger.Error, err)
	}
	return saved, nil
}

func (s *CachedStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, preferencesKey(id.String())); err != nil {
		s.log.Warn("preferences cache invalidation failed", logger.UserID, id.String(), logger.Error, err)
	}
	return nil
}
