package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/pkg/utils"
)

// ErrInvalidCredentials hides whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Service implements signup, signin and preference handling over a Store.
type Service struct {
	store     Store
	log       *slog.Logger
	params    utils.HashParams
	defaultTZ string
}

type Option func(*Service)

// WithHashParams overrides the argon2 cost parameters.
func WithHashParams(p utils.HashParams) Option {
	return func(s *Service) { s.params = p }
}

// WithDefaultTimezone sets the timezone reported for users without
// saved preferences.
func WithDefaultTimezone(tz string) Option {
	return func(s *Service) { s.defaultTZ = tz }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		log:    logger.Discard(),
		params: utils.DefaultHashParams,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component, logger.ComponentAccounts)
	return s
}

// SignUp validates and registers a new account.
func (s *Service) SignUp(ctx context.Context, username, password string) (models.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return models.User{}, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	hash, err := utils.HashPasswordWith(password, s.params)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, utils.NormalizeUsername(username), hash)
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user registered", logger.UserID, u.ID.String())
	return u, nil
}

// SignIn returns the account when the password matches.
func (s *Service) SignIn(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.store.FindByUsername(ctx, utils.NormalizeUsername(username))
	if errors.Is(err, ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !u.IsActive {
		return models.User{}, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		s.log.Warn("stored password hash is unreadable", logger.UserID, u.ID.String(), logger.Error, err)
		return models.User{}, ErrInvalidCredentials
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// UsernameAvailable reports whether no account uses username.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.store.FindByUsername(ctx, utils.NormalizeUsername(username))
	switch {
	case errors.Is(err, ErrUserNotFound):
		return true, nil
	case err != nil:
		return false, err
	}
	return false, nil
}

func (s *Service) User(ctx context.Context, userID string) (models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}
	return s.store.FindByID(ctx, id)
}

// Preferences returns the saved preferences or the defaults.
func (s *Service) Preferences(ctx context.Context, userID string) (models.Preferences, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return models.Preferences{}, ErrUserNotFound
	}
	p, ok, err := s.store.Preferences(ctx, id)
	if err != nil {
		return models.Preferences{}, err
	}
	if !ok {
		return models.DefaultPreferences(userID, s.defaultTZ), nil
	}
	return p, nil
}

// UpdatePreferences merges update over the current preferences and saves.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, update models.PreferencesUpdate) (models.Preferences, error) {
	current, err := s.Preferences(ctx, userID)
	if err != nil {
		return models.Preferences{}, err
	}
	merged, err := update.Merge(current)
	if err != nil {
		return models.Preferences{}, &utils.ValidationError{Field: "preferences", Message: err.Error()}
	}
	return s.store.SavePreferences(ctx, merged)
}

// DeleteAccount removes the account and its preferences. Entries live in
// the journal store and are removed by the caller.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", logger.UserID, userID)
	return nil
}
