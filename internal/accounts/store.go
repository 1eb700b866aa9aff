// Package accounts manages user accounts and their preferences.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store persists accounts. Usernames are stored normalised.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	// Preferences returns ok=false when the user never saved any.
	Preferences(ctx context.Context, userID uuid.UUID) (p models.Preferences, ok bool, err error)
	SavePreferences(ctx context.Context, p models.Preferences) (models.Preferences, error)
	// DeleteUser removes the account together with its preferences.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// PostgresStore keeps accounts in the users and user_preferences tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING id, username, password_hash, created_at, is_active`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx,
		`SELECT id, username, password_hash, created_at, is_active FROM users WHERE LOWER(username) = LOWER($1)`,
		username)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.findOne(ctx,
		`SELECT id, username, password_hash, created_at, is_active FROM users WHERE id = $1`,
		id)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Preferences(ctx context.Context, userID uuid.UUID) (models.Preferences, bool, error) {
	p := models.Preferences{UserID: userID.String()}
	err := s.db.QueryRowContext(ctx,
		`SELECT notifications, daily_reminder, dark_mode, timezone, updated_at
		 FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&p.Notifications, &p.DailyReminder, &p.DarkMode, &p.Timezone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Preferences{}, false, nil
	}
	if err != nil {
		return models.Preferences{}, false, fmt.Errorf("query preferences: %w", err)
	}
	return p, true, nil
}

func (s *PostgresStore) SavePreferences(ctx context.Context, p models.Preferences) (models.Preferences, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_preferences (user_id, notifications, daily_reminder, dark_mode, timezone, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   notifications = EXCLUDED.notifications,
		   daily_reminder = EXCLUDED.daily_reminder,
		   dark_mode = EXCLUDED.dark_mode,
		   timezone = EXCLUDED.timezone,
		   updated_at = NOW()
		 RETURNING updated_at`,
		p.UserID, p.Notifications, p.DailyReminder, p.DarkMode, p.Timezone,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return models.Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	// user_preferences rows go with it through ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MemoryStore is the in-process Store used with STORE_BACKEND=memory and in
// tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
	prefs map[uuid.UUID]models.Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]models.User),
		prefs: make(map[uuid.UUID]models.Preferences),
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return models.User{}, ErrUsernameTaken
		}
	}
	u := models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryStore) Preferences(_ context.Context, userID uuid.UUID) (models.Preferences, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	return p, ok, nil
}

func (m *MemoryStore) SavePreferences(_ context.Context, p models.Preferences) (models.Preferences, error) {
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		return models.Preferences{}, fmt.Errorf("preferences user id: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	m.prefs[id] = p
	return p, nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.prefs, id)
	return nil
}
