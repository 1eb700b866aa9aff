package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TokenTTL is how long a token stays valid without a refresh.
	TokenTTL = 7 * 24 * time.Hour

	tokenKeyPrefix = "session:"
	userKeyPrefix  = "user_session:"
)

// ErrNoSession is returned by Refresh for an unknown or expired token.
var ErrNoSession = errors.New("session not found")

// Tokens issues and resolves opaque bearer tokens. Each user holds at most
// one live token; issuing a new one revokes the previous.
type Tokens interface {
	Create(ctx context.Context, id Identity) (string, error)
	Validate(ctx context.Context, token string) (Identity, bool, error)
	Refresh(ctx context.Context, token string) error
	Invalidate(ctx context.Context, token string) error
	InvalidateUser(ctx context.Context, userID string) error
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenStore keeps tokens in Redis: session:<token> holds the identity and
// user_session:<user> points back at the token.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client, ttl: TokenTTL}
}

func (s *TokenStore) Create(ctx context.Context, id Identity) (string, error) {
	if err := s.InvalidateUser(ctx, id.UserID); err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, tokenKeyPrefix+token, payload, s.ttl)
		p.Set(ctx, userKeyPrefix+id.UserID, token, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Validate(ctx context.Context, token string) (Identity, bool, error) {
	if token == "" {
		return Identity{}, false, nil
	}
	raw, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("load session: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode session: %w", err)
	}
	return id, id.SignedIn(), nil
}

// Refresh restarts the TTL of both keys.
func (s *TokenStore) Refresh(ctx context.Context, token string) error {
	id, ok, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Expire(ctx, tokenKeyPrefix+token, s.ttl)
		p.Expire(ctx, userKeyPrefix+id.UserID, s.ttl)
		return nil
	})
	return err
}

func (s *TokenStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, ok, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if ok {
			p.Del(ctx, userKeyPrefix+id.UserID)
		}
		p.Del(ctx, tokenKeyPrefix+token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *TokenStore) InvalidateUser(ctx context.Context, userID string) error {
	token, err := s.client.Get(ctx, userKeyPrefix+userID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load user session: %w", err)
	}
	keys := []string{userKeyPrefix + userID}
	if token != "" {
		keys = append(keys, tokenKeyPrefix+token)
	}
	return s.client.Del(ctx, keys...).Err()
}

// MemoryTokens is an in-process Tokens used with the memory store backend
// and in tests.
type MemoryTokens struct {
	mu     sync.Mutex
	now    func() time.Time
	ttl    time.Duration
	tokens map[string]memoryToken
	users  map[string]string
}

type memoryToken struct {
	id      Identity
	expires time.Time
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{
		now:    time.Now,
		ttl:    TokenTTL,
		tokens: make(map[string]memoryToken),
		users:  make(map[string]string),
	}
}

func (m *MemoryTokens) Create(_ context.Context, id Identity) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.users[id.UserID]; ok {
		delete(m.tokens, old)
	}
	m.tokens[token] = memoryToken{id: id, expires: m.now().Add(m.ttl)}
	m.users[id.UserID] = token
	return token, nil
}

func (m *MemoryTokens) Validate(_ context.Context, token string) (Identity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || !m.now().Before(t.expires) {
		return Identity{}, false, nil
	}
	return t.id, true, nil
}

func (m *MemoryTokens) Refresh(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || !m.now().Before(t.expires) {
		return ErrNoSession
	}
	t.expires = m.now().Add(m.ttl)
	m.tokens[token] = t
	return nil
}

func (m *MemoryTokens) Invalidate(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok {
		delete(m.users, t.id.UserID)
		delete(m.tokens, token)
	}
	return nil
}

func (m *MemoryTokens) InvalidateUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.users[userID]; ok {
		delete(m.tokens, token)
		delete(m.users, userID)
	}
	return nil
}
