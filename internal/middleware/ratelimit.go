package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/pkg/clientip"
)

const (
	RateLimitWindow    = time.Minute
	RateLimitKeyPrefix = "ratelimit:"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

// RedisLimiter counts requests per key in fixed one-minute windows shared by
// every server instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: perMinute, window: RateLimitWindow}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	k := RateLimitKeyPrefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, fmt.Errorf("rate limit counter: %w", err)
	}
	n := int(incr.Val())
	remaining := l.limit - n
	if remaining < 0 {
		remaining = 0
	}
	return n <= l.limit, remaining, nil
}

// LocalLimiter is a per-process token bucket per key.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// NewLocalLimiter allows perMinute requests per key, all of which may arrive
// in one burst.
func NewLocalLimiter(perMinute int) *LocalLimiter {
	return NewLocalLimiterEvery(time.Minute/time.Duration(perMinute), perMinute)
}

// NewLocalLimiterEvery refills one token every interval up to burst.
func NewLocalLimiterEvery(interval time.Duration, burst int) *LocalLimiter {
	return &LocalLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Every(interval),
		burst:   burst,
		ttl:     30 * time.Minute,
		now:     time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	allowed := e.limiter.AllowN(now, 1)
	return allowed, int(e.limiter.TokensAt(now)), nil
}

// Sweep forgets keys idle for longer than the limiter TTL.
func (l *LocalLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *LocalLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// RateLimit rejects callers over the limit with 429. Limiter failures let
// the request through.
func RateLimit(l Limiter, trustProxy bool, log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(logger.Component, logger.ComponentRateLimit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.RealClientIP(r, trustProxy)
			allowed, remaining, err := l.Allow(r.Context(), ip)
			if err != nil {
				log.Warn("rate limiter unavailable", logger.Error, err)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				log.Warn("rate limit exceeded", logger.ClientIP, ip, logger.Path, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
				tooManyRequests(w, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = fmt.Fprintf(w, `{"success":false,"kind":"rate_limited","message":%q}`, message)
}
