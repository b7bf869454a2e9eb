// AngelaMos | 2026
// loginlimit.go

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "loginattempts:"

// AttemptStatus reports where an identifier stands against the
// failed-login budget.
type AttemptStatus struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// AttemptLimiter counts failed logins per identifier inside a rolling
// window. Redis keeps the counters shared across instances; when Redis
// is unavailable the limiter degrades to an in-process count so login
// throttling never disappears entirely.
type AttemptLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	local map[string]*localAttempts
}

type localAttempts struct {
	count     int
	windowEnd time.Time
}

func NewAttemptLimiter(
	client *redis.Client,
	max int,
	window time.Duration,
	logger *slog.Logger,
) *AttemptLimiter {
	return &AttemptLimiter{
		client: client,
		max:    max,
		window: window,
		logger: logger,
		local:  make(map[string]*localAttempts),
	}
}

// Check reports whether the identifier may attempt a login. It never
// increments the counter.
func (l *AttemptLimiter) Check(
	ctx context.Context,
	identifier string,
) AttemptStatus {
	key := attemptKey(identifier)

	if l.client != nil {
		status, err := l.checkRedis(ctx, key)
		if err == nil {
			return status
		}
		l.logger.Warn("login limiter falling back to local counts",
			"error", err)
	}

	return l.checkLocal(key)
}

// Fail records a failed attempt and returns the updated status.
func (l *AttemptLimiter) Fail(
	ctx context.Context,
	identifier string,
) AttemptStatus {
	key := attemptKey(identifier)

	if l.client != nil {
		status, err := l.failRedis(ctx, key)
		if err == nil {
			return status
		}
		l.logger.Warn("login limiter falling back to local counts",
			"error", err)
	}

	return l.failLocal(key)
}

// Reset clears the counter after a successful login.
func (l *AttemptLimiter) Reset(ctx context.Context, identifier string) {
	key := attemptKey(identifier)

	if l.client != nil {
		if err := l.client.Del(ctx, key).Err(); err != nil {
			l.logger.Warn("login limiter reset failed", "error", err)
		}
	}

	l.mu.Lock()
	delete(l.local, key)
	l.mu.Unlock()
}

func (l *AttemptLimiter) checkRedis(
	ctx context.Context,
	key string,
) (AttemptStatus, error) {
	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return AttemptStatus{Allowed: true, Remaining: l.max}, nil
	}
	if err != nil {
		return AttemptStatus{}, fmt.Errorf("get attempt count: %w", err)
	}

	if count < l.max {
		return AttemptStatus{Allowed: true, Remaining: l.max - count}, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}

	return AttemptStatus{RetryAfter: ttl}, nil
}

func (l *AttemptLimiter) failRedis(
	ctx context.Context,
	key string,
) (AttemptStatus, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX so the window starts at the first failure and is not pushed
	// out by subsequent ones.
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return AttemptStatus{}, fmt.Errorf("record attempt: %w", err)
	}

	count := int(incr.Val())
	if count < l.max {
		return AttemptStatus{Allowed: true, Remaining: l.max - count}, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}

	return AttemptStatus{RetryAfter: ttl}, nil
}

func (l *AttemptLimiter) checkLocal(key string) AttemptStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.local[key]
	if !ok || time.Now().After(entry.windowEnd) {
		delete(l.local, key)
		return AttemptStatus{Allowed: true, Remaining: l.max}
	}

	if entry.count < l.max {
		return AttemptStatus{Allowed: true, Remaining: l.max - entry.count}
	}

	return AttemptStatus{RetryAfter: time.Until(entry.windowEnd)}
}

func (l *AttemptLimiter) failLocal(key string) AttemptStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.local[key]
	if !ok || now.After(entry.windowEnd) {
		entry = &localAttempts{windowEnd: now.Add(l.window)}
		l.local[key] = entry
	}

	entry.count++
	if entry.count < l.max {
		return AttemptStatus{Allowed: true, Remaining: l.max - entry.count}
	}

	return AttemptStatus{RetryAfter: time.Until(entry.windowEnd)}
}

func attemptKey(identifier string) string {
	return attemptKeyPrefix + strings.ToLower(identifier)
}
