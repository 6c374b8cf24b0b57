package goAccounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var errLimiterRedisUnavailable = errors.New("login limiter redis unavailable")

// loginLimiter enforces a fixed-window attempt cap on login, keyed by the
// submitted identifier and, when present in the context, the caller's IP.
type loginLimiter struct {
	redis  *redis.Client
	prefix string
	config ThrottleConfig
}

func newLoginLimiter(redisClient *redis.Client, prefix string, cfg ThrottleConfig) *loginLimiter {
	return &loginLimiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

func (l *loginLimiter) identifierKey(identifier string) string {
	return l.prefix + ":login:id:" + identifier
}

func (l *loginLimiter) ipKey(ip string) string {
	return l.prefix + ":login:ip:" + ip
}

// Enforce counts an attempt for the identifier+IP pair and fails with
// ErrLoginRateLimited when either counter exceeds the cap.
func (l *loginLimiter) Enforce(ctx context.Context, identifier, ip string) error {
	if l == nil || !l.config.EnableLoginThrottle {
		return nil
	}

	if err := l.enforceKey(ctx, l.identifierKey(identifier)); err != nil {
		return err
	}
	if ip != "" {
		if err := l.enforceKey(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

// Reset clears the counters after a successful login.
func (l *loginLimiter) Reset(ctx context.Context, identifier, ip string) error {
	if l == nil || !l.config.EnableLoginThrottle {
		return nil
	}

	keys := []string{l.identifierKey(identifier)}
	if ip != "" {
		keys = append(keys, l.ipKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", errLimiterRedisUnavailable, err)
	}

	return nil
}

func (l *loginLimiter) enforceKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errLimiterRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.LoginWindow).Err(); err != nil {
			return fmt.Errorf("%w: %v", errLimiterRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxLoginAttempts) {
		return ErrLoginRateLimited
	}

	return nil
}
