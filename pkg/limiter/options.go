package limiter

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Option customises a Limiter at construction.
type Option func(*Limiter)

// WithPrefix sets the Redis key prefix (default "ratelimit:").
func WithPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

// WithTimeout sets the per-call timeout for Redis operations (default 2s).
// A timeout is treated as a connectivity failure and triggers the in-memory
// fallback.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Limiter) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithRecorder injects a custom metrics backend.
func WithRecorder(recorder MetricsRecorder) Option {
	return func(l *Limiter) {
		if recorder != nil {
			l.recorder = recorder
		}
	}
}

// WithRedisClient supplies a pre-configured client (redis.Client,
// ClusterClient, etc.) instead of dialing the REDIS_URL environment
// variable. The Limiter takes ownership and closes it on Disconnect.
func WithRedisClient(client redis.Cmdable) Option {
	return func(l *Limiter) {
		l.redisClient = client
	}
}

// WithRedisURL overrides the connection string normally read from the
// REDIS_URL environment variable.
func WithRedisURL(url string) Option {
	return func(l *Limiter) {
		l.redisURL = url
	}
}
