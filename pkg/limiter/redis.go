package limiter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed sliding_window.lua
var slidingWindowSource string

// slidingWindowScript handles EVALSHA with a transparent EVAL fallback, so a
// Redis restart that clears the script cache does not break Take.
var slidingWindowScript = redis.NewScript(slidingWindowSource)

// RedisWindow is a sliding window shared through Redis. Entries live in a
// sorted set scored by epoch milliseconds; one Lua script prunes, inserts,
// counts and re-arms the key's expiry atomically, which makes the window
// safe across many application instances.
type RedisWindow struct {
	client  redis.Cmdable
	cfg     Config
	prefix  string
	timeout time.Duration
}

// NewRedisWindow creates a distributed window for one rule on top of a
// pre-configured client (redis.Client, ClusterClient, etc.). cfg must
// already be validated.
func NewRedisWindow(client redis.Cmdable, cfg Config, prefix string, timeout time.Duration) *RedisWindow {
	return &RedisWindow{
		client:  client,
		cfg:     cfg,
		prefix:  prefix,
		timeout: timeout,
	}
}

// Take implements Window against Redis. Connectivity and protocol errors are
// returned as-is for the caller to treat as a degradation signal; a
// violation is returned as *LimitExceededError.
func (w *RedisWindow) Take(ctx context.Context, key string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	now := time.Now()
	nowMs := now.UnixMilli()
	// identical-millisecond requests must not collapse into one set member
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	result, err := slidingWindowScript.Run(ctx, w.client,
		[]string{w.prefix + key},
		nowMs,                              // ARGV[1]
		w.cfg.Interval.Milliseconds(),      // ARGV[2]
		w.cfg.MaxRequests,                  // ARGV[3]
		w.cfg.BlockDuration.Milliseconds(), // ARGV[4]
		member,                             // ARGV[5]
	).Result()
	if err != nil {
		return Info{}, fmt.Errorf("sliding window script for key %s: %w", key, err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return Info{}, errors.New("invalid lua response format")
	}
	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)
	if ttlMs < 0 {
		ttlMs = w.cfg.Interval.Milliseconds()
	}
	expiry := time.Duration(ttlMs) * time.Millisecond

	if count > int64(w.cfg.MaxRequests) {
		return Info{}, &LimitExceededError{RetryAfter: expiry}
	}

	remaining := w.cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Remaining: remaining,
		Reset:     now.Add(expiry),
		Total:     w.cfg.MaxRequests,
	}, nil
}

// Close implements Window. It closes the underlying client when the window
// owns a closable one.
func (w *RedisWindow) Close() error {
	if c, ok := w.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
