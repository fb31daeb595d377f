package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxStoreSize bounds the number of distinct keys the in-memory
// window retains before a cleanup sweep runs.
const DefaultMaxStoreSize = 10000

// Config describes one rate-limit rule. A Limiter is built once per rule
// and reused for every request that rule governs.
type Config struct {
	// Interval is the length of the sliding window.
	Interval time.Duration
	// MaxRequests is the number of requests allowed per key within one
	// Interval.
	MaxRequests int
	// BlockDuration, when positive, extends a violating key's expiry so the
	// caller stays blocked past the natural end of the window. Applied on
	// the distributed path only.
	BlockDuration time.Duration
	// MaxStoreSize caps the distinct keys held by the in-memory fallback.
	// Zero means DefaultMaxStoreSize.
	MaxStoreSize int
}

// Validate reports configuration errors and fills in defaults. New calls it
// so that a bad rule fails at construction, not on the first request.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive, got %d", c.MaxRequests)
	}
	if c.BlockDuration < 0 {
		return fmt.Errorf("block duration must not be negative, got %v", c.BlockDuration)
	}
	if c.MaxStoreSize < 0 {
		return fmt.Errorf("max store size must not be negative, got %d", c.MaxStoreSize)
	}
	if c.MaxStoreSize == 0 {
		c.MaxStoreSize = DefaultMaxStoreSize
	}
	return nil
}

// Info is the successful outcome of a check.
type Info struct {
	// Remaining is how many more requests the key may make in the current
	// window, never negative.
	Remaining int
	// Reset is the absolute time the window (or block) expires.
	Reset time.Time
	// Total echoes the configured MaxRequests.
	Total int
}

// LimitExceededError is the only error a Limiter raises deliberately.
// Store connectivity problems never surface here; they degrade to the
// in-memory window instead.
type LimitExceededError struct {
	// RetryAfter is how long the caller must wait before the next request
	// can succeed.
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// IsLimitExceeded reports whether err is a rate-limit violation.
func IsLimitExceeded(err error) bool {
	var lee *LimitExceededError
	return errors.As(err, &lee)
}

// Window counts requests for one key against a shared rule.
//
// Two implementations exist with the same Take API:
//
//   - MemoryWindow: an in-process window backed by a Go map. Correct within
//     a single process only.
//   - RedisWindow: a distributed window backed by Redis, enforcing one
//     global budget per key across replicas.
type Window interface {
	// Take records one request for key at the current time and returns the
	// window state after the insert. It returns *LimitExceededError when the
	// key is saturated.
	Take(ctx context.Context, key string) (Info, error)
	// Close releases the window's resources. Safe to call more than once.
	Close() error
}
