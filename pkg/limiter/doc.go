// Package limiter provides local and distributed rate limiting based on a
// sliding window.
//
// The primary entry point is the Limiter:
//
//	info, err := l.Check(r, "extract")
//
// The returned Info contains how many requests remain in the current window
// and timing hints for callers that want to set rate-limit headers (for
// example, Retry-After).
//
// # Overview
//
// This package implements a sliding window:
//
//   - Each key accumulates one timestamped entry per request.
//   - Only entries within the trailing Interval of "now" count; older
//     entries are purged lazily on the next check for that key.
//   - A check is denied once the live count reaches MaxRequests.
//
// Unlike fixed calendar buckets, a sliding window cannot be gamed by
// bursting at a bucket boundary: the trailing Interval always holds at most
// MaxRequests entries.
//
// # Core Types
//
// Config defines the policy, fixed at construction:
//
//   - Interval: the window length (for example, one minute)
//   - MaxRequests: requests allowed per key within one Interval
//   - BlockDuration: optional expiry extension applied to violating keys
//   - MaxStoreSize: cap on distinct keys held by the in-memory fallback
//
// The key defines "who" is being rate-limited. It is the combination of:
//
//   - Identifier: the rule being enforced (for example, "extract")
//   - Client IP: resolved from X-Forwarded-For or X-Real-IP, with an
//     "unknown" sentinel when neither is present
//
// # Backends
//
// The package provides two implementations of the Window interface:
//
//   - MemoryWindow: an in-process window backed by a Go map. This is useful
//     for unit tests, local development, and single-instance deployments.
//     Because its state is local to the process, it does not enforce a
//     global limit across multiple replicas.
//
//   - RedisWindow: a distributed window backed by Redis. It uses a Lua
//     script to perform the prune/insert/count/expire cycle atomically,
//     which makes it safe to use across many application instances while
//     enforcing a single global budget per key.
//
// Limiter composes the two: RedisWindow is used whenever REDIS_URL is set
// and the store answers, and every Redis failure is absorbed by re-running
// the same check against the MemoryWindow. A store outage therefore never
// blocks traffic; it only narrows enforcement to per-process.
//
// # Concurrency
//
// MemoryWindow is safe for concurrent use by multiple goroutines (a mutex
// guards the map, so the live count can never overshoot MaxRequests under
// parallel checks). RedisWindow delegates concurrency safety to Redis: the
// whole check runs as one script invocation, leaving no client-side
// read-modify-write gap between racing instances.
//
// # Error Policy
//
// Check raises exactly one deliberate error, *LimitExceededError, carrying
// the RetryAfter a caller should wait. Everything else — an unreachable
// store, a timed-out call, a script failure — is logged and answered by the
// fallback window, never surfaced. Invalid configuration fails at New, not
// at first use.
//
// # Result Semantics
//
// Info fields are intended to be directly consumable by application code:
//
//   - Remaining is the number of requests left in the window after this one,
//     floored at zero.
//   - Reset is the absolute time the window (or, on the distributed path, a
//     block) expires.
//   - Total echoes MaxRequests.
//
// On denial, RetryAfter is the key's remaining expiry on the distributed
// path, and the time until the oldest live entry ages out on the fallback
// path.
//
// # Storage Details
//
// MemoryWindow stores entries in a process-local map keyed by:
//
//	"{identifier}:{client_ip}"
//
// Once the map holds more than MaxStoreSize distinct keys, the next check
// sweeps it: every key drops its out-of-window entries and keys left empty
// are removed. Eviction only under-counts (an evicted key restarts its
// window from empty), so MaxStoreSize is a memory bound, not a correctness
// boundary.
//
// RedisWindow stores entries in a sorted set under keys prefixed with
// "ratelimit:", scored by epoch milliseconds, with a random suffix per
// member so identical-millisecond requests stay distinct. Keys expire after
// Interval (or BlockDuration while violating) to avoid leaking memory for
// keys that stop sending requests.
//
// # Configuration
//
// Limiter is configured using the Functional Options pattern:
//
//	l, _ := limiter.New(cfg,
//		limiter.WithPrefix("myapp:rate:"),
//		limiter.WithTimeout(500*time.Millisecond),
//		limiter.WithRecorder(myMetrics),
//	)
//
// Supported options:
//
//   - WithPrefix(string): Sets the Redis key prefix (default "ratelimit:").
//   - WithTimeout(time.Duration): Sets the per-call timeout for Redis
//     operations (default 2s); a timeout falls back to the memory window.
//   - WithRecorder(MetricsRecorder): Injects a custom metrics backend.
//   - WithRedisClient(redis.Cmdable): Supplies a pre-built client instead of
//     dialing REDIS_URL.
//   - WithRedisURL(string): Overrides the REDIS_URL environment variable.
package limiter
