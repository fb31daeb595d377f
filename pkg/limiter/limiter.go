package limiter

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultPrefix  = "ratelimit:"
	defaultTimeout = 2 * time.Second

	// RedisURLEnv names the environment variable holding the connection
	// string for the distributed window. Absence is not an error; it merely
	// disables the distributed path.
	RedisURLEnv = "REDIS_URL"

	// unknownIP is the sentinel used when a request carries no usable
	// client address header.
	unknownIP = "unknown"

	connectAttempts    = 3
	connectMaxInterval = 2 * time.Second
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

// Limiter enforces one sliding-window rule per (identifier, client IP) key.
//
// When Redis is reachable the shared window is authoritative; any Redis
// failure is absorbed and the same check is answered by a process-local
// window instead, so a store outage never blocks legitimate traffic.
type Limiter struct {
	cfg      Config
	prefix   string
	timeout  time.Duration
	recorder MetricsRecorder

	redisClient redis.Cmdable
	redisURL    string

	remote *RedisWindow // nil when the distributed path is disabled
	local  *MemoryWindow
}

// New builds a Limiter for one rule. It fails only on invalid configuration;
// Redis being absent or unreachable degrades to the in-memory window and is
// logged, never returned.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		cfg:      cfg,
		prefix:   defaultPrefix,
		timeout:  defaultTimeout,
		recorder: &NoOpMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.local = NewMemoryWindow(cfg)

	client := l.redisClient
	if client == nil {
		url := l.redisURL
		if url == "" {
			url = os.Getenv(RedisURLEnv)
		}
		if url == "" {
			log.Debug().Msg("no redis url configured, using in-memory window only")
			return l, nil
		}
		opt, err := redis.ParseURL(url)
		if err != nil {
			log.Error().Err(err).Msg("invalid redis url, using in-memory window only")
			return l, nil
		}
		client = redis.NewClient(opt)
	}

	if err := pingWithRetry(context.Background(), client, l.timeout); err != nil {
		// keep the window wired anyway; per-call errors fall back and the
		// distributed path recovers as soon as Redis does
		log.Error().Err(err).Msg("redis unreachable, starting on the in-memory window")
	}
	l.remote = NewRedisWindow(client, cfg, l.prefix, l.timeout)
	return l, nil
}

// pingWithRetry probes the connection with exponential backoff capped at
// connectMaxInterval, up to connectAttempts attempts.
func pingWithRetry(ctx context.Context, client redis.Cmdable, timeout time.Duration) error {
	eb := backoff.NewExponentialBackOff()
	eb.MaxInterval = connectMaxInterval
	op := func() error {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Ping(pctx).Err()
	}
	return backoff.Retry(op, backoff.WithMaxRetries(eb, connectAttempts-1))
}

// Check records one request for the rule named by identifier, keyed by the
// request's client IP. On success it returns the window state; when the key
// is saturated it returns *LimitExceededError carrying how long the caller
// must wait. Store connectivity problems never surface here.
func (l *Limiter) Check(r *http.Request, identifier string) (Info, error) {
	start := time.Now()
	key := identifier + ":" + ClientIP(r)

	info, backend, err := l.take(r.Context(), key)

	tags := map[string]string{"backend": backend, "allowed": strconv.FormatBool(err == nil)}
	l.recorder.Add("ratelimit.call", 1, tags)
	l.recorder.Observe("ratelimit.latency", time.Since(start).Seconds(), tags)
	return info, err
}

func (l *Limiter) take(ctx context.Context, key string) (Info, string, error) {
	if l.remote != nil {
		info, err := l.remote.Take(ctx, key)
		if err == nil || IsLimitExceeded(err) {
			return info, backendRedis, err
		}
		log.Warn().Err(err).Str("key", key).Msg("redis window unavailable, falling back to memory")
	}
	info, err := l.local.Take(ctx, key)
	return info, backendMemory, err
}

// Disconnect releases the Limiter's resources: the Redis connection if one
// was ever made, and the in-memory window's keys. Calling it again, or
// without a Redis connection, is a no-op.
func (l *Limiter) Disconnect() error {
	var err error
	if l.remote != nil {
		err = l.remote.Close()
		l.remote = nil
	}
	if l.local != nil {
		_ = l.local.Close()
	}
	return err
}

// ClientIP resolves the address a request should be keyed by: the first
// entry of X-Forwarded-For, then X-Real-IP, then the "unknown" sentinel.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return unknownIP
}
