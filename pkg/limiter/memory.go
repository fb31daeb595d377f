package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MemoryWindow is an in-process sliding window backed by a Go map.
//
// It exists as the fallback path when Redis is unreachable, and as a
// dependency-free limiter for tests and single-instance deployments. State
// is local to the process, so it cannot enforce a global limit across
// replicas.
type MemoryWindow struct {
	cfg Config

	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryWindow creates an in-memory window for one rule. cfg must already
// be validated.
func NewMemoryWindow(cfg Config) *MemoryWindow {
	return &MemoryWindow{
		cfg:     cfg,
		entries: make(map[string][]time.Time),
	}
}

// Take implements Window against the process-local map.
func (m *MemoryWindow) Take(ctx context.Context, key string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-m.cfg.Interval)

	live := pruneBefore(m.entries[key], windowStart)

	if len(live) >= m.cfg.MaxRequests {
		m.entries[key] = live
		// the slot frees when the oldest live entry ages out
		retryAfter := live[0].Add(m.cfg.Interval).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		log.Debug().Str("key", key).Int("count", len(live)).Msg("memory window saturated")
		return Info{}, &LimitExceededError{RetryAfter: retryAfter}
	}

	live = append(live, now)
	m.entries[key] = live

	if len(m.entries) > m.cfg.MaxStoreSize {
		m.sweepLocked(windowStart)
	}

	remaining := m.cfg.MaxRequests - len(live)
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Remaining: remaining,
		Reset:     live[0].Add(m.cfg.Interval),
		Total:     m.cfg.MaxRequests,
	}, nil
}

// sweepLocked drops out-of-window entries for every key and removes keys
// left empty. Caller holds m.mu.
func (m *MemoryWindow) sweepLocked(windowStart time.Time) {
	before := len(m.entries)
	for key, ts := range m.entries {
		live := pruneBefore(ts, windowStart)
		if len(live) == 0 {
			delete(m.entries, key)
			continue
		}
		m.entries[key] = live
	}
	log.Debug().Int("before", before).Int("after", len(m.entries)).Msg("memory window swept")
}

// Close implements Window. It drops all tracked keys and may be called any
// number of times.
func (m *MemoryWindow) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]time.Time)
	return nil
}

// pruneBefore returns the entries at or after cutoff. Entries are stored in
// insertion order, which is time order, so a single scan finds the boundary.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]time.Time(nil), ts[i:]...)
}
