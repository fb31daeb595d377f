package limiter

import (
	"testing"
	"time"
)

// MockRecorder captures metrics in memory for assertion
type MockRecorder struct {
	Counters map[string]float64
	Timings  map[string][]float64
	Tags     map[string]map[string]string
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		Counters: make(map[string]float64),
		Timings:  make(map[string][]float64),
		Tags:     make(map[string]map[string]string),
	}
}

func (m *MockRecorder) Add(name string, value float64, tags map[string]string) {
	m.Counters[name] += value
	m.Tags[name] = tags
}

func (m *MockRecorder) Observe(name string, value float64, tags map[string]string) {
	m.Timings[name] = append(m.Timings[name], value)
}

func TestLimiter_Metrics(t *testing.T) {
	mock := NewMockRecorder()
	l := newMemoryOnlyLimiter(t,
		Config{Interval: time.Minute, MaxRequests: 1},
		WithRecorder(mock),
	)
	defer l.Disconnect()

	if _, err := l.Check(requestFromIP("1.2.3.4"), "extract"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if val := mock.Counters["ratelimit.call"]; val != 1 {
		t.Errorf("expected 'ratelimit.call' counter to be 1, got %v", val)
	}
	if timings := mock.Timings["ratelimit.latency"]; len(timings) != 1 {
		t.Error("expected 1 latency observation")
	} else if timings[0] < 0 {
		t.Errorf("expected non-negative latency, got %v", timings[0])
	}
	if tags := mock.Tags["ratelimit.call"]; tags["backend"] != "memory" || tags["allowed"] != "true" {
		t.Errorf("unexpected tags on allowed check: %v", tags)
	}

	// a denied check is still counted, tagged as disallowed
	if _, err := l.Check(requestFromIP("1.2.3.4"), "extract"); !IsLimitExceeded(err) {
		t.Fatalf("expected denial, got %v", err)
	}
	if val := mock.Counters["ratelimit.call"]; val != 2 {
		t.Errorf("expected 'ratelimit.call' counter to be 2, got %v", val)
	}
	if tags := mock.Tags["ratelimit.call"]; tags["allowed"] != "false" {
		t.Errorf("unexpected tags on denied check: %v", tags)
	}
}
