package window

import (
	"context"
	"sync"
	"time"

	"termyx/pkg/requestcontext"
)

// InMemoryStore keeps fixed-window counters in process memory. Counts are
// per instance; use RedisStore when several instances share limits.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*counter
}

type counter struct {
	count   int
	resetAt time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{windows: make(map[string]*counter)}
}

// Hit counts one request against key. A missing or expired window is
// replaced by a fresh one with count 1.
func (s *InMemoryStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.windows[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.windows[key] = c
	}
	c.count++
	return c.count, c.resetAt, nil
}

// Sweep drops windows whose reset time is at or before now and returns how many were removed.
func (s *InMemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.windows {
		if !now.Before(c.resetAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of live windows.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
