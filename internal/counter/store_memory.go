package counter

import (
	"context"
	"sync"
	"sync/atomic"
)

type counterKey struct {
	target Target
	field  Field
}

// InMemoryStore keeps counters as atomics. The map lock only guards
// insertion of new keys; increments on existing counters never block each
// other.
type InMemoryStore struct {
	mu       sync.RWMutex
	counters map[counterKey]*atomic.Int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: make(map[counterKey]*atomic.Int64)}
}

func (s *InMemoryStore) Increment(_ context.Context, target Target, field Field, amount int64) (int64, error) {
	return s.counter(counterKey{target: target, field: field}).Add(amount), nil
}

func (s *InMemoryStore) Counts(_ context.Context, target Target) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Counts{}
	for k, v := range s.counters {
		if k.target == target {
			out[k.field] = v.Load()
		}
	}
	return out, nil
}

func (s *InMemoryStore) counter(key counterKey) *atomic.Int64 {
	s.mu.RLock()
	c, ok := s.counters[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return c
	}
	c = new(atomic.Int64)
	s.counters[key] = c
	return c
}
