package messaging

import (
	"context"
	"sort"
	"sync"

	id "bridges/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, m *Message) error
	// ListConversation returns the most recent limit messages between a and
	// b, oldest first.
	ListConversation(ctx context.Context, a, b id.UserID, limit int) ([]*Message, error)
}

type pairKey struct {
	lo, hi string
}

func keyFor(a, b id.UserID) pairKey {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return pairKey{lo, hi}
}

type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[pairKey][]*Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[pairKey][]*Message)}
}

func (s *InMemoryStore) Create(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *m
	key := keyFor(m.SenderID, m.RecipientID)
	s.conversations[key] = append(s.conversations[key], &clone)
	return nil
}

func (s *InMemoryStore) ListConversation(_ context.Context, a, b id.UserID, limit int) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.conversations[keyFor(a, b)]
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		clone := *m
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
