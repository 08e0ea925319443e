package bridge

import (
	"context"
	"sort"
	"sync"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// Store persists bridges. Lookups of missing rows return
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, b *Bridge) error
	FindByID(ctx context.Context, contentID id.ContentID) (*Bridge, error)
	Delete(ctx context.Context, contentID id.ContentID) error
	ListByOwner(ctx context.Context, ownerID id.UserID, limit int) ([]*Bridge, error)
}

// ContentPurger drops rows that reference a deleted bridge.
type ContentPurger interface {
	PurgeContent(contentID id.ContentID)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	bridges map[id.ContentID]*Bridge
	purgers []ContentPurger
}

// NewInMemoryStore runs purgers after every Delete, the in-memory
// counterpart of the ON DELETE CASCADE foreign keys in Postgres.
func NewInMemoryStore(purgers ...ContentPurger) *InMemoryStore {
	return &InMemoryStore{bridges: make(map[id.ContentID]*Bridge), purgers: purgers}
}

func (s *InMemoryStore) Create(_ context.Context, b *Bridge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bridges[b.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	clone := *b
	s.bridges[b.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, contentID id.ContentID) (*Bridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bridges[contentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *InMemoryStore) Delete(_ context.Context, contentID id.ContentID) error {
	s.mu.Lock()
	if _, ok := s.bridges[contentID]; !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	delete(s.bridges, contentID)
	s.mu.Unlock()

	for _, p := range s.purgers {
		p.PurgeContent(contentID)
	}
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID, limit int) ([]*Bridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Bridge, 0)
	for _, b := range s.bridges {
		if b.OwnerID == ownerID {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
