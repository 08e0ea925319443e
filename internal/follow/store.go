package follow

import (
	"context"
	"sort"
	"sync"
	"time"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// Store persists follow edges. The ordered-pair uniqueness constraint lives
// here: Create returns sentinel.ErrAlreadyUsed when an edge exists, and the
// caller reads the winner's status with Find.
type Store interface {
	Create(ctx context.Context, edge *Edge) error
	Find(ctx context.Context, followerID, followingID id.UserID) (*Edge, error)
	// Approve moves a pending edge to approved. sentinel.ErrNotFound when no
	// pending edge exists.
	Approve(ctx context.Context, followerID, followingID id.UserID, at time.Time) (*Edge, error)
	// DeletePending removes an edge only if it is still pending.
	DeletePending(ctx context.Context, followerID, followingID id.UserID) error
	// Delete removes an edge in any status and returns what was removed.
	Delete(ctx context.Context, followerID, followingID id.UserID) (*Edge, error)
	ListByFollowing(ctx context.Context, followingID id.UserID, status Status, limit int) ([]*Edge, error)
	ListByFollower(ctx context.Context, followerID id.UserID, status Status, limit int) ([]*Edge, error)
}

type edgeKey struct {
	follower  id.UserID
	following id.UserID
}

// InMemoryStore is a Store backed by a map under a single RWMutex. Each
// operation is one critical section, which gives the same atomicity as the
// unique index and conditional updates of the Postgres store.
type InMemoryStore struct {
	mu    sync.RWMutex
	edges map[edgeKey]*Edge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{edges: make(map[edgeKey]*Edge)}
}

func (s *InMemoryStore) Create(_ context.Context, edge *Edge) error {
	key := edgeKey{edge.FollowerID, edge.FollowingID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.edges[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	stored := *edge
	s.edges[key] = &stored
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, followerID, followingID id.UserID) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.edges[edgeKey{followerID, followingID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEdge(edge), nil
}

func (s *InMemoryStore) Approve(_ context.Context, followerID, followingID id.UserID, at time.Time) (*Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[edgeKey{followerID, followingID}]
	if !ok || edge.Status != StatusPending {
		return nil, sentinel.ErrNotFound
	}
	edge.Status = StatusApproved
	edge.ApprovedAt = &at
	return copyEdge(edge), nil
}

func (s *InMemoryStore) DeletePending(_ context.Context, followerID, followingID id.UserID) error {
	key := edgeKey{followerID, followingID}
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[key]
	if !ok || edge.Status != StatusPending {
		return sentinel.ErrNotFound
	}
	delete(s.edges, key)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, followerID, followingID id.UserID) (*Edge, error) {
	key := edgeKey{followerID, followingID}
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.edges, key)
	return edge, nil
}

func (s *InMemoryStore) ListByFollowing(_ context.Context, followingID id.UserID, status Status, limit int) ([]*Edge, error) {
	return s.list(func(e *Edge) bool { return e.FollowingID == followingID && e.Status == status }, limit), nil
}

func (s *InMemoryStore) ListByFollower(_ context.Context, followerID id.UserID, status Status, limit int) ([]*Edge, error) {
	return s.list(func(e *Edge) bool { return e.FollowerID == followerID && e.Status == status }, limit), nil
}

func (s *InMemoryStore) list(match func(*Edge) bool, limit int) []*Edge {
	s.mu.RLock()
	out := make([]*Edge, 0)
	for _, e := range s.edges {
		if match(e) {
			out = append(out, copyEdge(e))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyEdge(e *Edge) *Edge {
	out := *e
	if e.ApprovedAt != nil {
		at := *e.ApprovedAt
		out.ApprovedAt = &at
	}
	return &out
}
