package identity

import (
	"context"
	"strings"
	"sync"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// Store persists accounts. Create returns sentinel.ErrAlreadyUsed when the
// username is taken; lookups return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, userID id.UserID) (*Account, error)
	SetPrivacy(ctx context.Context, userID id.UserID, private bool) (*Account, error)
}

// InMemoryStore is the single-process account store.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[id.UserID]*Account
	byUsername map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[id.UserID]*Account),
		byUsername: make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, account *Account) error {
	key := strings.ToLower(account.Username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, taken := s.byID[account.ID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	stored := *account
	s.byID[account.ID] = &stored
	s.byUsername[key] = account.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *account
	return &out, nil
}

func (s *InMemoryStore) SetPrivacy(_ context.Context, userID id.UserID, private bool) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	account.IsPrivate = private
	out := *account
	return &out, nil
}
