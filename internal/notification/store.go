package notification

import (
	"context"
	"sort"
	"sync"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// Store is a Sink that can also be read back by recipients.
type Store interface {
	Sink
	ListByRecipient(ctx context.Context, recipientID id.UserID, unreadOnly bool, limit int) ([]*Record, error)
	// MarkRead returns sentinel.ErrNotFound when the notification does not
	// exist or belongs to someone else.
	MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) (*Record, error)
}

// InMemoryStore keeps notifications per recipient.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.UserID][]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.UserID][]*Record)}
}

func (s *InMemoryStore) Record(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := rec
	stored.Data = copyData(rec.Data)
	s.records[rec.RecipientID] = append(s.records[rec.RecipientID], &stored)
	return nil
}

func (s *InMemoryStore) ListByRecipient(_ context.Context, recipientID id.UserID, unreadOnly bool, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0)
	for _, rec := range s.records[recipientID] {
		if unreadOnly && rec.IsRead {
			continue
		}
		clone := *rec
		clone.Data = copyData(rec.Data)
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, recipientID id.UserID, notificationID id.NotificationID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[recipientID] {
		if rec.ID == notificationID {
			rec.IsRead = true
			clone := *rec
			clone.Data = copyData(rec.Data)
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func copyData(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
