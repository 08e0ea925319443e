package engagement

import (
	"context"
	"sort"
	"sync"

	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
)

// Store persists likes and comments. Uniqueness of likes is enforced here:
// CreateLike returns sentinel.ErrAlreadyUsed for an existing pair.
type Store interface {
	CreateLike(ctx context.Context, like *Like) error
	DeleteLike(ctx context.Context, userID id.UserID, contentID id.ContentID) error
	HasLiked(ctx context.Context, userID id.UserID, contentID id.ContentID) (bool, error)

	CreateComment(ctx context.Context, c *Comment) error
	FindComment(ctx context.Context, commentID id.CommentID) (*Comment, error)
	// DeleteComment removes the comment and every reply beneath it, and
	// returns all removed rows.
	DeleteComment(ctx context.Context, commentID id.CommentID) ([]*Comment, error)
	ListComments(ctx context.Context, contentID id.ContentID, limit int) ([]*Comment, error)
}

type likeKey struct {
	user    id.UserID
	content id.ContentID
}

type InMemoryStore struct {
	mu       sync.RWMutex
	likes    map[likeKey]*Like
	comments map[id.CommentID]*Comment
	// seq breaks ties between comments created in the same microsecond.
	seq  map[id.CommentID]uint64
	next uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		likes:    make(map[likeKey]*Like),
		comments: make(map[id.CommentID]*Comment),
		seq:      make(map[id.CommentID]uint64),
	}
}

func (s *InMemoryStore) CreateLike(_ context.Context, like *Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{like.UserID, like.ContentID}
	if _, ok := s.likes[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	clone := *like
	s.likes[key] = &clone
	return nil
}

func (s *InMemoryStore) DeleteLike(_ context.Context, userID id.UserID, contentID id.ContentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{userID, contentID}
	if _, ok := s.likes[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.likes, key)
	return nil
}

func (s *InMemoryStore) HasLiked(_ context.Context, userID id.UserID, contentID id.ContentID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{userID, contentID}]
	return ok, nil
}

func (s *InMemoryStore) CreateComment(_ context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ParentID != nil {
		if _, ok := s.comments[*c.ParentID]; !ok {
			return sentinel.ErrNotFound
		}
	}
	s.comments[c.ID] = cloneComment(c)
	s.next++
	s.seq[c.ID] = s.next
	return nil
}

func (s *InMemoryStore) FindComment(_ context.Context, commentID id.CommentID) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneComment(c), nil
}

func (s *InMemoryStore) DeleteComment(_ context.Context, commentID id.CommentID) ([]*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.comments[commentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	removed := []*Comment{root}
	for i := 0; i < len(removed); i++ {
		for _, c := range s.comments {
			if c.ParentID != nil && *c.ParentID == removed[i].ID {
				removed = append(removed, c)
			}
		}
	}
	out := make([]*Comment, 0, len(removed))
	for _, c := range removed {
		delete(s.comments, c.ID)
		delete(s.seq, c.ID)
		out = append(out, cloneComment(c))
	}
	return out, nil
}

// PurgeContent drops every like and comment on contentID once the bridge
// itself is gone.
func (s *InMemoryStore) PurgeContent(contentID id.ContentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.likes {
		if key.content == contentID {
			delete(s.likes, key)
		}
	}
	for commentID, c := range s.comments {
		if c.ContentID == contentID {
			delete(s.comments, commentID)
			delete(s.seq, commentID)
		}
	}
}

func (s *InMemoryStore) ListComments(_ context.Context, contentID id.ContentID, limit int) ([]*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Comment, 0)
	for _, c := range s.comments {
		if c.ContentID == contentID {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneComment(c *Comment) *Comment {
	clone := *c
	if c.ParentID != nil {
		parent := *c.ParentID
		clone.ParentID = &parent
	}
	return &clone
}
