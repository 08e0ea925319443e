package notification

import (
	"context"
	"errors"

	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/sentinel"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service is the read side of the notification store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, recipientID id.UserID, unreadOnly bool, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	records, err := s.store.ListByRecipient(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return records, nil
}

func (s *Service) MarkRead(ctx context.Context, recipientID id.UserID, notificationID id.NotificationID) (*Record, error) {
	rec, err := s.store.MarkRead(ctx, recipientID, notificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return rec, nil
}
