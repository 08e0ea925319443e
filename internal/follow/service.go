// Package follow implements the follow graph state machine.
//
// An edge is created pending or approved depending on the target's privacy
// flag at request time, moves pending → approved at most once, and is
// deleted by unfollow or reject. Counter adjustments are issued only for
// transitions into or out of approved, which keeps followers/following
// counts equal to the number of approved edges whenever the ledger does not
// fail.
package follow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"bridges/internal/counter"
	"bridges/internal/notification"
	"bridges/internal/realtime"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/sentinel"
	"bridges/pkg/requestcontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var tracer = otel.Tracer("bridges/internal/follow")

// PrivacyLookup reads the target's current privacy flag.
type PrivacyLookup interface {
	IsPrivate(ctx context.Context, userID id.UserID) (bool, error)
}

// CounterRecorder applies counter deltas best-effort.
type CounterRecorder interface {
	Record(ctx context.Context, e counter.Event)
}

// Dispatcher pushes a real-time event to every live session of recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient id.UserID, eventType string, payload any) int
}

// Notifier writes durable notifications best-effort.
type Notifier interface {
	Notify(ctx context.Context, rec notification.Record)
}

// Service is the follow graph.
type Service struct {
	store    Store
	privacy  PrivacyLookup
	ledger   CounterRecorder
	events   Dispatcher
	notifier Notifier
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDispatcher enables new-follow real-time events.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		s.events = d
	}
}

// WithNotifier enables durable follow notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(store Store, privacy PrivacyLookup, ledger CounterRecorder, opts ...Option) *Service {
	s := &Service{
		store:   store,
		privacy: privacy,
		ledger:  ledger,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestFollow creates an edge actor → target, pending when the target is
// private and approved otherwise. An existing edge yields *ConflictError
// carrying its status.
func (s *Service) RequestFollow(ctx context.Context, actorID, targetID id.UserID) (*Edge, error) {
	ctx, span := tracer.Start(ctx, "follow.RequestFollow")
	defer span.End()

	if actorID == targetID {
		return nil, dErrors.New(dErrors.CodeSelfReference, "cannot follow yourself")
	}

	private, err := s.privacy.IsPrivate(ctx, targetID)
	if err != nil {
		return nil, err
	}

	now := timestamp(ctx)
	edge := &Edge{
		FollowerID:  actorID,
		FollowingID: targetID,
		Status:      StatusApproved,
		CreatedAt:   now,
		ApprovedAt:  &now,
	}
	if private {
		edge.Status = StatusPending
		edge.ApprovedAt = nil
	}
	span.SetAttributes(attribute.String("status", string(edge.Status)))

	if err := s.store.Create(ctx, edge); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, s.conflict(ctx, actorID, targetID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create follow edge")
	}

	if edge.Status == StatusApproved {
		s.ledger.Record(ctx, counter.FollowApproved(actorID, targetID))
	}
	s.recordTransition("request", edge.Status)

	s.dispatch(ctx, targetID, realtime.NewFollowPayload{ActorID: actorID, Status: string(edge.Status)})
	notificationType, title := notification.TypeFollow, "New follower"
	if edge.Status == StatusPending {
		notificationType, title = notification.TypeFollowRequest, "New follow request"
	}
	s.notify(ctx, notification.Record{
		RecipientID: targetID,
		SenderID:    actorID,
		Type:        notificationType,
		Title:       title,
		Data:        map[string]string{"actorId": actorID.String(), "status": string(edge.Status)},
	})

	return edge, nil
}

// conflict reads the status of the edge that won the uniqueness race.
func (s *Service) conflict(ctx context.Context, actorID, targetID id.UserID) error {
	if s.metrics != nil {
		s.metrics.IncrementConflicts()
	}
	existing, err := s.store.Find(ctx, actorID, targetID)
	if err != nil {
		// The winning edge was removed between our insert and this read.
		return dErrors.New(dErrors.CodeConflict, "follow edge changed concurrently")
	}
	return &ConflictError{Status: existing.Status}
}

// Approve moves the pending edge requester → target to approved. Only the
// target may approve, so the caller passes its own identity as targetID.
func (s *Service) Approve(ctx context.Context, targetID, requesterID id.UserID) (*Edge, error) {
	ctx, span := tracer.Start(ctx, "follow.Approve")
	defer span.End()

	edge, err := s.store.Approve(ctx, requesterID, targetID, timestamp(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no pending follow request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve follow request")
	}

	s.ledger.Record(ctx, counter.FollowApproved(requesterID, targetID))
	s.recordTransition("approve", StatusApproved)

	s.dispatch(ctx, requesterID, realtime.NewFollowPayload{ActorID: targetID, Status: string(StatusApproved)})
	s.notify(ctx, notification.Record{
		RecipientID: requesterID,
		SenderID:    targetID,
		Type:        notification.TypeFollowAccepted,
		Title:       "Follow request accepted",
		Data:        map[string]string{"actorId": targetID.String()},
	})
	return edge, nil
}

// Reject deletes the pending edge requester → target. No counters move
// because none were applied.
func (s *Service) Reject(ctx context.Context, targetID, requesterID id.UserID) error {
	ctx, span := tracer.Start(ctx, "follow.Reject")
	defer span.End()

	if err := s.store.DeletePending(ctx, requesterID, targetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no pending follow request")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject follow request")
	}
	s.recordTransition("reject", StatusPending)
	return nil
}

// Unfollow deletes the edge actor → target in any status and reverses the
// counters only if it had been approved.
func (s *Service) Unfollow(ctx context.Context, actorID, targetID id.UserID) error {
	ctx, span := tracer.Start(ctx, "follow.Unfollow")
	defer span.End()

	removed, err := s.store.Delete(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "not following")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unfollow")
	}

	if removed.IsApproved() {
		s.ledger.Record(ctx, counter.FollowRemoved(actorID, targetID))
	}
	s.recordTransition("unfollow", removed.Status)
	return nil
}

// Status reports the viewer's edge to target.
func (s *Service) Status(ctx context.Context, viewerID, targetID id.UserID) (FollowStatus, error) {
	status, err := s.EdgeStatus(ctx, viewerID, targetID)
	if err != nil {
		return FollowStatus{}, err
	}
	return FollowStatus{
		IsFollowing: status != nil && *status == StatusApproved,
		Status:      status,
	}, nil
}

// EdgeStatus returns the status of follower → following, nil when no edge
// exists.
func (s *Service) EdgeStatus(ctx context.Context, followerID, followingID id.UserID) (*Status, error) {
	edge, err := s.store.Find(ctx, followerID, followingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load follow edge")
	}
	return StatusOf(edge), nil
}

// ListFollowers returns approved edges into userID, newest first.
func (s *Service) ListFollowers(ctx context.Context, userID id.UserID, limit int) ([]*Edge, error) {
	edges, err := s.store.ListByFollowing(ctx, userID, StatusApproved, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list followers")
	}
	return edges, nil
}

// ListFollowing returns approved edges out of userID, newest first.
func (s *Service) ListFollowing(ctx context.Context, userID id.UserID, limit int) ([]*Edge, error) {
	edges, err := s.store.ListByFollower(ctx, userID, StatusApproved, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list following")
	}
	return edges, nil
}

// ListPendingRequests returns pending edges awaiting targetID's decision.
func (s *Service) ListPendingRequests(ctx context.Context, targetID id.UserID, limit int) ([]*Edge, error) {
	edges, err := s.store.ListByFollowing(ctx, targetID, StatusPending, clampLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list follow requests")
	}
	return edges, nil
}

func (s *Service) dispatch(ctx context.Context, recipient id.UserID, payload realtime.NewFollowPayload) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(ctx, recipient, realtime.EventNewFollow, payload)
}

func (s *Service) notify(ctx context.Context, rec notification.Record) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, rec)
}

func (s *Service) recordTransition(action string, status Status) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(action, status)
	}
}

func timestamp(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
