// Package engagement implements likes and threaded comments on bridges.
//
// Every logical state change issues exactly one counter event: a toggle that
// lost a race to a concurrent toggle by the same user reports the final
// state without touching the ledger, since the winning call already did.
package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"bridges/internal/bridge"
	"bridges/internal/counter"
	"bridges/internal/notification"
	"bridges/internal/realtime"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/sentinel"
	"bridges/pkg/requestcontext"
)

const (
	maxCommentRunes  = 2000
	defaultListLimit = 100
	maxListLimit     = 500

	countLookupConcurrency = 8
)

var tracer = otel.Tracer("bridges/internal/engagement")

// ContentReader resolves bridges. Get applies visibility for viewer;
// Lookup does not.
type ContentReader interface {
	Get(ctx context.Context, viewer *id.UserID, contentID id.ContentID) (*bridge.Bridge, error)
	Lookup(ctx context.Context, contentID id.ContentID) (*bridge.Bridge, error)
}

// Ledger records engagement events and reads reply counters.
type Ledger interface {
	Record(ctx context.Context, e counter.Event)
	Counts(ctx context.Context, target counter.Target) (counter.Counts, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, recipient id.UserID, eventType string, payload any) int
}

type Notifier interface {
	Notify(ctx context.Context, rec notification.Record)
}

type Service struct {
	store    Store
	content  ContentReader
	ledger   Ledger
	events   Dispatcher
	notifier Notifier
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

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

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		s.events = d
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(store Store, content ContentReader, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		content: content,
		ledger:  ledger,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToggleLike likes the bridge if the actor has not, and unlikes it
// otherwise. It reports the resulting state.
func (s *Service) ToggleLike(ctx context.Context, actorID id.UserID, contentID id.ContentID) (bool, error) {
	ctx, span := tracer.Start(ctx, "engagement.ToggleLike")
	defer span.End()

	b, err := s.content.Get(ctx, &actorID, contentID)
	if err != nil {
		return false, err
	}

	err = s.store.CreateLike(ctx, &Like{UserID: actorID, ContentID: contentID, CreatedAt: s.timestamp()})
	switch {
	case err == nil:
		s.liked(ctx, actorID, b)
		span.SetAttributes(attribute.Bool("liked", true))
		return true, nil
	case errors.Is(err, sentinel.ErrAlreadyUsed):
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to like bridge")
	}

	if err := s.store.DeleteLike(ctx, actorID, contentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// A concurrent toggle removed it first and recorded the event.
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlike bridge")
	}
	s.unliked(ctx, contentID)
	span.SetAttributes(attribute.Bool("liked", false))
	return false, nil
}

// Like fails with CodeConflict when the like already exists.
func (s *Service) Like(ctx context.Context, actorID id.UserID, contentID id.ContentID) error {
	ctx, span := tracer.Start(ctx, "engagement.Like")
	defer span.End()

	b, err := s.content.Get(ctx, &actorID, contentID)
	if err != nil {
		return err
	}
	if err := s.store.CreateLike(ctx, &Like{UserID: actorID, ContentID: contentID, CreatedAt: s.timestamp()}); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "already liked")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to like bridge")
	}
	s.liked(ctx, actorID, b)
	return nil
}

// Unlike fails with CodeNotFound when there is no like to remove.
func (s *Service) Unlike(ctx context.Context, actorID id.UserID, contentID id.ContentID) error {
	ctx, span := tracer.Start(ctx, "engagement.Unlike")
	defer span.End()

	if err := s.store.DeleteLike(ctx, actorID, contentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "not liked")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlike bridge")
	}
	s.unliked(ctx, contentID)
	return nil
}

func (s *Service) HasLiked(ctx context.Context, actorID id.UserID, contentID id.ContentID) (bool, error) {
	liked, err := s.store.HasLiked(ctx, actorID, contentID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check like")
	}
	return liked, nil
}

func (s *Service) liked(ctx context.Context, actorID id.UserID, b *bridge.Bridge) {
	s.ledger.Record(ctx, counter.LikeCreated(b.ID))
	s.recordLike("like")
	if b.OwnerID == actorID {
		return
	}
	s.dispatch(ctx, b.OwnerID, realtime.EventNewLike, realtime.NewLikePayload{ContentID: b.ID, ActorID: actorID})
	s.notify(ctx, notification.Record{
		RecipientID: b.OwnerID,
		SenderID:    actorID,
		Type:        notification.TypeLike,
		Title:       "New like",
		Data:        map[string]string{"contentId": b.ID.String(), "actorId": actorID.String()},
	})
}

func (s *Service) unliked(ctx context.Context, contentID id.ContentID) {
	s.ledger.Record(ctx, counter.LikeRemoved(contentID))
	s.recordLike("unlike")
}

// AddComment comments on a bridge, or replies to parentID which must belong
// to the same bridge.
func (s *Service) AddComment(ctx context.Context, actorID id.UserID, contentID id.ContentID, body string, parentID *id.CommentID) (*Comment, error) {
	ctx, span := tracer.Start(ctx, "engagement.AddComment")
	defer span.End()

	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > maxCommentRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "comment must be between 1 and 2000 characters")
	}
	b, err := s.content.Get(ctx, &actorID, contentID)
	if err != nil {
		return nil, err
	}

	var parent *Comment
	if parentID != nil {
		parent, err = s.store.FindComment(ctx, *parentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "parent comment not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parent comment")
		}
		if parent.ContentID != contentID {
			return nil, dErrors.New(dErrors.CodeValidation, "parent comment belongs to a different bridge")
		}
	}

	c := &Comment{
		ID:        id.NewCommentID(),
		ContentID: contentID,
		ActorID:   actorID,
		ParentID:  parentID,
		Body:      body,
		CreatedAt: s.timestamp(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "parent comment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create comment")
	}
	s.ledger.Record(ctx, counter.CommentCreated(contentID, parentID))
	s.recordComments("create", 1)

	payload := realtime.NewCommentPayload{ContentID: contentID, CommentID: c.ID, ActorID: actorID}
	data := map[string]string{"contentId": contentID.String(), "commentId": c.ID.String(), "actorId": actorID.String()}
	if b.OwnerID != actorID {
		s.dispatch(ctx, b.OwnerID, realtime.EventNewComment, payload)
		s.notify(ctx, notification.Record{
			RecipientID: b.OwnerID,
			SenderID:    actorID,
			Type:        notification.TypeComment,
			Title:       "New comment",
			Body:        c.Body,
			Data:        data,
		})
	}
	if parent != nil && parent.ActorID != actorID && parent.ActorID != b.OwnerID {
		s.dispatch(ctx, parent.ActorID, realtime.EventNewComment, payload)
		s.notify(ctx, notification.Record{
			RecipientID: parent.ActorID,
			SenderID:    actorID,
			Type:        notification.TypeReply,
			Title:       "New reply",
			Body:        c.Body,
			Data:        data,
		})
	}
	return c, nil
}

// DeleteComment removes a comment and its replies. The comment author and
// the bridge owner may delete it.
func (s *Service) DeleteComment(ctx context.Context, actorID id.UserID, commentID id.CommentID) error {
	ctx, span := tracer.Start(ctx, "engagement.DeleteComment")
	defer span.End()

	c, err := s.store.FindComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load comment")
	}
	if c.ActorID != actorID {
		b, err := s.content.Lookup(ctx, c.ContentID)
		if err != nil {
			return err
		}
		if b.OwnerID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "only the author or the bridge owner can delete this comment")
		}
	}

	removed, err := s.store.DeleteComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete comment")
	}
	for _, r := range removed {
		s.ledger.Record(ctx, counter.CommentRemoved(r.ContentID, r.ParentID))
	}
	s.recordComments("delete", len(removed))
	span.SetAttributes(attribute.Int("removed", len(removed)))
	return nil
}

// ListComments returns the bridge's comments oldest first with reply
// counts, when viewer may see the bridge.
func (s *Service) ListComments(ctx context.Context, viewer *id.UserID, contentID id.ContentID, limit int) ([]*Comment, error) {
	if _, err := s.content.Get(ctx, viewer, contentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	comments, err := s.store.ListComments(ctx, contentID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	s.fillReplyCounts(ctx, comments)
	return comments, nil
}

// fillReplyCounts reads reply counters concurrently. A failed read leaves
// the count at zero.
func (s *Service) fillReplyCounts(ctx context.Context, comments []*Comment) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countLookupConcurrency)
	for _, c := range comments {
		g.Go(func() error {
			counts, err := s.ledger.Counts(gctx, counter.CommentTarget(c.ID))
			if err != nil {
				s.logger.WarnContext(ctx, "failed to read reply counter",
					"request_id", requestcontext.RequestID(ctx),
					"comment_id", c.ID.String(),
					"error", err,
				)
				return nil
			}
			c.ReplyCount = counts[counter.FieldReplies]
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) dispatch(ctx context.Context, recipient id.UserID, eventType string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(ctx, recipient, eventType, payload)
}

func (s *Service) notify(ctx context.Context, rec notification.Record) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, rec)
}

func (s *Service) recordLike(action string) {
	if s.metrics != nil {
		s.metrics.IncrementLikes(action)
	}
}

func (s *Service) recordComments(action string, n int) {
	if s.metrics != nil {
		s.metrics.AddComments(action, n)
	}
}
