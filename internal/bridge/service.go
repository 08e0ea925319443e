// Package bridge stores posts and enforces who may read or remove them.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"

	"bridges/internal/counter"
	"bridges/internal/visibility"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/sentinel"
	"bridges/pkg/requestcontext"
)

const (
	maxBodyRunes     = 2000
	defaultListLimit = 20
	maxListLimit     = 100
)

var tracer = otel.Tracer("bridges/internal/bridge")

// Authorizer applies the visibility rules to one item.
type Authorizer interface {
	Authorize(ctx context.Context, viewer *id.UserID, content visibility.Content) error
}

// Ledger records content lifecycle events and reads counters back.
type Ledger interface {
	Record(ctx context.Context, e counter.Event)
	Counts(ctx context.Context, target counter.Target) (counter.Counts, error)
}

type Service struct {
	store  Store
	guard  Authorizer
	ledger Ledger
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, guard Authorizer, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		guard:  guard,
		ledger: ledger,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, ownerID id.UserID, body, level string) (*Bridge, error) {
	ctx, span := tracer.Start(ctx, "bridge.Create")
	defer span.End()

	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > maxBodyRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "body must be between 1 and 2000 characters")
	}
	vis, err := visibility.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		ID:         id.NewContentID(),
		OwnerID:    ownerID,
		Body:       body,
		Visibility: vis,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create bridge")
	}
	s.ledger.Record(ctx, counter.ContentCreated(ownerID))

	s.logger.InfoContext(ctx, "bridge created",
		"request_id", requestcontext.RequestID(ctx),
		"bridge_id", b.ID.String(),
		"visibility", string(vis),
	)
	return b, nil
}

// Get returns the bridge with its counters when viewer may see it. A nil
// viewer is an anonymous request.
func (s *Service) Get(ctx context.Context, viewer *id.UserID, contentID id.ContentID) (*Bridge, error) {
	ctx, span := tracer.Start(ctx, "bridge.Get")
	defer span.End()

	b, err := s.Lookup(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, viewer, b.Content()); err != nil {
		return nil, err
	}
	s.fillCounts(ctx, b)
	return b, nil
}

// Lookup loads a bridge without applying visibility rules.
func (s *Service) Lookup(ctx context.Context, contentID id.ContentID) (*Bridge, error) {
	b, err := s.store.FindByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "bridge not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bridge")
	}
	return b, nil
}

// ListByOwner returns the owner's bridges that viewer may see, newest first.
func (s *Service) ListByOwner(ctx context.Context, viewer *id.UserID, ownerID id.UserID, limit int) ([]*Bridge, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	all, err := s.store.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bridges")
	}
	out := make([]*Bridge, 0, len(all))
	for _, b := range all {
		if err := s.guard.Authorize(ctx, viewer, b.Content()); err != nil {
			if dErrors.Is(err, dErrors.CodeForbidden) {
				continue
			}
			return nil, err
		}
		s.fillCounts(ctx, b)
		out = append(out, b)
	}
	return out, nil
}

// Delete removes a bridge. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, actorID id.UserID, contentID id.ContentID) error {
	ctx, span := tracer.Start(ctx, "bridge.Delete")
	defer span.End()

	b, err := s.Lookup(ctx, contentID)
	if err != nil {
		return err
	}
	if b.OwnerID != actorID {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can delete this bridge")
	}
	if err := s.store.Delete(ctx, contentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "bridge not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete bridge")
	}
	s.ledger.Record(ctx, counter.ContentRemoved(actorID))
	return nil
}

// fillCounts degrades to zero counters when the ledger is unavailable.
func (s *Service) fillCounts(ctx context.Context, b *Bridge) {
	counts, err := s.ledger.Counts(ctx, counter.BridgeTarget(b.ID))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read bridge counters",
			"request_id", requestcontext.RequestID(ctx),
			"bridge_id", b.ID.String(),
			"error", err,
		)
		return
	}
	b.LikeCount = counts[counter.FieldLikes]
	b.CommentCount = counts[counter.FieldComments]
}
