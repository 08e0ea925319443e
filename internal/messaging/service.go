// Package messaging implements direct messages between two users and the
// conversation topics their clients join for typing indicators.
//
// Messages are persisted and fanned out to every session of the recipient.
// Typing indicators are broadcast to the conversation topic and never stored.
package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"

	"bridges/internal/notification"
	"bridges/internal/realtime"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/requestcontext"
)

const (
	maxBodyRunes     = 2000
	previewRunes     = 140
	defaultListLimit = 50
	maxListLimit     = 200
)

var tracer = otel.Tracer("bridges/internal/messaging")

// Directory confirms a user exists, returning CodeNotFound otherwise.
type Directory interface {
	Exists(ctx context.Context, userID id.UserID) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, recipient id.UserID, eventType string, payload any) int
}

// Broadcaster delivers to a topic on behalf of a connection that has joined
// it.
type Broadcaster interface {
	BroadcastFrom(ctx context.Context, connID id.ConnectionID, topicID string, eventType string, payload any) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, rec notification.Record)
}

// Service also authorizes conversation topic joins through the embedded
// Topics.
type Service struct {
	Topics
	store    Store
	users    Directory
	events   Dispatcher
	topics   Broadcaster
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

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		s.topics = b
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(store Store, users Directory, opts ...Option) *Service {
	s := &Service{
		store:  store,
		users:  users,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send persists a message and pushes it to every session of the recipient.
func (s *Service) Send(ctx context.Context, senderID, recipientID id.UserID, body string) (*Message, error) {
	ctx, span := tracer.Start(ctx, "messaging.Send")
	defer span.End()

	if senderID == recipientID {
		return nil, dErrors.New(dErrors.CodeSelfReference, "cannot message yourself")
	}
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > maxBodyRunes {
		return nil, dErrors.New(dErrors.CodeValidation, "message must be between 1 and 2000 characters")
	}
	if err := s.users.Exists(ctx, recipientID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:          id.NewMessageID(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store message")
	}
	if s.metrics != nil {
		s.metrics.IncrementSent()
	}

	if s.events != nil {
		delivered := s.events.Dispatch(ctx, recipientID, realtime.EventNewMessage,
			realtime.NewMessagePayload{Message: m, Sender: senderID})
		s.logger.DebugContext(ctx, "message dispatched",
			"request_id", requestcontext.RequestID(ctx),
			"message_id", m.ID.String(),
			"sessions", delivered,
		)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, notification.Record{
			RecipientID: recipientID,
			SenderID:    senderID,
			Type:        notification.TypeMessage,
			Title:       "New message",
			Body:        preview(body),
			Data: map[string]string{
				"messageId":      m.ID.String(),
				"conversationId": ConversationTopic(senderID, recipientID),
			},
		})
	}
	return m, nil
}

// Conversation returns recent messages between viewer and other, oldest
// first.
func (s *Service) Conversation(ctx context.Context, viewerID, otherID id.UserID, limit int) ([]*Message, error) {
	if viewerID == otherID {
		return nil, dErrors.New(dErrors.CodeSelfReference, "no conversation with yourself")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	msgs, err := s.store.ListConversation(ctx, viewerID, otherID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}

// Typing relays a typing indicator from connID to the other members of the
// conversation topic. The user is read from ctx; the connection must have
// joined the topic.
func (s *Service) Typing(ctx context.Context, connID id.ConnectionID, topicID string, isTyping bool) error {
	if s.topics == nil {
		return dErrors.New(dErrors.CodeUnavailable, "typing indicators are not available")
	}
	if _, _, err := ParseConversationTopic(topicID); err != nil {
		return err
	}
	payload := realtime.UserTypingPayload{UserID: requestcontext.UserID(ctx), IsTyping: isTyping}
	if _, err := s.topics.BroadcastFrom(ctx, connID, topicID, realtime.EventUserTyping, payload); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncrementTyping(isTyping)
	}
	return nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	return string([]rune(body)[:previewRunes]) + "…"
}
