// Package realtime routes events to live client sessions.
//
// Sessions are grouped into identity rooms (every connection of one user)
// and topic rooms (conversations). Rooms live in a sync.Map with a mutex
// each; there is no router-wide lock. Delivery only enqueues onto a
// session's buffered outbound queue, and a per-session writer goroutine
// performs the network write, so no lock is ever held across I/O. A session
// whose queue is full is evicted without affecting other recipients.
package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/requestcontext"
)

const defaultSendBuffer = 64

var tracer = otel.Tracer("bridges/internal/realtime")

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Verify(ctx context.Context, token string) (id.UserID, error)
}

// TopicAuthorizer decides whether an identity may join a topic.
type TopicAuthorizer interface {
	CanJoin(ctx context.Context, userID id.UserID, topicID string) error
}

// Router owns every live session.
type Router struct {
	auth       Authenticator
	topicAuthz TopicAuthorizer
	sendBuffer int
	logger     *slog.Logger
	metrics    *Metrics

	sessions sync.Map // id.ConnectionID → *Session
	users    registry
	topics   registry
}

type Option func(*Router)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithTopicAuthorizer enables topic joins. Without it every join is
// forbidden.
func WithTopicAuthorizer(a TopicAuthorizer) Option {
	return func(r *Router) {
		r.topicAuthz = a
	}
}

// WithSendBuffer sets the per-session outbound queue length.
func WithSendBuffer(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.sendBuffer = n
		}
	}
}

func NewRouter(auth Authenticator, opts ...Option) *Router {
	r := &Router{
		auth:       auth,
		sendBuffer: defaultSendBuffer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authenticate verifies a handshake token. Transports call it before
// upgrading so a rejected client never holds a session.
func (r *Router) Authenticate(ctx context.Context, token string) (id.UserID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		r.handshakeFailed()
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "missing access token")
	}
	userID, err := r.auth.Verify(ctx, token)
	if err != nil {
		r.handshakeFailed()
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			return id.UserID{}, err
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid access token")
	}
	return userID, nil
}

// Admit registers an authenticated connection and starts its writer.
func (r *Router) Admit(ctx context.Context, userID id.UserID, conn Conn, meta Meta) *Session {
	s := newSession(userID, conn, meta, r.sendBuffer, time.Now())
	// Join the identity room before the session becomes addressable by
	// connection ID, so Disconnect always finds it there.
	r.users.add(userKey(userID), s)
	r.sessions.Store(s.ConnectionID, s)
	if r.metrics != nil {
		r.metrics.IncrementSessions()
	}

	go s.writeLoop(func(err error) {
		r.logger.Warn("session write failed",
			"connection_id", s.ConnectionID.String(),
			"user_id", userID.String(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.IncrementEvictions()
		}
		r.Disconnect(s.ConnectionID)
	})

	r.logger.InfoContext(ctx, "session opened",
		"request_id", requestcontext.RequestID(ctx),
		"connection_id", s.ConnectionID.String(),
		"user_id", userID.String(),
		"device", meta.Device,
	)
	return s
}

// Handshake authenticates token and admits conn. On failure nothing is
// registered.
func (r *Router) Handshake(ctx context.Context, token string, conn Conn, meta Meta) (*Session, error) {
	userID, err := r.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return r.Admit(ctx, userID, conn, meta), nil
}

// Dispatch delivers an event to every live session of recipient and
// returns how many sessions accepted it. Zero sessions is not an error.
func (r *Router) Dispatch(ctx context.Context, recipient id.UserID, eventType string, payload any) int {
	_, span := tracer.Start(ctx, "realtime.Dispatch", trace.WithAttributes(
		attribute.String("event", eventType),
	))
	defer span.End()

	sessions := r.users.snapshot(userKey(recipient))
	delivered := r.deliver(sessions, Frame{Type: eventType, Payload: payload}, nil)
	span.SetAttributes(attribute.Int("delivered", delivered))
	r.recordDelivery(eventType, delivered)
	return delivered
}

// BroadcastTopic delivers an event to every session joined to topicID
// except the sessions owned by sender.
func (r *Router) BroadcastTopic(ctx context.Context, topicID string, sender id.UserID, eventType string, payload any) int {
	_, span := tracer.Start(ctx, "realtime.BroadcastTopic", trace.WithAttributes(
		attribute.String("event", eventType),
	))
	defer span.End()

	sessions := r.topics.snapshot(topicID)
	delivered := r.deliver(sessions, Frame{Type: eventType, Payload: payload}, func(s *Session) bool {
		return s.UserID == sender
	})
	span.SetAttributes(attribute.Int("delivered", delivered))
	r.recordDelivery(eventType, delivered)
	return delivered
}

// BroadcastFrom broadcasts on behalf of a connection, which must have
// joined topicID.
func (r *Router) BroadcastFrom(ctx context.Context, connID id.ConnectionID, topicID, eventType string, payload any) (int, error) {
	s, ok := r.Session(connID)
	if !ok {
		return 0, dErrors.New(dErrors.CodeNotFound, "unknown connection")
	}
	if !s.inTopic(topicID) {
		return 0, dErrors.New(dErrors.CodeForbidden, "connection has not joined topic")
	}
	return r.BroadcastTopic(ctx, topicID, s.UserID, eventType, payload), nil
}

func (r *Router) deliver(sessions []*Session, frame Frame, skip func(*Session) bool) int {
	delivered := 0
	for _, s := range sessions {
		if skip != nil && skip(s) {
			continue
		}
		switch s.enqueue(frame) {
		case enqueued:
			delivered++
		case queueFull:
			r.logger.Warn("session outbound queue full, evicting",
				"connection_id", s.ConnectionID.String(),
				"user_id", s.UserID.String(),
				"event", frame.Type,
			)
			if r.metrics != nil {
				r.metrics.IncrementEvictions()
			}
			r.Disconnect(s.ConnectionID)
		case sessionClosed:
		}
	}
	return delivered
}

func (r *Router) recordDelivery(eventType string, delivered int) {
	if r.metrics == nil {
		return
	}
	if delivered == 0 {
		r.metrics.IncrementDropped(eventType)
		return
	}
	r.metrics.AddDelivered(eventType, delivered)
}

// JoinTopic adds a connection to a topic after consulting the topic
// authorizer. Joining twice is a no-op.
func (r *Router) JoinTopic(ctx context.Context, connID id.ConnectionID, topicID string) error {
	topicID = strings.TrimSpace(topicID)
	if topicID == "" {
		return dErrors.New(dErrors.CodeValidation, "topic id is required")
	}
	s, ok := r.Session(connID)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown connection")
	}
	if r.topicAuthz == nil {
		return dErrors.New(dErrors.CodeForbidden, "topics are not enabled")
	}
	if err := r.topicAuthz.CanJoin(ctx, s.UserID, topicID); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return dErrors.Wrap(err, dErrors.CodeForbidden, "cannot join topic")
		}
		return err
	}

	// Room membership changes under the session lock so a concurrent
	// Disconnect either sees the topic and removes it or the join sees the
	// session closed.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dErrors.New(dErrors.CodeNotFound, "unknown connection")
	}
	if _, ok := s.topics[topicID]; ok {
		return nil
	}
	s.topics[topicID] = struct{}{}
	r.topics.add(topicID, s)
	return nil
}

// LeaveTopic removes a connection from a topic. Leaving a topic that was
// never joined is a no-op.
func (r *Router) LeaveTopic(connID id.ConnectionID, topicID string) error {
	s, ok := r.Session(connID)
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown connection")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topicID]; !ok {
		return nil
	}
	delete(s.topics, topicID)
	r.topics.remove(topicID, connID)
	return nil
}

// Disconnect removes a session from every room and stops its writer. It is
// idempotent and reports whether this call performed the removal.
func (r *Router) Disconnect(connID id.ConnectionID) bool {
	v, ok := r.sessions.LoadAndDelete(connID)
	if !ok {
		return false
	}
	s := v.(*Session)
	topics, closed := s.close()
	if !closed {
		return false
	}
	r.users.remove(userKey(s.UserID), connID)
	for _, t := range topics {
		r.topics.remove(t, connID)
	}
	if r.metrics != nil {
		r.metrics.DecrementSessions()
	}
	r.logger.Info("session closed",
		"connection_id", connID.String(),
		"user_id", s.UserID.String(),
		"duration", time.Since(s.OpenedAt).String(),
	)
	return true
}

// Close disconnects every session.
func (r *Router) Close() {
	r.sessions.Range(func(k, _ any) bool {
		r.Disconnect(k.(id.ConnectionID))
		return true
	})
}

func (r *Router) Session(connID id.ConnectionID) (*Session, bool) {
	v, ok := r.sessions.Load(connID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Sessions returns the live sessions of userID.
func (r *Router) Sessions(userID id.UserID) []*Session {
	return r.users.snapshot(userKey(userID))
}

func (r *Router) Online(userID id.UserID) bool {
	return len(r.Sessions(userID)) > 0
}

// TopicMembers returns the sessions joined to topicID.
func (r *Router) TopicMembers(topicID string) []*Session {
	return r.topics.snapshot(topicID)
}

func (r *Router) handshakeFailed() {
	if r.metrics != nil {
		r.metrics.IncrementHandshakeFailures()
	}
}
