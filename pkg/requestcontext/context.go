// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// The authenticated identity is populated once by the auth middleware (or the
// real-time handshake) and read by services through typed getters; nothing
// recovers it by name.
//
//	viewer, ok := requestcontext.Viewer(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "bridges/pkg/domain"
)

type (
	userIDKey       struct{}
	connectionIDKey struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyUserID       = userIDKey{}
	ContextKeyConnectionID = connectionIDKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// UserID retrieves the authenticated user ID from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// Viewer returns the authenticated identity and whether one is present.
// Anonymous requests yield ok=false.
func Viewer(ctx context.Context) (id.UserID, bool) {
	userID := UserID(ctx)
	return userID, !userID.IsNil()
}

// WithUserID injects an authenticated user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// ConnectionID retrieves the real-time connection that originated the call.
func ConnectionID(ctx context.Context) id.ConnectionID {
	if connID, ok := ctx.Value(ContextKeyConnectionID).(id.ConnectionID); ok {
		return connID
	}
	return id.ConnectionID{}
}

// WithConnectionID injects the originating real-time connection.
func WithConnectionID(ctx context.Context, connID id.ConnectionID) context.Context {
	return context.WithValue(ctx, ContextKeyConnectionID, connID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, websocket frames, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
