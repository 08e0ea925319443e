package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "bridges/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so the compiler rejects passing a
// ContentID where a UserID is expected.
type (
	UserID         uuid.UUID
	ContentID      uuid.UUID
	CommentID      uuid.UUID
	MessageID      uuid.UUID
	NotificationID uuid.UUID
	ConnectionID   uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ContentID) String() string      { return uuid.UUID(id).String() }
func (id CommentID) String() string      { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id ConnectionID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ContentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ConnectionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id ContentID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CommentID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ConnectionID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContentID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CommentID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MessageID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ConnectionID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }

// Value and Scan let stores bind identifiers directly as query arguments.
func (id UserID) Value() (driver.Value, error)         { return uuid.UUID(id).Value() }
func (id ContentID) Value() (driver.Value, error)      { return uuid.UUID(id).Value() }
func (id CommentID) Value() (driver.Value, error)      { return uuid.UUID(id).Value() }
func (id MessageID) Value() (driver.Value, error)      { return uuid.UUID(id).Value() }
func (id NotificationID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id ConnectionID) Value() (driver.Value, error)   { return uuid.UUID(id).Value() }

func (id *UserID) Scan(src any) error         { return (*uuid.UUID)(id).Scan(src) }
func (id *ContentID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *CommentID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *MessageID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *NotificationID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
func (id *ConnectionID) Scan(src any) error   { return (*uuid.UUID)(id).Scan(src) }

// NewUserID and friends mint fresh random identifiers.
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewContentID() ContentID           { return ContentID(uuid.New()) }
func NewCommentID() CommentID           { return CommentID(uuid.New()) }
func NewMessageID() MessageID           { return MessageID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }
func NewConnectionID() ConnectionID     { return ConnectionID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

func ParseContentID(s string) (ContentID, error) {
	u, err := parseUUID(s, "content")
	return ContentID(u), err
}

func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID(s, "comment")
	return CommentID(u), err
}

func ParseMessageID(s string) (MessageID, error) {
	u, err := parseUUID(s, "message")
	return MessageID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification")
	return NotificationID(u), err
}

func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parseUUID(s, "connection")
	return ConnectionID(u), err
}

// parseUUID is the single trust-boundary parser for every identifier type.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" ID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" ID cannot be nil")
	}
	return u, nil
}
