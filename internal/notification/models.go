package notification

import (
	"time"

	id "bridges/pkg/domain"
)

// Type classifies a notification for client rendering.
type Type string

const (
	TypeFollow         Type = "follow"
	TypeFollowRequest  Type = "follow_request"
	TypeFollowAccepted Type = "follow_accepted"
	TypeLike           Type = "like"
	TypeComment        Type = "comment"
	TypeReply          Type = "reply"
	TypeMessage        Type = "message"
)

// Record is the durable notification written for offline recipients.
type Record struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.UserID         `json:"recipientId"`
	SenderID    id.UserID         `json:"senderId"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	IsRead      bool              `json:"isRead"`
	CreatedAt   time.Time         `json:"createdAt"`
}
