package messaging

import (
	"time"

	id "bridges/pkg/domain"
)

// Message is a persisted direct message between two users.
type Message struct {
	ID          id.MessageID `json:"id"`
	SenderID    id.UserID    `json:"senderId"`
	RecipientID id.UserID    `json:"recipientId"`
	Body        string       `json:"body"`
	CreatedAt   time.Time    `json:"createdAt"`
}
