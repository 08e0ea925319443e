package bridge

import (
	"time"

	"bridges/internal/visibility"
	id "bridges/pkg/domain"
)

// Bridge is a post. Like and comment counts are read from the counter
// ledger and are not stored with the row.
type Bridge struct {
	ID           id.ContentID     `json:"id"`
	OwnerID      id.UserID        `json:"ownerId"`
	Body         string           `json:"body"`
	Visibility   visibility.Level `json:"visibility"`
	LikeCount    int64            `json:"likeCount"`
	CommentCount int64            `json:"commentCount"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Content projects the fields the visibility resolver reads.
func (b *Bridge) Content() visibility.Content {
	return visibility.Content{OwnerID: b.OwnerID, Visibility: b.Visibility}
}
