package engagement

import (
	"time"

	id "bridges/pkg/domain"
)

// Like is unique per (user, content).
type Like struct {
	UserID    id.UserID    `json:"userId"`
	ContentID id.ContentID `json:"contentId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Comment is a top-level comment when ParentID is nil, otherwise a reply.
// ReplyCount is read from the counter ledger.
type Comment struct {
	ID         id.CommentID  `json:"id"`
	ContentID  id.ContentID  `json:"contentId"`
	ActorID    id.UserID     `json:"actorId"`
	ParentID   *id.CommentID `json:"parentId,omitempty"`
	Body       string        `json:"body"`
	ReplyCount int64         `json:"replyCount"`
	CreatedAt  time.Time     `json:"createdAt"`
}
