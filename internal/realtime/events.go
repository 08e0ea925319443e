package realtime

import (
	id "bridges/pkg/domain"
)

// Event names pushed to clients.
const (
	EventNewFollow  = "new-follow"
	EventNewLike    = "new-like"
	EventNewComment = "new-comment"
	EventNewMessage = "new-message"
	EventUserTyping = "user-typing"
)

type NewFollowPayload struct {
	ActorID id.UserID `json:"actorId"`
	Status  string    `json:"status"`
}

type NewLikePayload struct {
	ContentID id.ContentID `json:"contentId"`
	ActorID   id.UserID    `json:"actorId"`
}

type NewCommentPayload struct {
	ContentID id.ContentID `json:"contentId"`
	CommentID id.CommentID `json:"commentId"`
	ActorID   id.UserID    `json:"actorId"`
}

// NewMessagePayload carries the persisted message as its owning package
// serializes it.
type NewMessagePayload struct {
	Message any       `json:"message"`
	Sender  id.UserID `json:"sender"`
}

// UserTypingPayload is ephemeral and only ever broadcast to a topic.
type UserTypingPayload struct {
	UserID   id.UserID `json:"userId"`
	IsTyping bool      `json:"isTyping"`
}
