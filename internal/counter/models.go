package counter

import (
	"fmt"

	"github.com/google/uuid"

	id "bridges/pkg/domain"
)

// Kind names the entity a counter hangs off.
type Kind string

const (
	KindUser    Kind = "user"
	KindBridge  Kind = "bridge"
	KindComment Kind = "comment"
)

// Field is a denormalized counter column.
type Field string

const (
	FieldFollowers Field = "followersCount"
	FieldFollowing Field = "followingCount"
	FieldContent   Field = "contentCount"
	FieldLikes     Field = "likeCount"
	FieldComments  Field = "commentCount"
	FieldReplies   Field = "replyCount"
)

// Target identifies the entity whose counter is adjusted.
type Target struct {
	Kind Kind
	ID   uuid.UUID
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

func UserTarget(userID id.UserID) Target {
	return Target{Kind: KindUser, ID: uuid.UUID(userID)}
}

func BridgeTarget(contentID id.ContentID) Target {
	return Target{Kind: KindBridge, ID: uuid.UUID(contentID)}
}

func CommentTarget(commentID id.CommentID) Target {
	return Target{Kind: KindComment, ID: uuid.UUID(commentID)}
}

// Delta is one signed adjustment to one counter.
type Delta struct {
	Target Target
	Field  Field
	Amount int64
}

// Counts is a snapshot of every counter stored for a target. Missing fields
// read as zero.
type Counts map[Field]int64

// EventKind is a lifecycle transition that moves counters.
type EventKind string

const (
	EventFollowApproved EventKind = "follow_approved"
	EventFollowRemoved  EventKind = "follow_removed"
	EventLikeCreated    EventKind = "like_created"
	EventLikeRemoved    EventKind = "like_removed"
	EventCommentCreated EventKind = "comment_created"
	EventCommentRemoved EventKind = "comment_removed"
	EventContentCreated EventKind = "content_created"
	EventContentRemoved EventKind = "content_removed"
)

// Event describes a committed edge change. Only the fields relevant to Kind
// are read.
type Event struct {
	Kind    EventKind
	Actor   id.UserID
	Subject id.UserID
	Content id.ContentID
	Parent  *id.CommentID
}

// FollowApproved is emitted when an edge actor→subject becomes approved.
func FollowApproved(actor, subject id.UserID) Event {
	return Event{Kind: EventFollowApproved, Actor: actor, Subject: subject}
}

// FollowRemoved is emitted when an approved edge actor→subject is deleted.
func FollowRemoved(actor, subject id.UserID) Event {
	return Event{Kind: EventFollowRemoved, Actor: actor, Subject: subject}
}

func LikeCreated(content id.ContentID) Event {
	return Event{Kind: EventLikeCreated, Content: content}
}

func LikeRemoved(content id.ContentID) Event {
	return Event{Kind: EventLikeRemoved, Content: content}
}

func CommentCreated(content id.ContentID, parent *id.CommentID) Event {
	return Event{Kind: EventCommentCreated, Content: content, Parent: parent}
}

func CommentRemoved(content id.ContentID, parent *id.CommentID) Event {
	return Event{Kind: EventCommentRemoved, Content: content, Parent: parent}
}

func ContentCreated(owner id.UserID) Event {
	return Event{Kind: EventContentCreated, Actor: owner}
}

func ContentRemoved(owner id.UserID) Event {
	return Event{Kind: EventContentRemoved, Actor: owner}
}

// Deltas translates an event into exactly one delta per affected counter.
// Unknown kinds translate to nothing.
func Deltas(e Event) []Delta {
	switch e.Kind {
	case EventFollowApproved, EventFollowRemoved:
		amount := sign(e.Kind == EventFollowApproved)
		return []Delta{
			{Target: UserTarget(e.Subject), Field: FieldFollowers, Amount: amount},
			{Target: UserTarget(e.Actor), Field: FieldFollowing, Amount: amount},
		}
	case EventLikeCreated, EventLikeRemoved:
		return []Delta{
			{Target: BridgeTarget(e.Content), Field: FieldLikes, Amount: sign(e.Kind == EventLikeCreated)},
		}
	case EventCommentCreated, EventCommentRemoved:
		amount := sign(e.Kind == EventCommentCreated)
		deltas := []Delta{{Target: BridgeTarget(e.Content), Field: FieldComments, Amount: amount}}
		if e.Parent != nil {
			deltas = append(deltas, Delta{Target: CommentTarget(*e.Parent), Field: FieldReplies, Amount: amount})
		}
		return deltas
	case EventContentCreated, EventContentRemoved:
		return []Delta{
			{Target: UserTarget(e.Actor), Field: FieldContent, Amount: sign(e.Kind == EventContentCreated)},
		}
	default:
		return nil
	}
}

func sign(positive bool) int64 {
	if positive {
		return 1
	}
	return -1
}
