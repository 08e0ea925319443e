package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "bridges/pkg/domain"
)

func TestDeltas(t *testing.T) {
	alice, bob := id.NewUserID(), id.NewUserID()
	content := id.NewContentID()
	parent := id.NewCommentID()

	tests := []struct {
		name  string
		event Event
		want  []Delta
	}{
		{
			name:  "follow approved credits both sides",
			event: FollowApproved(alice, bob),
			want: []Delta{
				{Target: UserTarget(bob), Field: FieldFollowers, Amount: 1},
				{Target: UserTarget(alice), Field: FieldFollowing, Amount: 1},
			},
		},
		{
			name:  "follow removed debits both sides",
			event: FollowRemoved(alice, bob),
			want: []Delta{
				{Target: UserTarget(bob), Field: FieldFollowers, Amount: -1},
				{Target: UserTarget(alice), Field: FieldFollowing, Amount: -1},
			},
		},
		{
			name:  "like created",
			event: LikeCreated(content),
			want:  []Delta{{Target: BridgeTarget(content), Field: FieldLikes, Amount: 1}},
		},
		{
			name:  "like removed",
			event: LikeRemoved(content),
			want:  []Delta{{Target: BridgeTarget(content), Field: FieldLikes, Amount: -1}},
		},
		{
			name:  "top-level comment touches only content",
			event: CommentCreated(content, nil),
			want:  []Delta{{Target: BridgeTarget(content), Field: FieldComments, Amount: 1}},
		},
		{
			name:  "reply also touches parent",
			event: CommentCreated(content, &parent),
			want: []Delta{
				{Target: BridgeTarget(content), Field: FieldComments, Amount: 1},
				{Target: CommentTarget(parent), Field: FieldReplies, Amount: 1},
			},
		},
		{
			name:  "reply removed",
			event: CommentRemoved(content, &parent),
			want: []Delta{
				{Target: BridgeTarget(content), Field: FieldComments, Amount: -1},
				{Target: CommentTarget(parent), Field: FieldReplies, Amount: -1},
			},
		},
		{
			name:  "content created",
			event: ContentCreated(alice),
			want:  []Delta{{Target: UserTarget(alice), Field: FieldContent, Amount: 1}},
		},
		{
			name:  "content removed",
			event: ContentRemoved(alice),
			want:  []Delta{{Target: UserTarget(alice), Field: FieldContent, Amount: -1}},
		},
		{
			name:  "unknown kind",
			event: Event{Kind: "bogus"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Deltas(tt.event))
		})
	}
}

func TestDeltasAreSymmetric(t *testing.T) {
	alice, bob := id.NewUserID(), id.NewUserID()
	content := id.NewContentID()
	parent := id.NewCommentID()

	pairs := [][2]Event{
		{FollowApproved(alice, bob), FollowRemoved(alice, bob)},
		{LikeCreated(content), LikeRemoved(content)},
		{CommentCreated(content, &parent), CommentRemoved(content, &parent)},
		{ContentCreated(alice), ContentRemoved(alice)},
	}
	for _, p := range pairs {
		up, down := Deltas(p[0]), Deltas(p[1])
		assert.Len(t, down, len(up))
		for i := range up {
			assert.Equal(t, up[i].Target, down[i].Target)
			assert.Equal(t, up[i].Field, down[i].Field)
			assert.Equal(t, int64(0), up[i].Amount+down[i].Amount)
		}
	}
}
