//go:build integration

package engagement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bridges/internal/bridge"
	"bridges/internal/engagement"
	"bridges/internal/visibility"
	id "bridges/pkg/domain"
	"bridges/pkg/platform/sentinel"
	"bridges/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	bridges  *bridge.PostgresStore
	store    *engagement.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.bridges = bridge.NewPostgres(s.postgres.DB)
	s.store = engagement.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "comments", "likes", "bridges"))
}

func (s *PostgresStoreSuite) newBridge(owner id.UserID) *bridge.Bridge {
	b := &bridge.Bridge{
		ID:         id.NewContentID(),
		OwnerID:    owner,
		Body:       "over the river",
		Visibility: visibility.Followers,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.bridges.Create(s.ctx, b))
	return b
}

func (s *PostgresStoreSuite) comment(b *bridge.Bridge, author id.UserID, parent *id.CommentID, at time.Time) *engagement.Comment {
	c := &engagement.Comment{
		ID:        id.NewCommentID(),
		ContentID: b.ID,
		ActorID:   author,
		ParentID:  parent,
		Body:      "comment",
		CreatedAt: at.UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.CreateComment(s.ctx, c))
	return c
}

func (s *PostgresStoreSuite) TestBridgeRoundTrip() {
	owner := id.NewUserID()
	b := s.newBridge(owner)

	got, err := s.bridges.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(b.OwnerID, got.OwnerID)
	s.Equal(visibility.Followers, got.Visibility)
	s.True(b.CreatedAt.Equal(got.CreatedAt))

	listed, err := s.bridges.ListByOwner(s.ctx, owner, 10)
	s.Require().NoError(err)
	s.Len(listed, 1)

	s.Require().NoError(s.bridges.Delete(s.ctx, b.ID))
	_, err = s.bridges.FindByID(s.ctx, b.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.bridges.Delete(s.ctx, b.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLikesAreUnique() {
	b := s.newBridge(id.NewUserID())
	fan := id.NewUserID()
	like := &engagement.Like{UserID: fan, ContentID: b.ID, CreatedAt: time.Now().UTC()}

	s.Require().NoError(s.store.CreateLike(s.ctx, like))
	s.ErrorIs(s.store.CreateLike(s.ctx, like), sentinel.ErrAlreadyUsed)

	liked, err := s.store.HasLiked(s.ctx, fan, b.ID)
	s.Require().NoError(err)
	s.True(liked)

	s.Require().NoError(s.store.DeleteLike(s.ctx, fan, b.ID))
	s.ErrorIs(s.store.DeleteLike(s.ctx, fan, b.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCommentThreads() {
	b := s.newBridge(id.NewUserID())
	author := id.NewUserID()
	base := time.Now()

	top := s.comment(b, author, nil, base)
	reply := s.comment(b, author, &top.ID, base.Add(time.Second))
	nested := s.comment(b, author, &reply.ID, base.Add(2*time.Second))
	sibling := s.comment(b, author, nil, base.Add(3*time.Second))

	s.Run("lists oldest first", func() {
		comments, err := s.store.ListComments(s.ctx, b.ID, 10)
		s.Require().NoError(err)
		s.Require().Len(comments, 4)
		s.Equal(top.ID, comments[0].ID)
		s.Nil(comments[0].ParentID)
		s.Require().NotNil(comments[1].ParentID)
		s.Equal(top.ID, *comments[1].ParentID)
	})

	s.Run("delete removes the subtree", func() {
		removed, err := s.store.DeleteComment(s.ctx, top.ID)
		s.Require().NoError(err)
		ids := make([]id.CommentID, 0, len(removed))
		for _, c := range removed {
			ids = append(ids, c.ID)
		}
		s.ElementsMatch([]id.CommentID{top.ID, reply.ID, nested.ID}, ids)

		remaining, err := s.store.ListComments(s.ctx, b.ID, 10)
		s.Require().NoError(err)
		s.Require().Len(remaining, 1)
		s.Equal(sibling.ID, remaining[0].ID)
	})

	s.Run("missing comment", func() {
		_, err := s.store.DeleteComment(s.ctx, top.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindComment(s.ctx, top.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
