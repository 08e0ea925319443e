package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"bridges/internal/counter"
	"bridges/internal/platform/logger"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
)

type brokenCounters struct{}

func (brokenCounters) Counts(context.Context, counter.Target) (counter.Counts, error) {
	return nil, errors.New("redis down")
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	ledger  *counter.Ledger
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = counter.NewLedger(counter.NewInMemoryStore(), counter.WithLogger(logger.Discard()))
	s.service = NewService(NewInMemoryStore(), s.ledger, WithLogger(logger.Discard()))
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates account", func() {
		account, err := s.service.Register(s.ctx, "alice", false)
		s.Require().NoError(err)
		s.False(account.ID.IsNil())
		s.False(account.IsPrivate)
	})

	s.Run("username taken case-insensitively", func() {
		_, err := s.service.Register(s.ctx, "ALICE", true)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid username", func() {
		_, err := s.service.Register(s.ctx, "a!", false)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestPrivacy() {
	bob, err := s.service.Register(s.ctx, "bob", false)
	s.Require().NoError(err)

	private, err := s.service.IsPrivate(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.False(private)

	_, err = s.service.SetPrivacy(s.ctx, bob.ID, true)
	s.Require().NoError(err)
	private, err = s.service.IsPrivate(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.True(private)

	_, err = s.service.IsPrivate(s.ctx, id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.SetPrivacy(s.ctx, id.NewUserID(), true)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestProfile() {
	carol, err := s.service.Register(s.ctx, "carol", false)
	s.Require().NoError(err)
	s.ledger.Record(s.ctx, counter.FollowApproved(id.NewUserID(), carol.ID))
	s.ledger.Record(s.ctx, counter.ContentCreated(carol.ID))

	profile, err := s.service.Profile(s.ctx, carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), profile.FollowersCount)
	s.Equal(int64(0), profile.FollowingCount)
	s.Equal(int64(1), profile.ContentCount)

	s.Run("counter outage degrades to zero", func() {
		svc := NewService(s.service.accounts, brokenCounters{}, WithLogger(logger.Discard()))
		profile, err := svc.Profile(s.ctx, carol.ID)
		s.Require().NoError(err)
		s.Equal("carol", profile.Username)
		s.Zero(profile.FollowersCount)
	})
}
