package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"bridges/internal/platform/logger"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/circuit"
)

type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSink) Record(context.Context, Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("sink down")
}

type NotifierSuite struct {
	suite.Suite
	ctx       context.Context
	store     *InMemoryStore
	metrics   *Metrics
	notifier  *Notifier
	service   *Service
	recipient id.UserID
	sender    id.UserID
	now       time.Time
}

func TestNotifierSuite(t *testing.T) {
	suite.Run(t, new(NotifierSuite))
}

func (s *NotifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.notifier = NewNotifier(s.store, WithLogger(logger.Discard()), WithMetrics(s.metrics))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.notifier.now = func() time.Time { return s.now }
	s.service = NewService(s.store)
	s.recipient = id.NewUserID()
	s.sender = id.NewUserID()
}

func (s *NotifierSuite) TestNotify() {
	s.Run("stamps and stores an unread record", func() {
		s.notifier.Notify(s.ctx, Record{
			RecipientID: s.recipient,
			SenderID:    s.sender,
			Type:        TypeFollow,
			Title:       "New follower",
			IsRead:      true,
		})

		records, err := s.service.List(s.ctx, s.recipient, false, 0)
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.False(records[0].ID.IsNil())
		s.False(records[0].IsRead)
		s.Equal(s.now, records[0].CreatedAt)
		s.NotNil(records[0].Data)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.recorded.WithLabelValues("follow")))
	})

	s.Run("self notifications are skipped", func() {
		s.notifier.Notify(s.ctx, Record{RecipientID: s.sender, SenderID: s.sender, Type: TypeLike})
		records, err := s.service.List(s.ctx, s.sender, false, 0)
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("sink failures are swallowed and counted", func() {
		sink := &failingSink{}
		notifier := NewNotifier(sink, WithLogger(logger.Discard()), WithMetrics(s.metrics))

		s.NotPanics(func() {
			notifier.Notify(s.ctx, Record{RecipientID: s.recipient, SenderID: s.sender, Type: TypeComment})
		})
		s.Equal(1, sink.calls)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.failures.WithLabelValues("comment")))
	})
}

func (s *NotifierSuite) TestTee() {
	s.Run("writes to every sink and joins errors", func() {
		other := NewInMemoryStore()
		failing := &failingSink{}
		sink := Tee(s.store, nil, failing, other)

		err := sink.Record(s.ctx, Record{ID: id.NewNotificationID(), RecipientID: s.recipient, Type: TypeMessage})

		s.Error(err)
		s.Equal(1, failing.calls)
		for _, st := range []*InMemoryStore{s.store, other} {
			records, err := st.ListByRecipient(s.ctx, s.recipient, false, 0)
			s.Require().NoError(err)
			s.Len(records, 1)
		}
	})
}

func (s *NotifierSuite) TestGuardedSinkStopsCallingAfterRepeatedFailures() {
	failing := &failingSink{}
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	sink := Tee(s.store, Guard(failing, breaker, logger.Discard()))

	for range 5 {
		err := sink.Record(s.ctx, Record{ID: id.NewNotificationID(), RecipientID: s.recipient, Type: TypeLike})
		s.Error(err)
	}

	s.Equal(2, failing.calls)
	s.True(breaker.IsOpen())
	records, err := s.store.ListByRecipient(s.ctx, s.recipient, false, 0)
	s.Require().NoError(err)
	s.Len(records, 5, "the primary store keeps receiving records")

	err = Guard(failing, breaker, nil).Record(s.ctx, Record{})
	s.ErrorIs(err, ErrSinkUnavailable)
}

func (s *NotifierSuite) TestListAndMarkRead() {
	for i := 0; i < 3; i++ {
		s.now = s.now.Add(time.Minute)
		s.notifier.Notify(s.ctx, Record{RecipientID: s.recipient, SenderID: s.sender, Type: TypeLike})
	}

	s.Run("newest first with limit", func() {
		records, err := s.service.List(s.ctx, s.recipient, false, 2)
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.True(records[0].CreatedAt.After(records[1].CreatedAt))
	})

	s.Run("mark read filters unread listing", func() {
		records, err := s.service.List(s.ctx, s.recipient, false, 0)
		s.Require().NoError(err)

		rec, err := s.service.MarkRead(s.ctx, s.recipient, records[0].ID)
		s.Require().NoError(err)
		s.True(rec.IsRead)

		unread, err := s.service.List(s.ctx, s.recipient, true, 0)
		s.Require().NoError(err)
		s.Len(unread, 2)
	})

	s.Run("another recipient cannot mark it", func() {
		records, err := s.service.List(s.ctx, s.recipient, false, 0)
		s.Require().NoError(err)

		_, err = s.service.MarkRead(s.ctx, s.sender, records[0].ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("unknown id", func() {
		_, err := s.service.MarkRead(s.ctx, s.recipient, id.NewNotificationID())
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}
