package messaging

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bridges/internal/counter"
	"bridges/internal/identity"
	"bridges/internal/notification"
	"bridges/internal/platform/logger"
	"bridges/internal/realtime"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/requestcontext"
)

// chanConn captures frames written to a session.
type chanConn struct {
	frames chan realtime.Frame
}

func newChanConn() *chanConn {
	return &chanConn{frames: make(chan realtime.Frame, 16)}
}

func (c *chanConn) Send(f realtime.Frame) error {
	select {
	case c.frames <- f:
	default:
	}
	return nil
}

func (c *chanConn) Close() error { return nil }

func (c *chanConn) next(s *suite.Suite) realtime.Frame {
	select {
	case f := <-c.frames:
		return f
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for frame")
		return realtime.Frame{}
	}
}

func (c *chanConn) quiet(s *suite.Suite) {
	select {
	case f := <-c.frames:
		s.Failf("unexpected frame", "%s", f.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

type noAuth struct{}

func (noAuth) Verify(context.Context, string) (id.UserID, error) {
	return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "no tokens in this test")
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []notification.Record
}

func (n *recordingNotifier) Notify(_ context.Context, rec notification.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, rec)
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	identities *identity.Service
	router     *realtime.Router
	notifier   *recordingNotifier
	service    *Service
	alice      id.UserID
	bob        id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	ledger := counter.NewLedger(counter.NewInMemoryStore(), counter.WithLogger(logger.Discard()))
	s.identities = identity.NewService(identity.NewInMemoryStore(), ledger, identity.WithLogger(logger.Discard()))
	s.router = realtime.NewRouter(noAuth{},
		realtime.WithLogger(logger.Discard()),
		realtime.WithTopicAuthorizer(Topics{}),
	)
	s.T().Cleanup(s.router.Close)
	s.notifier = &recordingNotifier{}
	s.service = NewService(NewInMemoryStore(), s.identities,
		WithLogger(logger.Discard()),
		WithDispatcher(s.router),
		WithBroadcaster(s.router),
		WithNotifier(s.notifier),
	)

	alice, err := s.identities.Register(s.ctx, "alice", false)
	s.Require().NoError(err)
	bob, err := s.identities.Register(s.ctx, "bob", true)
	s.Require().NoError(err)
	s.alice, s.bob = alice.ID, bob.ID
}

func (s *ServiceSuite) connect(userID id.UserID) (*realtime.Session, *chanConn) {
	conn := newChanConn()
	return s.router.Admit(s.ctx, userID, conn, realtime.Meta{Device: "test"}), conn
}

func (s *ServiceSuite) TestConversationTopic() {
	topic := ConversationTopic(s.alice, s.bob)
	s.Equal(topic, ConversationTopic(s.bob, s.alice))
	s.True(strings.HasPrefix(topic, "dm:"))

	a, b, err := ParseConversationTopic(topic)
	s.Require().NoError(err)
	s.ElementsMatch([]id.UserID{s.alice, s.bob}, []id.UserID{a, b})

	s.Run("non canonical order is rejected", func() {
		parts := strings.Split(topic, ":")
		_, _, err := ParseConversationTopic("dm:" + parts[2] + ":" + parts[1])
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("only participants may join", func() {
		s.NoError(s.service.CanJoin(s.ctx, s.alice, topic))
		s.NoError(s.service.CanJoin(s.ctx, s.bob, topic))
		err := s.service.CanJoin(s.ctx, id.NewUserID(), topic)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
		err = s.service.CanJoin(s.ctx, s.alice, "room:lobby")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSend() {
	_, bobPhone := s.connect(s.bob)
	_, bobLaptop := s.connect(s.bob)
	_, aliceConn := s.connect(s.alice)

	m, err := s.service.Send(s.ctx, s.alice, s.bob, "  hi bob  ")
	s.Require().NoError(err)
	s.Equal("hi bob", m.Body)

	s.Run("every recipient device receives the message", func() {
		for _, conn := range []*chanConn{bobPhone, bobLaptop} {
			f := conn.next(&s.Suite)
			s.Equal(realtime.EventNewMessage, f.Type)
			payload, ok := f.Payload.(realtime.NewMessagePayload)
			s.Require().True(ok)
			s.Equal(s.alice, payload.Sender)
			s.Equal(m, payload.Message)
		}
		aliceConn.quiet(&s.Suite)
	})

	s.Run("a message notification is recorded", func() {
		s.Require().Len(s.notifier.records, 1)
		rec := s.notifier.records[0]
		s.Equal(notification.TypeMessage, rec.Type)
		s.Equal(s.bob, rec.RecipientID)
		s.Equal(ConversationTopic(s.alice, s.bob), rec.Data["conversationId"])
	})

	s.Run("conversation is shared by both participants", func() {
		_, err := s.service.Send(s.ctx, s.bob, s.alice, "hello alice")
		s.Require().NoError(err)

		forAlice, err := s.service.Conversation(s.ctx, s.alice, s.bob, 0)
		s.Require().NoError(err)
		forBob, err := s.service.Conversation(s.ctx, s.bob, s.alice, 0)
		s.Require().NoError(err)
		s.Require().Len(forAlice, 2)
		s.Equal(forAlice, forBob)
		s.Equal(m.ID, forAlice[0].ID)

		latest, err := s.service.Conversation(s.ctx, s.alice, s.bob, 1)
		s.Require().NoError(err)
		s.Require().Len(latest, 1)
		s.Equal("hello alice", latest[0].Body)
	})

	s.Run("rejections", func() {
		_, err := s.service.Send(s.ctx, s.alice, s.alice, "me")
		s.True(dErrors.Is(err, dErrors.CodeSelfReference))

		_, err = s.service.Send(s.ctx, s.alice, id.NewUserID(), "anyone?")
		s.True(dErrors.Is(err, dErrors.CodeNotFound), "got %v", err)

		_, err = s.service.Send(s.ctx, s.alice, s.bob, "   ")
		s.True(dErrors.Is(err, dErrors.CodeValidation))

		_, err = s.service.Send(s.ctx, s.alice, s.bob, strings.Repeat("x", maxBodyRunes+1))
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSendPreviewIsTruncated() {
	_, err := s.service.Send(s.ctx, s.alice, s.bob, strings.Repeat("ü", previewRunes+10))
	s.Require().NoError(err)
	s.Require().Len(s.notifier.records, 1)
	s.Equal(previewRunes+1, len([]rune(s.notifier.records[0].Body)))
}

func (s *ServiceSuite) TestTyping() {
	topic := ConversationTopic(s.alice, s.bob)
	alicePhone, alicePhoneConn := s.connect(s.alice)
	aliceLaptop, aliceLaptopConn := s.connect(s.alice)
	bob, bobConn := s.connect(s.bob)
	for _, session := range []*realtime.Session{alicePhone, aliceLaptop, bob} {
		s.Require().NoError(s.router.JoinTopic(s.ctx, session.ConnectionID, topic))
	}

	ctx := requestcontext.WithUserID(s.ctx, s.alice)
	s.Require().NoError(s.service.Typing(ctx, alicePhone.ConnectionID, topic, true))

	f := bobConn.next(&s.Suite)
	s.Equal(realtime.EventUserTyping, f.Type)
	s.Equal(realtime.UserTypingPayload{UserID: s.alice, IsTyping: true}, f.Payload)

	// The sender's other devices are skipped too.
	alicePhoneConn.quiet(&s.Suite)
	aliceLaptopConn.quiet(&s.Suite)

	s.Run("connection outside the topic", func() {
		s.Require().NoError(s.router.LeaveTopic(bob.ConnectionID, topic))
		err := s.service.Typing(requestcontext.WithUserID(s.ctx, s.bob), bob.ConnectionID, topic, true)
		s.True(dErrors.Is(err, dErrors.CodeForbidden), "got %v", err)
	})

	s.Run("not a conversation topic", func() {
		err := s.service.Typing(ctx, alicePhone.ConnectionID, "lobby", true)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestTypingWithoutBroadcaster() {
	svc := NewService(NewInMemoryStore(), s.identities)
	err := svc.Typing(s.ctx, id.NewConnectionID(), ConversationTopic(s.alice, s.bob), true)
	s.True(dErrors.Is(err, dErrors.CodeUnavailable))
}
