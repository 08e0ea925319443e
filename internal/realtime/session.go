package realtime

import (
	"sync"
	"time"

	id "bridges/pkg/domain"
)

// Frame is the unit written to a client connection.
type Frame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Conn is the transport side of a session. Send is only called from the
// session's writer goroutine; Close is called exactly once, after the
// outbound queue has been drained.
type Conn interface {
	Send(frame Frame) error
	Close() error
}

// Meta describes the client that opened a session.
type Meta struct {
	Device     string
	RemoteAddr string
}

type enqueueResult int

const (
	enqueued enqueueResult = iota
	queueFull
	sessionClosed
)

// Session is one live authenticated connection. An identity may hold any
// number of them.
type Session struct {
	ConnectionID id.ConnectionID
	UserID       id.UserID
	Device       string
	RemoteAddr   string
	OpenedAt     time.Time

	conn Conn
	out  chan Frame
	done chan struct{}

	mu     sync.Mutex
	closed bool
	topics map[string]struct{}
}

func newSession(userID id.UserID, conn Conn, meta Meta, buffer int, now time.Time) *Session {
	return &Session{
		ConnectionID: id.NewConnectionID(),
		UserID:       userID,
		Device:       meta.Device,
		RemoteAddr:   meta.RemoteAddr,
		OpenedAt:     now,
		conn:         conn,
		out:          make(chan Frame, buffer),
		done:         make(chan struct{}),
		topics:       make(map[string]struct{}),
	}
}

// Done is closed once the writer goroutine has closed the connection.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Topics returns the topics the session has joined.
func (s *Session) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

func (s *Session) inTopic(topicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.topics[topicID]
	return ok && !s.closed
}

// enqueue never blocks. The closed check and the channel send happen under
// the same lock as close, so nothing is queued after removal.
func (s *Session) enqueue(f Frame) enqueueResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sessionClosed
	}
	select {
	case s.out <- f:
		return enqueued
	default:
		return queueFull
	}
}

// close marks the session closed and returns the topics it was in. Only the
// first call reports true.
func (s *Session) close() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	s.closed = true
	close(s.out)
	topics := make([]string, 0, len(s.topics))
	for t := range s.topics {
		topics = append(topics, t)
	}
	s.topics = nil
	return topics, true
}

// writeLoop drains the outbound queue onto the connection. A failed write
// reports through onFailure and discards whatever is still queued.
func (s *Session) writeLoop(onFailure func(error)) {
	defer close(s.done)
	failed := false
	for f := range s.out {
		if failed {
			continue
		}
		if err := s.conn.Send(f); err != nil {
			failed = true
			onFailure(err)
		}
	}
	_ = s.conn.Close()
}
