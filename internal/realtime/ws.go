package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"bridges/internal/platform/config"
	"bridges/internal/platform/middleware"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

// Inbound frame types.
const (
	FrameTopicJoin  = "topic.join"
	FrameTopicLeave = "topic.leave"
	FrameTyping     = "typing"

	frameAck   = "ack"
	frameError = "error"
	frameReady = "ready"

	maxDecodeErrorsPerConn = 5
	maxInboundPayloadBytes = 4 << 10
	// Room for the envelope around a maximal payload.
	maxInboundFrameBytes = 2 * maxInboundPayloadBytes
)

// TypingHandler receives typing indicators from a connection.
type TypingHandler interface {
	Typing(ctx context.Context, connID id.ConnectionID, topicID string, isTyping bool) error
}

type inboundFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type topicPayload struct {
	TopicID string `json:"topicId"`
}

type typingPayload struct {
	TopicID  string `json:"topicId"`
	IsTyping bool   `json:"isTyping"`
}

type readyPayload struct {
	ConnectionID id.ConnectionID `json:"connectionId"`
	UserID       id.UserID       `json:"userId"`
}

type errorPayload struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WSHandler serves the websocket endpoint. The bearer token is checked
// before the upgrade so unauthenticated clients get a plain 401.
type WSHandler struct {
	router *Router
	typing TypingHandler
	cfg    config.RealtimeConfig
	logger *slog.Logger
}

func NewWSHandler(router *Router, typing TypingHandler, cfg config.RealtimeConfig, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{router: router, typing: typing, cfg: cfg, logger: logger}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := h.router.Authenticate(ctx, middleware.BearerToken(r, true))
	if err != nil {
		h.logger.WarnContext(ctx, "websocket handshake rejected",
			"request_id", requestcontext.RequestID(ctx),
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	meta := Meta{Device: DeviceLabel(r.UserAgent()), RemoteAddr: r.RemoteAddr}

	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(ctx, conn, userID, meta)
	}).ServeHTTP(w, r)
}

func (h *WSHandler) serve(ctx context.Context, ws *websocket.Conn, userID id.UserID, meta Meta) {
	ws.MaxPayloadBytes = maxInboundFrameBytes
	session := h.router.Admit(ctx, userID, &wsConn{ws: ws, writeTimeout: h.cfg.WriteTimeout}, meta)
	defer func() {
		h.router.Disconnect(session.ConnectionID)
		<-session.Done()
	}()

	ctx = requestcontext.WithConnectionID(requestcontext.WithUserID(ctx, userID), session.ConnectionID)
	h.reply(session, Frame{Type: frameReady, Payload: readyPayload{ConnectionID: session.ConnectionID, UserID: userID}})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.FramesPerSecond), h.cfg.FrameBurst)
	decodeErrors := 0
	for {
		var frame inboundFrame
		if err := websocket.JSON.Receive(ws, &frame); err != nil {
			// Anything but a malformed or oversized frame means the
			// connection is gone. An oversized frame is drained by the next
			// Receive without being decoded.
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case errors.Is(err, websocket.ErrFrameTooLarge):
				h.replyError(session, "", dErrors.New(dErrors.CodeBadRequest, "frame too large"))
			case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
				h.replyError(session, "", dErrors.New(dErrors.CodeBadRequest, "invalid frame"))
			default:
				return
			}
			decodeErrors++
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if !limiter.Allow() {
			h.replyError(session, frame.RequestID, dErrors.New(dErrors.CodeBadRequest, "rate limit exceeded"))
			h.logger.WarnContext(ctx, "websocket frame rate exceeded",
				"connection_id", session.ConnectionID.String(),
				"user_id", userID.String(),
			)
			return
		}
		if len(frame.Payload) > maxInboundPayloadBytes {
			h.replyError(session, frame.RequestID, dErrors.New(dErrors.CodeBadRequest, "payload too large"))
			continue
		}

		if err := h.handleFrame(ctx, session, frame); err != nil {
			h.replyError(session, frame.RequestID, err)
			continue
		}
		h.reply(session, Frame{Type: frameAck, RequestID: frame.RequestID, Payload: map[string]string{"type": frame.Type}})
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, session *Session, frame inboundFrame) error {
	switch frame.Type {
	case FrameTopicJoin:
		var p topicPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "invalid join payload")
		}
		return h.router.JoinTopic(ctx, session.ConnectionID, p.TopicID)
	case FrameTopicLeave:
		var p topicPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "invalid leave payload")
		}
		return h.router.LeaveTopic(session.ConnectionID, p.TopicID)
	case FrameTyping:
		if h.typing == nil {
			return dErrors.New(dErrors.CodeBadRequest, "typing indicators are not enabled")
		}
		var p typingPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "invalid typing payload")
		}
		return h.typing.Typing(ctx, session.ConnectionID, p.TopicID, p.IsTyping)
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unsupported frame type")
	}
}

// reply goes through the session queue so the writer goroutine stays the
// only one touching the socket.
func (h *WSHandler) reply(session *Session, frame Frame) {
	if session.enqueue(frame) == queueFull {
		h.router.Disconnect(session.ConnectionID)
	}
}

func (h *WSHandler) replyError(session *Session, requestID string, err error) {
	code := dErrors.CodeOf(err)
	payload := errorPayload{Error: string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		payload.Description = de.Message
	}
	h.reply(session, Frame{Type: frameError, RequestID: requestID, Payload: payload})
}

type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) Send(frame Frame) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return websocket.JSON.Send(c.ws, frame)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
