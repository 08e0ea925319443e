package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bridges/internal/messaging"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

type Service interface {
	Send(ctx context.Context, senderID, recipientID id.UserID, body string) (*messaging.Message, error)
	Conversation(ctx context.Context, viewerID, otherID id.UserID, limit int) ([]*messaging.Message, error)
}

type sendRequest struct {
	Body string `json:"body"`
}

type conversationResponse struct {
	TopicID string               `json:"topicId"`
	Items   []*messaging.Message `json:"items"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/messages/{id}", h.handleSend)
	r.Get("/messages/{id}", h.handleConversation)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipientID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req sendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.service.Send(ctx, requestcontext.UserID(ctx), recipientID, req.Body)
	if err != nil {
		h.logFailure(ctx, "send message", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	otherID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	viewerID := requestcontext.UserID(ctx)
	items, err := h.service.Conversation(ctx, viewerID, otherID, limit)
	if err != nil {
		h.logFailure(ctx, "list conversation", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, conversationResponse{
		TopicID: messaging.ConversationTopic(viewerID, otherID),
		Items:   items,
	})
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.DebugContext(ctx, op+" rejected",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
