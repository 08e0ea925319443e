package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bridges/internal/engagement"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

type Service interface {
	ToggleLike(ctx context.Context, actorID id.UserID, contentID id.ContentID) (bool, error)
	AddComment(ctx context.Context, actorID id.UserID, contentID id.ContentID, body string, parentID *id.CommentID) (*engagement.Comment, error)
	DeleteComment(ctx context.Context, actorID id.UserID, commentID id.CommentID) error
	ListComments(ctx context.Context, viewer *id.UserID, contentID id.ContentID, limit int) ([]*engagement.Comment, error)
}

type likeResponse struct {
	Liked bool `json:"liked"`
}

type commentRequest struct {
	Body     string `json:"body"`
	ParentID string `json:"parentId,omitempty"`
}

type commentsResponse struct {
	Items []*engagement.Comment `json:"items"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/bridges/{id}/likes", h.handleToggleLike)
	r.Post("/bridges/{id}/comments", h.handleAddComment)
	r.Delete("/comments/{id}", h.handleDeleteComment)
}

// RegisterPublic mounts comment reads, which follow the bridge's visibility.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/bridges/{id}/comments", h.handleListComments)
}

func (h *Handler) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentID, err := id.ParseContentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	liked, err := h.service.ToggleLike(ctx, requestcontext.UserID(ctx), contentID)
	if err != nil {
		h.logFailure(ctx, "toggle like", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, likeResponse{Liked: liked})
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentID, err := id.ParseContentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req commentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	var parentID *id.CommentID
	if req.ParentID != "" {
		parsed, err := id.ParseCommentID(req.ParentID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		parentID = &parsed
	}

	c, err := h.service.AddComment(ctx, requestcontext.UserID(ctx), contentID, req.Body, parentID)
	if err != nil {
		h.logFailure(ctx, "add comment", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentID, err := id.ParseContentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var viewer *id.UserID
	if userID, ok := requestcontext.Viewer(ctx); ok {
		viewer = &userID
	}
	items, err := h.service.ListComments(ctx, viewer, contentID, limit)
	if err != nil {
		h.logFailure(ctx, "list comments", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, commentsResponse{Items: items})
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID, err := id.ParseCommentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteComment(ctx, requestcontext.UserID(ctx), commentID); err != nil {
		h.logFailure(ctx, "delete comment", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
