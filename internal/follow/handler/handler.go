package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bridges/internal/follow"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

// Service is the follow graph surface the handler drives.
type Service interface {
	RequestFollow(ctx context.Context, actorID, targetID id.UserID) (*follow.Edge, error)
	Approve(ctx context.Context, targetID, requesterID id.UserID) (*follow.Edge, error)
	Reject(ctx context.Context, targetID, requesterID id.UserID) error
	Unfollow(ctx context.Context, actorID, targetID id.UserID) error
	Status(ctx context.Context, viewerID, targetID id.UserID) (follow.FollowStatus, error)
	ListFollowers(ctx context.Context, userID id.UserID, limit int) ([]*follow.Edge, error)
	ListFollowing(ctx context.Context, userID id.UserID, limit int) ([]*follow.Edge, error)
	ListPendingRequests(ctx context.Context, targetID id.UserID, limit int) ([]*follow.Edge, error)
}

const (
	actionAccept = "accept"
	actionReject = "reject"
)

type respondRequest struct {
	Action string `json:"action"`
}

type statusResponse struct {
	Status follow.Status `json:"status"`
}

type edgesResponse struct {
	Items []*follow.Edge `json:"items"`
}

// Handler serves the follow endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. Callers wrap r with RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/follows/requests", h.handleListRequests)
	r.Post("/follows/{id}", h.handleRequestFollow)
	r.Delete("/follows/{id}", h.handleUnfollow)
	r.Patch("/follows/{id}", h.handleRespond)
	r.Get("/follows/{id}/status", h.handleStatus)
	r.Get("/users/{id}/followers", h.handleListFollowers)
	r.Get("/users/{id}/following", h.handleListFollowing)
}

func (h *Handler) handleRequestFollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	edge, err := h.service.RequestFollow(ctx, requestcontext.UserID(ctx), target)
	if err != nil {
		h.logFailure(ctx, "request follow", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: edge.Status})
}

func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Unfollow(ctx, requestcontext.UserID(ctx), target); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteErrorCode(w, http.StatusBadRequest, "not_following", "you are not following this user")
			return
		}
		h.logFailure(ctx, "unfollow", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req respondRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	viewer := requestcontext.UserID(ctx)
	switch req.Action {
	case actionAccept:
		edge, err := h.service.Approve(ctx, viewer, requester)
		if err != nil {
			h.writeRespondError(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: edge.Status})
	case actionReject:
		if err := h.service.Reject(ctx, viewer, requester); err != nil {
			h.writeRespondError(ctx, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{})
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "action must be accept or reject"))
	}
}

func (h *Handler) writeRespondError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		httputil.WriteErrorCode(w, http.StatusNotFound, "no_pending_request", "no pending follow request from this user")
		return
	}
	h.logFailure(ctx, "respond to follow request", err)
	httputil.WriteError(w, err)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.Status(ctx, requestcontext.UserID(ctx), target)
	if err != nil {
		h.logFailure(ctx, "follow status", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	edges, err := h.service.ListPendingRequests(ctx, requestcontext.UserID(ctx), limitParam(r))
	h.writeEdges(ctx, w, edges, err)
}

func (h *Handler) handleListFollowers(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	edges, err := h.service.ListFollowers(r.Context(), userID, limitParam(r))
	h.writeEdges(r.Context(), w, edges, err)
}

func (h *Handler) handleListFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	edges, err := h.service.ListFollowing(r.Context(), userID, limitParam(r))
	h.writeEdges(r.Context(), w, edges, err)
}

func (h *Handler) writeEdges(ctx context.Context, w http.ResponseWriter, edges []*follow.Edge, err error) {
	if err != nil {
		h.logFailure(ctx, "list edges", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, edgesResponse{Items: edges})
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

// limitParam reads ?limit; the service clamps out-of-range values.
func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}
