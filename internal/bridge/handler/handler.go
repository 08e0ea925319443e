package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bridges/internal/bridge"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

// Service is the content surface the handler drives.
type Service interface {
	Create(ctx context.Context, ownerID id.UserID, body, level string) (*bridge.Bridge, error)
	Get(ctx context.Context, viewer *id.UserID, contentID id.ContentID) (*bridge.Bridge, error)
	ListByOwner(ctx context.Context, viewer *id.UserID, ownerID id.UserID, limit int) ([]*bridge.Bridge, error)
	Delete(ctx context.Context, actorID id.UserID, contentID id.ContentID) error
}

type createRequest struct {
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
}

type listResponse struct {
	Items []*bridge.Bridge `json:"items"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes that require an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bridges", h.handleCreate)
	r.Delete("/bridges/{id}", h.handleDelete)
}

// RegisterPublic mounts the read routes. Anonymous callers only see public
// bridges.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/bridges/{id}", h.handleGet)
	r.Get("/users/{id}/bridges", h.handleListByOwner)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Visibility == "" {
		req.Visibility = "public"
	}

	b, err := h.service.Create(ctx, requestcontext.UserID(ctx), req.Body, req.Visibility)
	if err != nil {
		h.logFailure(ctx, "create bridge", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentID, err := id.ParseContentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.Get(ctx, viewer(ctx), contentID)
	if err != nil {
		h.logFailure(ctx, "get bridge", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.ListByOwner(ctx, viewer(ctx), ownerID, limit)
	if err != nil {
		h.logFailure(ctx, "list bridges", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Items: items})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentID, err := id.ParseContentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), contentID); err != nil {
		h.logFailure(ctx, "delete bridge", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func viewer(ctx context.Context) *id.UserID {
	if userID, ok := requestcontext.Viewer(ctx); ok {
		return &userID
	}
	return nil
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
