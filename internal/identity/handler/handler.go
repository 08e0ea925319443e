package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bridges/internal/identity"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

// Service is the account surface the handler needs.
type Service interface {
	Profile(ctx context.Context, userID id.UserID) (*identity.Profile, error)
	SetPrivacy(ctx context.Context, userID id.UserID, private bool) (*identity.Account, error)
}

type updateMeRequest struct {
	IsPrivate *bool `json:"isPrivate"`
}

// Handler serves profile and account-settings endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. Callers wrap r with RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{id}", h.handleGetProfile)
	r.Get("/me", h.handleGetMe)
	r.Patch("/me", h.handleUpdateMe)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, requestcontext.UserID(r.Context()))
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.logFailure(r.Context(), "get profile", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateMeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.IsPrivate == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "isPrivate is required"))
		return
	}

	userID := requestcontext.UserID(ctx)
	if _, err := h.service.SetPrivacy(ctx, userID, *req.IsPrivate); err != nil {
		h.logFailure(ctx, "update privacy", err)
		httputil.WriteError(w, err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
