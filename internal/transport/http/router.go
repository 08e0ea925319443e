package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bridges/internal/platform/metrics"
	"bridges/internal/platform/middleware"
	"bridges/pkg/platform/httputil"
	"bridges/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// PublicRoutes is implemented by handlers that also serve anonymous reads.
type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// Deps is everything the HTTP surface needs. Handlers that also implement
// PublicRoutes get their public routes mounted behind OptionalAuth.
type Deps struct {
	Verifier     middleware.TokenVerifier
	Handlers     []Routes
	Realtime     http.Handler
	Metrics      *metrics.Metrics
	HealthChecks map[string]HealthCheck
	Logger       *slog.Logger
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestContext)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.LatencyMiddleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/health", healthHandler(deps.HealthChecks, logger))
	if deps.Realtime != nil {
		r.Method(http.MethodGet, "/ws", deps.Realtime)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(deps.Verifier, logger))
		for _, h := range deps.Handlers {
			if public, ok := h.(PublicRoutes); ok {
				public.RegisterPublic(r)
			}
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Verifier, logger))
		for _, h := range deps.Handlers {
			h.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
