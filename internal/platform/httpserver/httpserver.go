package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// New builds the HTTP server. Only header reads are bounded since websocket
// connections are long-lived. Shutdown does not track hijacked connections,
// so onShutdown hooks run when Shutdown starts to release them.
func New(addr string, handler http.Handler, logger *slog.Logger, onShutdown ...func()) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	for _, fn := range onShutdown {
		srv.RegisterOnShutdown(fn)
	}
	return srv
}
