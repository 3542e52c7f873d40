// Package server exposes the training-load pipeline and the task bridge
// over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"training-load/internal/config"
)

// NewServer creates an *http.Server from config with the provided handler.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// requireAPIKey validates the x-api-key header against the configured key.
// An unset key is a server misconfiguration, not an open door.
func requireAPIKey(apiKey string, logger zerolog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			writeError(w, http.StatusInternalServerError, "misconfigured", "server.api_key is not set")
			return
		}
		if r.Header.Get("x-api-key") != apiKey {
			logger.Warn().Str("path", r.URL.Path).Msg("rejected request with invalid api key")
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

// nowFunc is overridable in tests.
var nowFunc = time.Now
