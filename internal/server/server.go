// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/realmtools/realmd/internal/aggregator"
	"github.com/realmtools/realmd/internal/config"
)

// New creates a new Server instance with the provided pipelines and configuration.
func New(agg *aggregator.Aggregator, profiles *aggregator.ProfileFetcher, cfg *config.Config) *Server {
	return &Server{
		aggregator:     agg,
		profiles:       profiles,
		metrics:        newMetrics(),
		authToken:      cfg.Server.AuthToken,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		softLimitDur:   cfg.RateLimit.SoftLimitDur,

		shutdown: make(chan struct{}),
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/realms/{$}", http.HandlerFunc(s.handleDocs))
	mux.Handle("GET /api/realms/{code}", s.RateLimitMiddleware(http.HandlerFunc(s.handleRealm)))
	mux.Handle("GET /api/xbox/{xuid}", s.RateLimitMiddleware(http.HandlerFunc(s.handleProfile)))

	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealthz))
	mux.Handle("GET /metrics", AdminAuthMiddleware(s.authToken, s.metrics.Handler()))

	// Everything else answers with the JSON not-found body
	mux.Handle("/", http.HandlerFunc(s.handleNotFound))

	if s.softLimitDur > 0 {
		go s.gcSeenCache()
	}

	return s.RecoveryMiddleware(s.LoggingMiddleware(mux))
}

// Stop signals background routines to exit.
func (s *Server) Stop() {
	close(s.shutdown)
}

// gcSeenCache periodically cleans up expired entries from the soft-limit cache.
func (s *Server) gcSeenCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.seenCache.Range(func(key, value interface{}) bool {
				if t, ok := value.(time.Time); ok {
					if now.Sub(t) > s.softLimitDur {
						s.seenCache.Delete(key)
					}
				} else {
					s.seenCache.Delete(key)
				}
				return true
			})
		}
	}
}
