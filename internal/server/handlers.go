package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/realmtools/realmd/assets"
	"github.com/realmtools/realmd/internal/models"
	"github.com/rs/zerolog/log"
)

// handleDocs serves the self-describing documentation and Realm schema document.
func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	content, err := assets.ReadFile("data/docs.min.json")
	if err != nil {
		log.Error().Err(err).Msg("Failed to read docs asset")
		respondJSON(w, http.StatusInternalServerError, models.APIError{
			ErrorCode: http.StatusInternalServerError,
			Message:   "documentation unavailable",
			RequestID: uuid.NewString(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(content)
}

// handleRealm resolves an invite code through the aggregation pipeline.
// Both outcomes are answered with success framing; the body carries
// either the canonical record or the structured lookup error.
func (s *Server) handleRealm(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	// Soft limit: answer a repeat lookup from the store instead of
	// re-aggregating. Stub codes bypass it, they are side-effect free.
	if s.softLimitDur > 0 && len(code) != 8 {
		softKey := xxhash.Sum64String(GetRealIP(r, s.trustProxy) + ":" + code)
		if val, ok := s.seenCache.Load(softKey); ok {
			if lastSeen, ok := val.(time.Time); ok && time.Since(lastSeen) < s.softLimitDur {
				if cached := s.aggregator.Cached(code); cached != nil {
					log.Trace().Str("code", code).Msg("Lookup served from store by soft limit")
					s.metrics.IncLookup("cached")
					respondJSON(w, http.StatusOK, cached)
					return
				}
			}
		}
		s.seenCache.Store(softKey, time.Now())
	}

	result := s.aggregator.Resolve(r.Context(), code)

	switch {
	case result.Stub != nil:
		s.metrics.IncLookup("stub")
	case result.Realm != nil:
		s.metrics.IncLookup("realm")
	default:
		s.metrics.IncLookup("error")
	}

	respondJSON(w, http.StatusOK, result.Body())
}

// handleProfile resolves a profile by XUID.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	xuid := r.PathValue("xuid")

	resp, perr := s.profiles.Resolve(r.Context(), xuid)
	if perr != nil {
		s.metrics.IncProfile("error")
		respondJSON(w, http.StatusInternalServerError, perr)
		return
	}

	s.metrics.IncProfile("ok")
	respondJSON(w, http.StatusOK, resp)
}

// handleHealthz reports process liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleNotFound answers unmatched routes with the JSON not-found body.
func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusNotFound, models.APIError{
		ErrorCode: http.StatusNotFound,
		Message:   "Page Not Found",
		RequestID: uuid.NewString(),
	})
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
