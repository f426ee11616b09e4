package server

import (
	"sync"
	"time"

	"github.com/realmtools/realmd/internal/aggregator"
)

// Server holds the dependencies, configuration, and runtime state
// required to handle HTTP requests.
type Server struct {
	// aggregator runs the realm lookup pipeline.
	aggregator *aggregator.Aggregator

	// profiles runs the profile lookup pipeline.
	profiles *aggregator.ProfileFetcher

	// metrics is the Prometheus collector bundle for this server.
	metrics *Metrics

	// seenCache tracks recently aggregated (ip, code) pairs by hash.
	// It backs the soft-limit logic that serves repeat lookups from the
	// store instead of hitting the upstream providers again.
	seenCache sync.Map

	// authToken is the secret protecting the metrics endpoint.
	// When empty the endpoint is served without authentication.
	authToken string

	// hardLimitCount is the maximum number of requests allowed per IP
	// address within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// softLimitDur is the window within which a repeated lookup of the
	// same code from the same IP is answered from the store. Zero
	// disables the soft limit entirely.
	softLimitDur time.Duration

	// trustProxy indicates whether headers like X-Forwarded-For are
	// trusted when determining the client's real IP address.
	trustProxy bool

	// shutdown broadcasts a stop signal to background routines.
	shutdown chan struct{}
}
