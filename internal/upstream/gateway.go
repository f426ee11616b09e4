// Package upstream bundles the provider clients into the single gateway
// the aggregation pipeline depends on.
package upstream

import (
	"context"
	"time"

	"github.com/realmtools/realmd/internal/auth"
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/game"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/realms"
	"github.com/realmtools/realmd/internal/xbox"
	"github.com/rs/zerolog/log"
)

// Gateway performs the upstream lookups against the real providers.
// The non-fatal enrichment calls (ping, people, club) are retried a
// bounded number of times with a short backoff; descriptor resolution
// is never retried since its failure aborts the whole aggregation.
type Gateway struct {
	realms  *realms.Client
	xbox    *xbox.Client
	ping    config.Ping
	retries int
	backoff time.Duration
}

// New creates a Gateway wired to the configured provider endpoints.
func New(cfg *config.Config, tokens auth.Provider) *Gateway {
	return &Gateway{
		realms:  realms.New(cfg.Upstream, tokens),
		xbox:    xbox.New(cfg.Upstream, tokens),
		ping:    cfg.Ping,
		retries: cfg.Upstream.Retries,
		backoff: cfg.Upstream.Backoff,
	}
}

// RealmFromCode resolves an invitation code to a realm descriptor.
func (g *Gateway) RealmFromCode(ctx context.Context, code string) (*models.Descriptor, error) {
	return g.realms.RealmFromCode(ctx, code)
}

// Address resolves the network address of a running realm.
func (g *Gateway) Address(ctx context.Context, realmID string) (string, int, error) {
	return g.realms.Address(ctx, realmID, g.ping.DefaultPort)
}

// Ping queries the live server status.
func (g *Gateway) Ping(ctx context.Context, host string, port int) (*game.Pong, error) {
	var pong *game.Pong
	err := g.withRetry(ctx, "ping", func() error {
		var err error
		pong, err = game.Query(ctx, host, port, g.ping)
		return err
	})

	return pong, err
}

// People looks up a player profile document.
func (g *Gateway) People(ctx context.Context, xuid string) (*models.PeopleDocument, error) {
	var doc *models.PeopleDocument
	err := g.withRetry(ctx, "people", func() error {
		var err error
		doc, err = g.xbox.People(ctx, xuid)
		return err
	})

	return doc, err
}

// Club looks up a club document.
func (g *Gateway) Club(ctx context.Context, clubID string) (*models.ClubsDocument, error) {
	var doc *models.ClubsDocument
	err := g.withRetry(ctx, "club", func() error {
		var err error
		doc, err = g.xbox.Club(ctx, clubID)
		return err
	})

	return doc, err
}

// withRetry runs fn up to retries+1 times, waiting backoff between attempts.
func (g *Gateway) withRetry(ctx context.Context, name string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.backoff):
			}

			log.Debug().Str("call", name).Int("attempt", attempt+1).Msg("Retrying upstream call")
		}

		if err = fn(); err == nil {
			return nil
		}
	}

	return err
}
