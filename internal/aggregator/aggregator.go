// Package aggregator implements the core pipelines: realm aggregation
// from the upstream providers into one canonical record, and the single
// call profile fetch. Both persist through append-only record stores.
package aggregator

import (
	"context"

	"github.com/google/uuid"
	"github.com/realmtools/realmd/internal/game"
	"github.com/realmtools/realmd/internal/geoip"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/protocol"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/rs/zerolog/log"
)

// Gateway is the capability set the pipelines need from the upstream
// providers. Transport, credentials and timeouts live behind it.
type Gateway interface {
	RealmFromCode(ctx context.Context, code string) (*models.Descriptor, error)
	Address(ctx context.Context, realmID string) (host string, port int, err error)
	Ping(ctx context.Context, host string, port int) (*game.Pong, error)
	People(ctx context.Context, xuid string) (*models.PeopleDocument, error)
	Club(ctx context.Context, clubID string) (*models.ClubsDocument, error)
}

// realmIDLength is the exact length at which a code is treated as an
// already-resolved realm identifier rather than an invite code.
const realmIDLength = 8

// inviteURLPrefix is the public invite link base.
const inviteURLPrefix = "https://realms.gg/"

// Result is the outcome of one realm lookup. Exactly one field is set;
// the transport layer decides how to frame each case.
type Result struct {
	Realm *models.Realm
	Stub  *models.RealmStub
	Err   *models.AggregationError
}

// Body returns the JSON payload for the result.
func (r Result) Body() any {
	switch {
	case r.Realm != nil:
		return r.Realm
	case r.Stub != nil:
		return r.Stub
	default:
		return r.Err
	}
}

// Aggregator orchestrates the upstream lookups for one invite code and
// reconciles the results into a canonical Realm record.
type Aggregator struct {
	gateway     Gateway
	table       *protocol.Table
	store       *storage.Store[models.Realm]
	geo         *geoip.Provider // may be nil
	defaultPort int
	newID       func() string
}

// New creates an Aggregator. geo may be nil to disable country enrichment.
func New(gateway Gateway, table *protocol.Table, store *storage.Store[models.Realm], geo *geoip.Provider, defaultPort int) *Aggregator {
	return &Aggregator{
		gateway:     gateway,
		table:       table,
		store:       store,
		geo:         geo,
		defaultPort: defaultPort,
		newID:       uuid.NewString,
	}
}

// Resolve runs the aggregation pipeline for one code.
//
// Codes of exactly 8 characters are already realm identifiers: they
// short-circuit to a stub with no upstream calls and no persistence.
// Descriptor resolution failures (and any unexpected pipeline error)
// are reported as an AggregationError payload, never propagated.
func (a *Aggregator) Resolve(ctx context.Context, code string) Result {
	if len(code) == realmIDLength {
		return Result{Stub: &models.RealmStub{ID: code, Name: code}}
	}

	realm, err := a.aggregate(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("Realm lookup failed")
		return Result{Err: &models.AggregationError{RealmCode: code, Error: err.Error()}}
	}

	return Result{Realm: realm}
}

// aggregate performs the upstream calls in dependency order and
// assembles the canonical record. Only descriptor resolution and the
// final persistence can fail; every enrichment degrades per-field.
func (a *Aggregator) aggregate(ctx context.Context, code string) (*models.Realm, error) {
	descriptor, err := a.gateway.RealmFromCode(ctx, code)
	if err != nil {
		return nil, err
	}

	host := ""
	port := a.defaultPort
	server := models.DefaultServerStatus()

	if descriptor.State != models.StateClosed {
		addrHost, addrPort, err := a.gateway.Address(ctx, descriptor.ID)
		if err != nil {
			log.Debug().Err(err).Str("realm", descriptor.ID).Msg("Address lookup failed, no live status")
		} else {
			host = addrHost
			port = addrPort
			if a.geo != nil {
				server.CountryCode = a.geo.CountryCode(host)
			}

			pong, err := a.gateway.Ping(ctx, host, port)
			if err != nil {
				log.Debug().Err(err).Str("host", host).Int("port", port).Msg("Ping failed, no live status")
			} else {
				server.MOTD = pong.MOTD
				server.LevelName = pong.LevelName
				server.PlayersOnline = pong.PlayersOnline
				server.MaxPlayers = pong.PlayersMax
				server.Gamemode = gamemodeOrUnknown(pong.Gamemode)
				server.GamemodeID = pong.GamemodeID
				server.Version = pong.Version
				server.Protocol = a.table.Label(pong.ProtocolID)
				server.Invalid = false
			}
		}
	}

	owner := a.lookupOwner(ctx, descriptor.OwnerUUID)
	club := a.lookupClub(ctx, descriptor.ClubID)

	realm := &models.Realm{
		ID:                   descriptor.ID,
		IP:                   host,
		Port:                 port,
		RemoteSubscriptionID: nullable(descriptor.RemoteSubscriptionID),
		OwnerUUID:            descriptor.OwnerUUID,
		Name:                 descriptor.Name,
		MOTD:                 descriptor.MOTD,
		DefaultPermission:    descriptor.DefaultPermission,
		State:                descriptor.State,
		DaysLeft:             descriptor.DaysLeft,
		Expired:              descriptor.Expired,
		ExpiredTrial:         descriptor.ExpiredTrial,
		GracePeriod:          descriptor.GracePeriod,
		WorldType:            descriptor.WorldType,
		MaxPlayers:           descriptor.MaxPlayers,
		ClubID:               descriptor.ClubID,
		Member:               orEmpty(descriptor.Member),
		Invite: models.Invite{
			Code:      code,
			OwnerXUID: descriptor.OwnerUUID,
			CodeURL:   inviteURLPrefix + code,
		},
		Server:        server,
		ThumbnailID:   nullable(descriptor.ThumbnailID),
		MinigameName:  nullable(descriptor.MinigameName),
		MinigameID:    nullable(descriptor.MinigameID),
		MinigameImage: nullable(descriptor.MinigameImage),
		Owner:         owner,
		Club:          club,
		RequestID:     a.newID(),
	}

	if err := a.store.Append(*realm); err != nil {
		return nil, err
	}

	return realm, nil
}

// lookupOwner fetches the owner profile; every field degrades to its
// empty default when the provider fails or returns no people.
func (a *Aggregator) lookupOwner(ctx context.Context, xuid string) models.Owner {
	doc, err := a.gateway.People(ctx, xuid)
	if err != nil {
		log.Debug().Err(err).Str("xuid", xuid).Msg("Owner lookup failed, using defaults")
		return models.Owner{}
	}
	if len(doc.People) == 0 {
		return models.Owner{}
	}

	p := doc.People[0]
	return models.Owner{
		XUID:          p.XUID,
		DisplayName:   p.DisplayName,
		Gamertag:      p.Gamertag,
		GamerScore:    int(p.GamerScore),
		PresenceState: p.PresenceState,
		PresenceText:  p.PresenceText,
	}
}

// lookupClub fetches the club summary with the same degradation rules.
func (a *Aggregator) lookupClub(ctx context.Context, clubID string) models.Club {
	club := models.Club{Tags: []string{}}

	doc, err := a.gateway.Club(ctx, clubID)
	if err != nil {
		log.Debug().Err(err).Str("club", clubID).Msg("Club lookup failed, using defaults")
		return club
	}
	if len(doc.Clubs) == 0 {
		return club
	}

	c := doc.Clubs[0]
	return models.Club{
		ID:                 c.ID,
		Tags:               orEmpty(c.Tags),
		PreferredColor:     c.PreferredColor,
		MembersCount:       c.MembersCount,
		FollowersCount:     c.FollowersCount,
		ReportCount:        c.ReportCount,
		ReportedItemsCount: c.ReportedItemsCount,
	}
}

// Cached returns the most recently persisted record for a code, or nil.
func (a *Aggregator) Cached(code string) *models.Realm {
	records := a.store.All()
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Invite.Code == code {
			return &records[i]
		}
	}

	return nil
}

func gamemodeOrUnknown(mode string) string {
	if mode == "" {
		return "Unknown"
	}

	return mode
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
