// Package realms implements the invite-resolution provider client: it
// turns an invitation code into a realm descriptor and resolves the
// network address of a running realm.
package realms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/realmtools/realmd/internal/auth"
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/models"
)

// ErrNotFound indicates the invite code did not resolve to a realm.
var ErrNotFound = errors.New("realms: realm not found")

// clientVersion is sent with every request; the upstream rejects calls
// from clients it considers too old.
const clientVersion = "1.21.70"

// Client talks to the Realms HTTP API.
type Client struct {
	base   string
	hc     *http.Client
	tokens auth.Provider
}

// New creates a realms API client.
func New(cfg config.Upstream, tokens auth.Provider) *Client {
	return &Client{
		base:   strings.TrimRight(cfg.RealmsURL, "/"),
		hc:     &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
	}
}

// wireRealm is the provider's realm document. Numeric ids arrive as
// JSON numbers and are normalized to strings.
type wireRealm struct {
	ID                   json.Number `json:"id"`
	RemoteSubscriptionID string      `json:"remoteSubscriptionId"`
	OwnerUUID            string      `json:"ownerUUID"`
	Name                 string      `json:"name"`
	Motd                 string      `json:"motd"`
	DefaultPermission    string      `json:"defaultPermission"`
	State                string      `json:"state"`
	DaysLeft             int         `json:"daysLeft"`
	Expired              bool        `json:"expired"`
	ExpiredTrial         bool        `json:"expiredTrial"`
	GracePeriod          bool        `json:"gracePeriodApproved"`
	WorldType            string      `json:"worldType"`
	MaxPlayers           int         `json:"maxPlayers"`
	ClubID               json.Number `json:"clubId"`
	Member               []string    `json:"member"`
	ThumbnailID          string      `json:"thumbnailId"`
	MinigameName         string      `json:"minigameName"`
	MinigameID           json.Number `json:"minigameId"`
	MinigameImage        string      `json:"minigameImage"`
}

// RealmFromCode resolves an invitation code to a realm descriptor.
func (c *Client) RealmFromCode(ctx context.Context, code string) (*models.Descriptor, error) {
	var w wireRealm
	if err := c.get(ctx, "/worlds/v1/link/"+code, &w); err != nil {
		return nil, err
	}

	return &models.Descriptor{
		ID:                   w.ID.String(),
		RemoteSubscriptionID: w.RemoteSubscriptionID,
		OwnerUUID:            w.OwnerUUID,
		Name:                 w.Name,
		MOTD:                 w.Motd,
		DefaultPermission:    w.DefaultPermission,
		State:                w.State,
		DaysLeft:             w.DaysLeft,
		Expired:              w.Expired,
		ExpiredTrial:         w.ExpiredTrial,
		GracePeriod:          w.GracePeriod,
		WorldType:            w.WorldType,
		MaxPlayers:           w.MaxPlayers,
		ClubID:               w.ClubID.String(),
		Member:               w.Member,
		ThumbnailID:          w.ThumbnailID,
		MinigameName:         w.MinigameName,
		MinigameID:           w.MinigameID.String(),
		MinigameImage:        w.MinigameImage,
	}, nil
}

// Address resolves the host and port of a running realm by id.
// The provider answers with a single "host:port" string.
func (c *Client) Address(ctx context.Context, realmID string, defaultPort int) (string, int, error) {
	var join struct {
		Address       string `json:"address"`
		PendingUpdate bool   `json:"pendingUpdate"`
	}
	if err := c.get(ctx, "/worlds/"+realmID+"/join", &join); err != nil {
		return "", 0, err
	}

	host, portStr, err := net.SplitHostPort(join.Address)
	if err != nil {
		// Bare host without a port
		return join.Address, defaultPort, nil //nolint:nilerr
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		port = defaultPort
	}

	return host, port, nil
}

// get performs an authorized GET and decodes the JSON response body.
func (c *Client) get(ctx context.Context, path string, out any) error {
	header, err := c.tokens.Header()
	if err != nil {
		return errors.Wrap(err, "authorization")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("Client-Version", clientVersion)
	req.Header.Set("User-Agent", "MCPE/UWP")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "realms request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		return ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("realms status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode realms response: %w", err)
	}

	return nil
}
