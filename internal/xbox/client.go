// Package xbox implements the people and club provider clients used to
// enrich realm records with owner identity data.
package xbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/realmtools/realmd/internal/auth"
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/models"
)

// Client talks to the people hub and club hub HTTP APIs.
type Client struct {
	peopleBase string
	clubBase   string
	hc         *http.Client
	tokens     auth.Provider
}

// New creates an identity client.
func New(cfg config.Upstream, tokens auth.Provider) *Client {
	return &Client{
		peopleBase: strings.TrimRight(cfg.PeopleURL, "/"),
		clubBase:   strings.TrimRight(cfg.ClubURL, "/"),
		hc:         &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
	}
}

// People looks up a player profile document by XUID. An unknown id is
// not an error; the provider answers with an empty people array.
func (c *Client) People(ctx context.Context, xuid string) (*models.PeopleDocument, error) {
	url := c.peopleBase + "/users/me/people/xuids(" + xuid + ")/decoration/detail,presenceDetail"

	var doc models.PeopleDocument
	if err := c.get(ctx, url, "3", &doc); err != nil {
		return nil, err
	}

	if doc.People == nil {
		doc.People = []models.Person{}
	}

	return &doc, nil
}

// Club looks up a club document by club id.
func (c *Client) Club(ctx context.Context, clubID string) (*models.ClubsDocument, error) {
	url := c.clubBase + "/clubs/Ids(" + clubID + ")/decoration/detail"

	var doc models.ClubsDocument
	if err := c.get(ctx, url, "4", &doc); err != nil {
		return nil, err
	}

	if doc.Clubs == nil {
		doc.Clubs = []models.ClubInfo{}
	}

	return &doc, nil
}

// get performs an authorized GET against an Xbox Live hub endpoint.
func (c *Client) get(ctx context.Context, url, contractVersion string, out any) error {
	header, err := c.tokens.Header()
	if err != nil {
		return errors.Wrap(err, "authorization")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("X-XBL-Contract-Version", contractVersion)
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "xbox request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("xbox status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
