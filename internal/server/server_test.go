package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/realmtools/realmd/internal/aggregator"
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/game"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/protocol"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	descriptor *models.Descriptor
	realmErr   error
	peopleErr  error
}

func (g *stubGateway) RealmFromCode(_ context.Context, _ string) (*models.Descriptor, error) {
	if g.realmErr != nil {
		return nil, g.realmErr
	}
	return g.descriptor, nil
}

func (g *stubGateway) Address(_ context.Context, _ string) (string, int, error) {
	return "203.0.113.9", 19132, nil
}

func (g *stubGateway) Ping(_ context.Context, _ string, _ int) (*game.Pong, error) {
	return &game.Pong{
		MOTD:          "Test World",
		LevelName:     "world",
		PlayersOnline: 2,
		PlayersMax:    10,
		Gamemode:      "Survival",
		GamemodeID:    1,
		Version:       "1.21.70",
		ProtocolID:    786,
	}, nil
}

func (g *stubGateway) People(_ context.Context, xuid string) (*models.PeopleDocument, error) {
	if g.peopleErr != nil {
		return nil, g.peopleErr
	}
	return &models.PeopleDocument{People: []models.Person{{
		XUID:     xuid,
		Gamertag: "Steve",
	}}}, nil
}

func (g *stubGateway) Club(_ context.Context, _ string) (*models.ClubsDocument, error) {
	return &models.ClubsDocument{Clubs: []models.ClubInfo{{ID: "club-1"}}}, nil
}

func newTestHandler(t *testing.T, gw aggregator.Gateway, cfg *config.Config) (http.Handler, *Server) {
	t.Helper()

	dir := t.TempDir()

	realms, err := storage.Open[models.Realm](filepath.Join(dir, "realms.json"))
	require.NoError(t, err)
	profiles, err := storage.Open[models.PeopleDocument](filepath.Join(dir, "profiles.json"))
	require.NoError(t, err)

	table, err := protocol.Load("")
	require.NoError(t, err)

	agg := aggregator.New(gw, table, realms, nil, 19132)
	fetcher := aggregator.NewProfileFetcher(gw, profiles)

	srv := New(agg, fetcher, cfg)
	t.Cleanup(srv.Stop)

	return srv.Run(), srv
}

func defaultTestConfig() *config.Config {
	return &config.Config{
		RateLimit: config.RateLimit{
			HardLimitCount: 100,
			HardLimitWin:   time.Minute,
		},
	}
}

func TestHandleDocs(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realms/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Contains(t, doc, "realmsapi")
}

func TestHandleRealmSuccess(t *testing.T) {
	gw := &stubGateway{descriptor: &models.Descriptor{
		ID:         "12345678",
		Name:       "My Realm",
		State:      "OPEN",
		ClubID:     "club-1",
		OwnerUUID:  "2535400000000000",
		MaxPlayers: 10,
	}}

	handler, _ := newTestHandler(t, gw, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realms/ABC-DEF-GHI", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var realm models.Realm
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &realm))
	require.Equal(t, "12345678", realm.ID)
	require.Equal(t, "203.0.113.9", realm.IP)
	require.Equal(t, "Steve", realm.Owner.Gamertag)
	require.Equal(t, "ABC-DEF-GHI", realm.Invite.Code)
	require.NotEmpty(t, realm.RequestID)
}

func TestHandleRealmStub(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{realmErr: errors.New("must not be called")}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realms/12345678", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"12345678","name":"12345678"}`, rec.Body.String())
}

func TestHandleRealmErrorKeepsSuccessStatus(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{realmErr: errors.New("upstream gone")}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realms/BAD-CODE-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.AggregationError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Name)
	require.False(t, body.Valid)
	require.Equal(t, "BAD-CODE-1", body.RealmCode)
	require.Contains(t, body.Error, "upstream gone")
}

func TestHandleRealmSoftLimitServesFromStore(t *testing.T) {
	gw := &stubGateway{descriptor: &models.Descriptor{
		ID:    "12345678",
		Name:  "My Realm",
		State: "OPEN",
	}}

	cfg := defaultTestConfig()
	cfg.RateLimit.SoftLimitDur = time.Minute

	handler, _ := newTestHandler(t, gw, cfg)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/realms/ABC-DEF-GHI", nil))
	require.Equal(t, http.StatusOK, first.Code)

	// Poison the gateway: a repeat from the same IP must not reach it.
	gw.realmErr = errors.New("gateway hit during soft limit window")

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/realms/ABC-DEF-GHI", nil))
	require.Equal(t, http.StatusOK, second.Code)

	var realm models.Realm
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &realm))
	require.Equal(t, "12345678", realm.ID)
}

func TestHandleProfile(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/xbox/2535400000000000", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.People, 1)
	require.Equal(t, "Steve", resp.People[0].Gamertag)
	require.NotEmpty(t, resp.RequestID)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	require.NoError(t, err)
}

func TestHandleProfileFailure(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{peopleErr: errors.New("identity provider down")}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/xbox/2535400000000000", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var perr models.ProfileError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perr))
	require.NotEmpty(t, perr.Error)
	require.NotEmpty(t, perr.RequestID)
}

func TestHandleNotFound(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body models.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusNotFound, body.ErrorCode)
	require.Equal(t, "Page Not Found", body.Message)
	require.NotEmpty(t, body.RequestID)
}

func TestMetricsAuth(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.Server.AuthToken = "secret"

	handler, _ := newTestHandler(t, &stubGateway{}, cfg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "realmd_http_requests_total")
}

func TestHardRateLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.RateLimit.HardLimitCount = 2

	handler, _ := newTestHandler(t, &stubGateway{realmErr: errors.New("x")}, cfg)

	var last int
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/realms/SOME-CODE", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}

	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t, &stubGateway{}, defaultTestConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
