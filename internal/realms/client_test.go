package realms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/realmtools/realmd/internal/auth"
	"github.com/realmtools/realmd/internal/config"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Upstream{RealmsURL: srv.URL}
	tokens := auth.Static{Credentials: auth.Credentials{UserHash: "uhs", XSTSToken: "token"}}

	return New(cfg, tokens)
}

func TestRealmFromCode(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/worlds/v1/link/ABC-DEF-GHI", r.URL.Path)
		require.Equal(t, "XBL3.0 x=uhs;token", r.Header.Get("Authorization"))
		require.Equal(t, "1.21.70", r.Header.Get("Client-Version"))
		require.Equal(t, "MCPE/UWP", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 12345678,
			"ownerUUID": "2535400000000000",
			"name": "My Realm",
			"motd": "welcome",
			"state": "OPEN",
			"maxPlayers": 10,
			"clubId": 3379800000000001,
			"member": ["a", "b"]
		}`))
	})

	d, err := client.RealmFromCode(context.Background(), "ABC-DEF-GHI")
	require.NoError(t, err)
	require.Equal(t, "12345678", d.ID)
	require.Equal(t, "My Realm", d.Name)
	require.Equal(t, "welcome", d.MOTD)
	require.Equal(t, "3379800000000001", d.ClubID)
	require.Equal(t, []string{"a", "b"}, d.Member)
}

func TestRealmFromCodeNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden} {
		client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.RealmFromCode(context.Background(), "NOPE")
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestAddress(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/worlds/12345678/join", r.URL.Path)
		_, _ = w.Write([]byte(`{"address": "203.0.113.9:25565", "pendingUpdate": false}`))
	})

	host, port, err := client.Address(context.Background(), "12345678", 19132)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.9", host)
	require.Equal(t, 25565, port)
}

func TestAddressWithoutPort(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address": "203.0.113.9"}`))
	})

	host, port, err := client.Address(context.Background(), "12345678", 19132)
	require.NoError(t, err)
	require.Equal(t, "203.0.113.9", host)
	require.Equal(t, 19132, port)
}

func TestEmptyCredentials(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent without credentials")
	})
	client.tokens = auth.Static{}

	_, err := client.RealmFromCode(context.Background(), "ABC-DEF-GHI")
	require.ErrorIs(t, err, auth.ErrEmptyCredentials)
}
