package aggregator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/stretchr/testify/require"
)

func profileStore(t *testing.T) *storage.Store[models.PeopleDocument] {
	t.Helper()
	store, err := storage.Open[models.PeopleDocument](filepath.Join(t.TempDir(), "xboxusers.json"))
	require.NoError(t, err)
	return store
}

func TestProfileResolveSuccess(t *testing.T) {
	doc := &models.PeopleDocument{People: []models.Person{{
		XUID:        "000900",
		DisplayName: "Player",
		Gamertag:    "PlayerTag",
		GamerScore:  models.FlexInt(300),
	}}}
	gw := &fakeGateway{people: doc}
	store := profileStore(t)

	f := NewProfileFetcher(gw, store)

	resp, perr := f.Resolve(context.Background(), "000900")
	require.Nil(t, perr)
	require.NotNil(t, resp)

	require.Equal(t, doc.People, resp.People)
	require.NotEmpty(t, resp.RequestID)

	ts, err := time.Parse(time.RFC3339, resp.Timestamp)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ts, time.Minute)

	// Persisted copy is the raw document, without request metadata
	require.Equal(t, 1, store.Len())
	require.Equal(t, *doc, store.All()[0])
}

func TestProfileResolveEmptyPeople(t *testing.T) {
	gw := &fakeGateway{people: &models.PeopleDocument{People: []models.Person{}}}
	store := profileStore(t)

	f := NewProfileFetcher(gw, store)

	resp, perr := f.Resolve(context.Background(), "000900")
	require.Nil(t, perr, "an unknown id is not an error")
	require.NotNil(t, resp)
	require.Empty(t, resp.People)
	require.Equal(t, 1, store.Len(), "empty documents still persist")
}

func TestProfileResolveFailure(t *testing.T) {
	gw := &fakeGateway{peopleErr: context.DeadlineExceeded}
	store := profileStore(t)

	f := NewProfileFetcher(gw, store)

	resp, perr := f.Resolve(context.Background(), "000900")
	require.Nil(t, resp)
	require.NotNil(t, perr)
	require.NotEmpty(t, perr.RequestID)
	require.NotEmpty(t, perr.Message)
	require.Equal(t, 0, store.Len())
}
