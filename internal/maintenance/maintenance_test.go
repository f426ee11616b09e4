package maintenance

import (
	"path/filepath"
	"testing"

	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, records []models.Realm) *storage.Store[models.Realm] {
	t.Helper()

	store, err := storage.Open[models.Realm](filepath.Join(t.TempDir(), "realms.json"))
	require.NoError(t, err)

	for _, r := range records {
		require.NoError(t, store.Append(r))
	}

	return store
}

func TestRunNoFlags(t *testing.T) {
	store := openStore(t, nil)
	require.False(t, Run(&config.Config{}, store))
}

func TestCompactKeepsNewest(t *testing.T) {
	store := openStore(t, []models.Realm{
		{ID: "11111111", RequestID: "old"},
		{ID: "22222222", RequestID: "only"},
		{ID: "11111111", RequestID: "new"},
	})

	cfg := &config.Config{}
	cfg.Storage.Compact = true
	require.True(t, Run(cfg, store))

	records := store.All()
	require.Len(t, records, 2)
	require.Equal(t, "only", records[0].RequestID)
	require.Equal(t, "new", records[1].RequestID)
}

func TestPruneInvalid(t *testing.T) {
	store := openStore(t, []models.Realm{
		{ID: "11111111", Server: models.DefaultServerStatus()},
		{ID: "22222222", Server: models.ServerStatus{Invalid: false}},
	})

	cfg := &config.Config{}
	cfg.Storage.PruneInvalid = true
	require.True(t, Run(cfg, store))

	records := store.All()
	require.Len(t, records, 1)
	require.Equal(t, "22222222", records[0].ID)
}
