// Package maintenance provides one-shot cleanup tasks for the realm record store.
package maintenance

import (
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/rs/zerolog/log"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Store[models.Realm]) bool {
	ran := false

	if cfg.Storage.Compact {
		ran = true
		log.Info().Int("records", store.Len()).Msg("Compacting realm records...")

		removed, err := compact(store)
		if err != nil {
			log.Error().Err(err).Msg("Failed to compact records")
		} else {
			log.Info().Int("removed", removed).Int("kept", store.Len()).Msg("Compact finished")
		}
	}

	if cfg.Storage.PruneInvalid {
		ran = true
		log.Info().Int("records", store.Len()).Msg("Pruning records without live status...")

		removed, err := pruneInvalid(store)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune records")
		} else {
			log.Info().Int("removed", removed).Int("kept", store.Len()).Msg("Prune finished")
		}
	}

	return ran
}

// compact keeps only the newest append per realm id, preserving the
// relative order of the survivors.
func compact(store *storage.Store[models.Realm]) (int, error) {
	records := store.All()

	newest := make(map[string]int, len(records))
	for i, r := range records {
		newest[r.ID] = i
	}

	kept := make([]models.Realm, 0, len(newest))
	for i, r := range records {
		if newest[r.ID] == i {
			kept = append(kept, r)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	return removed, store.Replace(kept)
}

// pruneInvalid drops records whose server status was never obtained.
func pruneInvalid(store *storage.Store[models.Realm]) (int, error) {
	records := store.All()

	kept := make([]models.Realm, 0, len(records))
	for _, r := range records {
		if !r.Server.Invalid {
			kept = append(kept, r)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	return removed, store.Replace(kept)
}
