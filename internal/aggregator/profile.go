package aggregator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/rs/zerolog/log"
)

// ProfileFetcher runs the single-provider profile lookup and persists
// the raw document to its own store. The response carries a request id
// and timestamp the persisted record deliberately does not.
type ProfileFetcher struct {
	gateway Gateway
	store   *storage.Store[models.PeopleDocument]
	newID   func() string
	now     func() time.Time
}

// NewProfileFetcher creates a ProfileFetcher.
func NewProfileFetcher(gateway Gateway, store *storage.Store[models.PeopleDocument]) *ProfileFetcher {
	return &ProfileFetcher{
		gateway: gateway,
		store:   store,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Resolve looks up the profile for one XUID. Exactly one return value
// is non-nil.
func (f *ProfileFetcher) Resolve(ctx context.Context, xuid string) (*models.ProfileResponse, *models.ProfileError) {
	doc, err := f.gateway.People(ctx, xuid)
	if err != nil {
		log.Error().Err(err).Str("xuid", xuid).Msg("Profile lookup failed")
		return nil, &models.ProfileError{
			Error:     "Failed to fetch profile data",
			RequestID: f.newID(),
			Message:   err.Error(),
		}
	}

	// The raw document is persisted; augmentation is response-only.
	if err := f.store.Append(*doc); err != nil {
		log.Error().Err(err).Str("xuid", xuid).Msg("Failed to persist profile record")
		return nil, &models.ProfileError{
			Error:     "Failed to persist profile data",
			RequestID: f.newID(),
			Message:   err.Error(),
		}
	}

	return &models.ProfileResponse{
		PeopleDocument: *doc,
		RequestID:      f.newID(),
		Timestamp:      f.now().UTC().Format(time.RFC3339),
	}, nil
}
