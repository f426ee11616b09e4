// Package fake provides utilities for generating random realm records for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/rs/zerolog/log"
)

// GenerateData populates the store with a specified number of randomized
// realm records. It simulates open and closed realms, world types and
// player counts.
func GenerateData(store *storage.Store[models.Realm], count int) {
	names := []string{"Skyblock Party", "Creative Corner", "Survival Friends", "Bedwars Arena", "The Long Grind"}
	gamemodes := []string{"Survival", "Creative", "Adventure"}
	worldTypes := []string{"NORMAL", "MINIGAME"}
	permissions := []string{"MEMBER", "VISITOR"}
	versions := []string{"1.21.60", "1.21.70", "1.21.80"}
	protocols := []string{"776", "786", "800"}
	countries := []string{"US", "DE", "BR", "GB", "JP", "AU"}

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%08d", rand.Intn(100000000))
		code := randomCode()
		closed := rand.Float32() < 0.2

		server := models.DefaultServerStatus()
		state := "OPEN"
		ip := ""
		port := 19132

		if !closed {
			v := rand.Intn(len(versions))
			ip = fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))
			server = models.ServerStatus{
				MOTD:          names[rand.Intn(len(names))],
				LevelName:     "world",
				PlayersOnline: rand.Intn(10),
				MaxPlayers:    10,
				Gamemode:      gamemodes[rand.Intn(len(gamemodes))],
				GamemodeID:    rand.Intn(3),
				Version:       versions[v],
				Protocol:      protocols[v],
				CountryCode:   countries[rand.Intn(len(countries))],
			}
		} else {
			state = models.StateClosed
		}

		xuid := fmt.Sprintf("%d", 2533274790000000+rand.Int63n(10000000))

		realm := models.Realm{
			ID:                id,
			IP:                ip,
			Port:              port,
			OwnerUUID:         xuid,
			Name:              names[rand.Intn(len(names))],
			MOTD:              names[rand.Intn(len(names))],
			DefaultPermission: permissions[rand.Intn(len(permissions))],
			State:             state,
			DaysLeft:          rand.Intn(30),
			WorldType:         worldTypes[rand.Intn(len(worldTypes))],
			MaxPlayers:        10,
			ClubID:            fmt.Sprintf("%d", 3379800000000000+rand.Int63n(10000000)),
			Member:            []string{},
			Invite: models.Invite{
				Code:      code,
				OwnerXUID: xuid,
				CodeURL:   "https://realms.gg/" + code,
			},
			Server: server,
			Owner: models.Owner{
				XUID:     xuid,
				Gamertag: fmt.Sprintf("Player%d", rand.Intn(10000)),
			},
			Club: models.Club{
				Tags:         []string{},
				MembersCount: rand.Intn(200),
			},
			RequestID: uuid.NewString(),
		}

		if err := store.Append(realm); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake realm")
		}

		if rand.Float32() < 0.2 { // 20% chance for a repeat lookup
			realm.RequestID = uuid.NewString()
			_ = store.Append(realm)
		}
	}
}

// randomCode builds an invite code in the public alphanumeric format.
func randomCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	code := make([]byte, 11)
	for i := range code {
		code[i] = alphabet[rand.Intn(len(alphabet))]
	}

	return string(code)
}
