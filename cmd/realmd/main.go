// main is the entry point of the Realmd application.
// It initializes the configuration, logger, stores, GeoIP provider,
// upstream gateway, and starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realmtools/realmd/internal/aggregator"
	"github.com/realmtools/realmd/internal/auth"
	"github.com/realmtools/realmd/internal/config"
	"github.com/realmtools/realmd/internal/fake"
	"github.com/realmtools/realmd/internal/geoip"
	"github.com/realmtools/realmd/internal/logger"
	"github.com/realmtools/realmd/internal/maintenance"
	"github.com/realmtools/realmd/internal/models"
	"github.com/realmtools/realmd/internal/protocol"
	"github.com/realmtools/realmd/internal/server"
	"github.com/realmtools/realmd/internal/storage"
	"github.com/realmtools/realmd/internal/upstream"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting realmd service...")

	// GeoIP Update
	var geoProvider *geoip.Provider
	if !cfg.GeoIP.Disable {
		log.Info().Msg("Checking GeoIP database...")
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		provider, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		} else {
			geoProvider = provider
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// Record stores
	realmStore, err := storage.Open[models.Realm](cfg.Storage.RealmsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open realm record store")
	}

	profileStore, err := storage.Open[models.PeopleDocument](cfg.Storage.ProfilesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open profile record store")
	}

	// data generation or store maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(realmStore, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, realmStore) {
		return
	}

	// Protocol version table
	table, err := protocol.Load(cfg.Storage.ProtocolPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load protocol version table")
	}
	log.Debug().Int("entries", table.Len()).Msg("Protocol version table loaded")

	// Upstream credentials
	var tokens auth.Provider
	if cfg.Auth.UserHash != "" && cfg.Auth.XSTSToken != "" {
		tokens = auth.Static{Credentials: auth.Credentials{
			UserHash:  cfg.Auth.UserHash,
			XSTSToken: cfg.Auth.XSTSToken,
		}}
	} else {
		provider := auth.NewFileProvider(cfg.Auth.TokenFile)
		if _, _, err := provider.Load(); err != nil {
			log.Warn().Err(err).Str("path", cfg.Auth.TokenFile).Msg("Credentials not loaded yet, lookups will fail until the file appears")
		}
		if cfg.Auth.Watch {
			if err := provider.Watch(); err != nil {
				log.Error().Err(err).Msg("Failed to watch credential file")
			}
		}
		tokens = provider
	}

	// Pipelines
	gateway := upstream.New(cfg, tokens)
	agg := aggregator.New(gateway, table, realmStore, geoProvider, cfg.Ping.DefaultPort)
	profiles := aggregator.NewProfileFetcher(gateway, profileStore)

	// Init server
	srvHandler := server.New(agg, profiles, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	srvHandler.Stop()

	log.Info().Msg("Server exited")
}
