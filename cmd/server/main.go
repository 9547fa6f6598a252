package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/api"
	"github.com/TahlesAi/tahles-sub000/internal/catalog"
	"github.com/TahlesAi/tahles-sub000/internal/clock"
	"github.com/TahlesAi/tahles-sub000/internal/config"
	"github.com/TahlesAi/tahles-sub000/internal/models"
	"github.com/TahlesAi/tahles-sub000/internal/service"
)

// setupLogging configures structured logging
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	setupLogging()

	cfg := config.LoadConfig()
	log.Info().
		Str("instance_id", cfg.InstanceID).
		Str("environment", cfg.Environment).
		Dur("hold_ttl", cfg.HoldTTL).
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("catalog_ttl", cfg.CatalogTTL).
		Msg("Configuration loaded")

	clk := clock.NewSystem()

	availabilitySvc := service.NewAvailabilityService(clk)

	holdSvc, err := service.NewHoldService(availabilitySvc, clk, service.HoldConfig{
		HoldTTL:       cfg.HoldTTL,
		SweepInterval: cfg.SweepInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create hold service")
	}

	pricingSvc := service.NewPricingService(models.Commission{
		Rate:                   cfg.CommissionRate,
		Type:                   cfg.CommissionType,
		IncludesProcessingFees: cfg.CommissionIncludesFees,
	})

	catalogSvc := service.NewCatalogService(catalog.NewDemoSource(), availabilitySvc, clk, cfg.CatalogTTL)
	searchSvc := service.NewSearchService(catalogSvc, availabilitySvc, cfg.SearchCacheSize)

	// Warm the catalog so the first search doesn't pay the build.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := catalogSvc.GetCatalog(warmCtx); err != nil {
		log.Error().Err(err).Msg("Catalog warm-up failed, will retry lazily")
	}
	warmCancel()

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go holdSvc.Run(sweepCtx)

	handler := api.NewMarketplaceHandler(
		availabilitySvc, holdSvc, pricingSvc, catalogSvc, searchSvc,
		cfg.ProviderLockDuration,
	)
	router := handler.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%s", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", serverAddr).Msg("Marketplace core HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
