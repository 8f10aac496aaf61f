package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/api"
	"github.com/sonicsignal/sonicsignal/internal/config"
	"github.com/sonicsignal/sonicsignal/internal/database"
	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/enrich"
	"github.com/sonicsignal/sonicsignal/internal/event"
	"github.com/sonicsignal/sonicsignal/internal/harvest"
	"github.com/sonicsignal/sonicsignal/internal/logging"
	"github.com/sonicsignal/sonicsignal/internal/metrics"
	"github.com/sonicsignal/sonicsignal/internal/registry"
	"github.com/sonicsignal/sonicsignal/internal/source"
	"github.com/sonicsignal/sonicsignal/internal/source/seatgeek"
	"github.com/sonicsignal/sonicsignal/internal/source/songkick"
	"github.com/sonicsignal/sonicsignal/internal/source/ticketmaster"
	"github.com/sonicsignal/sonicsignal/internal/store"
	"github.com/sonicsignal/sonicsignal/internal/version"
)

func main() {
	oneShot := len(os.Args) > 1 && os.Args[1] == "harvest"
	if err := run(oneShot); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(oneShot bool) error {
	configPath := os.Getenv("SS_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.New(logging.Config{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.FilePath,
	})
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	reg := registry.New(logger, eventBus)
	regStore := registry.NewService(db, logger)
	if err := regStore.Load(context.Background(), reg); err != nil {
		return fmt.Errorf("loading registries: %w", err)
	}

	eventStore := store.NewService(db, logger)

	loc := cfg.Location()
	classifier := dedup.NewClassifier(dedup.Thresholds{
		Artist:   cfg.Matching.ArtistThreshold,
		Venue:    cfg.Matching.VenueThreshold,
		High:     cfg.Matching.HighThreshold,
		NearMiss: cfg.Matching.NearMissMargin,
	}, loc)
	resolver := dedup.NewResolver(classifier, reg, logger)

	rateLimiters := source.NewRateLimiterMap()
	sources := source.NewRegistry()
	sources.Register(ticketmaster.New(cfg.Sources.TicketmasterAPIKey, rateLimiters, logger, loc))
	sources.Register(seatgeek.New(cfg.Sources.SeatGeekClientID, rateLimiters, logger, loc))
	sources.Register(songkick.New(cfg.Sources.SongkickAPIKey, cfg.Sources.SongkickMetroID, rateLimiters, logger, loc))

	var enricher *enrich.Enricher
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		spotify := enrich.NewSpotifyClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, logger)
		enricher = enrich.New(spotify, reg, eventStore, eventBus, logger)
	} else {
		logger.Warn("spotify credentials missing, enrichment disabled")
	}

	m := metrics.New()
	harvester := harvest.New(harvest.Config{
		Sources:    sources,
		Resolver:   resolver,
		Registry:   reg,
		RegStore:   regStore,
		Store:      eventStore,
		Enricher:   enricher,
		Bus:        eventBus,
		Metrics:    m,
		Logger:     logger,
		City:       cfg.Harvest.City,
		WindowDays: cfg.Harvest.WindowDays,
	})

	logger.Info("starting sonicsignal",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("city", cfg.Harvest.City),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if oneShot {
		summary, err := harvester.Run(ctx)
		if err != nil {
			return fmt.Errorf("harvest: %w", err)
		}
		logger.Info("harvest finished",
			slog.Int("observations", summary.Observations),
			slog.Int("created", summary.Created),
			slog.Int("updated", summary.Updated),
			slog.Int("review", summary.Review))
		return nil
	}

	scheduler := harvest.NewScheduler(harvester, time.Duration(cfg.Harvest.Interval), logger)
	go scheduler.Start(ctx)
	defer scheduler.Stop()

	router := api.NewRouter(api.RouterDeps{
		Store:    eventStore,
		Registry: reg,
		Sources:  sources,
		Harvest:  harvester,
		Metrics:  m,
		Logger:   logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
