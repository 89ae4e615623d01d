package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/cache"
	"github.com/Clark-Hu/cinestream/internal/config"
	httpserver "github.com/Clark-Hu/cinestream/internal/http"
	"github.com/Clark-Hu/cinestream/internal/logging"
	"github.com/Clark-Hu/cinestream/internal/metrics"
	"github.com/Clark-Hu/cinestream/internal/migrations"
	"github.com/Clark-Hu/cinestream/internal/repository"
	"github.com/Clark-Hu/cinestream/internal/service"
	"github.com/Clark-Hu/cinestream/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.OptionsFromConfig(cfg, logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	if cfg.MigrateOnStart {
		db := st.SQLDB()
		n, err := migrations.Up(db)
		_ = db.Close()
		if err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	metrics.RegisterPoolGauges(st.PoolGauges())

	var searchCache service.SearchCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("search cache disabled")
		} else {
			defer rc.Close()
			searchCache = cache.NewSearchCache(rc, cfg.SearchCacheTTL(), logger)
			logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.SearchCacheTTL()).Msg("search cache enabled")
		}
	}

	repo := repository.New(st)
	server := httpserver.New(cfg, st, httpserver.Services{
		Ratings:    service.NewRatingService(repo.Ratings),
		Catalog:    service.NewCatalogService(repo.Movies, searchCache),
		Watchlists: service.NewWatchlistService(repo.Watchlists),
		Users:      service.NewUserService(repo.Users),
	}, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
