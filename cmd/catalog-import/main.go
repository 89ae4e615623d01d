package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/cache"
	"github.com/Clark-Hu/cinestream/internal/catalogfeed"
	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/logging"
	"github.com/Clark-Hu/cinestream/internal/repository"
	"github.com/Clark-Hu/cinestream/internal/service"
	"github.com/Clark-Hu/cinestream/internal/store"
)

type importStats struct {
	pages    int
	inserted int
	updated  int
	skipped  int
	failed   int
}

func main() {
	_ = godotenv.Load()

	var (
		app = kingpin.New("catalog-import", "Import movies from the upstream catalog feed.")

		dbURL    = app.Flag("db-url", "PostgreSQL connection string").Envar("DB_URL").Required().String()
		feedURL  = app.Flag("feed-url", "catalog feed base URL").Envar("CATALOG_FEED_URL").Required().String()
		apiKey   = app.Flag("api-key", "catalog feed API key").Envar("CATALOG_FEED_API_KEY").String()
		timeout  = app.Flag("timeout", "per-request timeout").Default("10s").Duration()
		start    = app.Flag("start-page", "first page to fetch").Default("1").Int()
		maxPages = app.Flag("max-pages", "stop after this many pages, 0 for no limit").Default("0").Int()
		redis    = app.Flag("redis-addr", "invalidate the search cache at this Redis address").Envar("REDIS_ADDR").String()
		logLevel = app.Flag("log-level", "log level").Default("info").Enum("debug", "info", "warn", "error")
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logging.New(logging.Config{Level: *logLevel, Format: "console", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := store.New(dbCtx, *dbURL, store.Options{MaxConns: 4, StatementCacheCapacity: 64, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	var searchCache service.SearchCache = cache.Nop{}
	if *redis != "" {
		rc, err := cache.Connect(*redis, os.Getenv("REDIS_PASSWORD"), 0)
		if err != nil {
			logger.Warn().Err(err).Msg("search cache unreachable, cached pages expire by ttl")
		} else {
			defer rc.Close()
			searchCache = cache.NewSearchCache(rc, 0, logger)
		}
	}

	httpClient, err := catalogfeed.NewHTTPClient(*feedURL, *apiKey, *timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog feed client")
	}
	feed := catalogfeed.NewBreakerClient(httpClient, catalogfeed.DefaultBreakerConfig(), logger)

	catalog := service.NewCatalogService(repository.New(st).Movies, searchCache)

	stats, err := run(ctx, feed, catalog, *start, *maxPages, logger)
	logger.Info().
		Int("pages", stats.pages).
		Int("inserted", stats.inserted).
		Int("updated", stats.updated).
		Int("skipped", stats.skipped).
		Int("failed", stats.failed).
		Msg("import finished")
	if err != nil {
		logger.Fatal().Err(err).Msg("import aborted")
	}
}

type movieCreator interface {
	Create(ctx context.Context, in service.MovieInput) (domain.Movie, bool, error)
}

// run pages through feed from page until the feed reports no next page.
// A single bad movie is counted and skipped; a feed error or a next page
// that does not move forward aborts.
func run(ctx context.Context, feed catalogfeed.Client, catalog movieCreator, page, maxPages int, logger zerolog.Logger) (importStats, error) {
	var stats importStats
	for {
		if maxPages > 0 && stats.pages >= maxPages {
			return stats, nil
		}
		res, err := feed.List(ctx, page)
		if errors.Is(err, catalogfeed.ErrNotFound) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.pages++
		stats.skipped += res.Skipped

		for _, e := range res.Entries {
			_, inserted, err := catalog.Create(ctx, service.MovieInput{
				Title:         e.Title,
				Overview:      e.Overview,
				Category:      e.Category,
				ImageString:   e.ImageString,
				YoutubeString: e.YoutubeString,
				Age:           e.Age,
				Duration:      e.Duration,
				Release:       e.Release,
				Rank:          e.Rank,
			})
			switch {
			case err != nil:
				stats.failed++
				logger.Warn().Err(err).Str("title", e.Title).Msg("skipping movie")
			case inserted:
				stats.inserted++
			default:
				stats.updated++
			}
		}

		if res.NextPage == nil {
			return stats, nil
		}
		if *res.NextPage <= page {
			return stats, fmt.Errorf("feed page %d points back to page %d", page, *res.NextPage)
		}
		page = *res.NextPage
	}
}
