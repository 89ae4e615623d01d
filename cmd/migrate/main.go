package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/Clark-Hu/cinestream/internal/logging"
	"github.com/Clark-Hu/cinestream/internal/migrations"
	"github.com/Clark-Hu/cinestream/internal/store"
)

func main() {
	_ = godotenv.Load()

	var (
		app   = kingpin.New("migrate", "Apply or roll back the cinestream database schema.")
		dbURL = app.Flag("db-url", "PostgreSQL connection string").Envar("DB_URL").Required().String()

		up     = app.Command("up", "apply all pending migrations").Default()
		down   = app.Command("down", "roll back migrations")
		steps  = down.Flag("steps", "number of migrations to roll back, 0 for all").Default("1").Int()
		status = app.Command("status", "list applied migrations")
	)
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logging.New(logging.Config{Level: "info", Format: "console", Output: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, *dbURL, store.Options{MaxConns: 2, StatementCacheCapacity: -1, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	db := st.SQLDB()
	defer db.Close()

	switch cmd {
	case up.FullCommand():
		n, err := migrations.Up(db)
		if err != nil {
			logger.Fatal().Err(err).Msg("migrate up")
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	case down.FullCommand():
		n, err := migrations.Down(db, *steps)
		if err != nil {
			logger.Fatal().Err(err).Msg("migrate down")
		}
		logger.Info().Int("rolled_back", n).Msg("migrations rolled back")
	case status.FullCommand():
		ids, err := migrations.Applied(db)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration status")
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	}
}
