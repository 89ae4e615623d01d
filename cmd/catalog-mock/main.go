package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinestream/internal/logging"
)

// mockMovie mirrors the upstream listing format. Optional fields stay
// pointers so the file can exercise missing values.
type mockMovie struct {
	Title         string  `json:"title"`
	Overview      *string `json:"overview,omitempty"`
	Category      *string `json:"category,omitempty"`
	ImageString   *string `json:"imageString,omitempty"`
	YoutubeString *string `json:"youtubeString,omitempty"`
	Age           *int    `json:"age,omitempty"`
	Duration      *int    `json:"duration,omitempty"`
	Release       *int    `json:"release,omitempty"`
	Rank          *int    `json:"rank,omitempty"`
}

type feedPage struct {
	Movies   []mockMovie `json:"movies"`
	NextPage *int        `json:"nextPage"`
}

func main() {
	var (
		app      = kingpin.New("catalog-mock", "Serve a JSON file as the upstream catalog feed.")
		port     = app.Flag("port", "port to listen on").Default("9099").String()
		data     = app.Flag("data", "path to mock data file").Default("mock-catalog.json").ExistingFile()
		pageSize = app.Flag("page-size", "movies per page").Default("20").Int()
		apiKey   = app.Flag("api-key", "require this X-API-Key").Envar("CATALOG_FEED_API_KEY").String()
		verbose  = app.Flag("log", "enable request logging").Bool()
	)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "warn"
	if *verbose {
		level = "info"
	}
	logger := logging.New(logging.Config{Level: level, Format: "console", Output: os.Stderr})

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("read mock data")
	}
	var movies []mockMovie
	if err := json.Unmarshal(file, &movies); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}

	addr := ":" + *port
	logger.Info().Int("movies", len(movies)).Str("addr", addr).Msg("mock catalog listening")
	if err := http.ListenAndServe(addr, newRouter(movies, *pageSize, *apiKey, logger)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newRouter(movies []mockMovie, pageSize int, apiKey string, logger zerolog.Logger) http.Handler {
	if pageSize <= 0 {
		pageSize = 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("X-API-Key") != apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "page must be a positive integer", http.StatusBadRequest)
				return
			}
			page = n
		}

		start := (page - 1) * pageSize
		if start >= len(movies) && page > 1 {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		end := start + pageSize
		if end > len(movies) {
			end = len(movies)
		}

		resp := feedPage{Movies: movies[start:end]}
		if end < len(movies) {
			next := page + 1
			resp.NextPage = &next
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return r
}
