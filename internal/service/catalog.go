package service

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/cache"
	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/metrics"
	"github.com/Clark-Hu/cinestream/internal/repository"
	"github.com/Clark-Hu/cinestream/internal/validation"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultRecentLimit = 4
	MaxRecentLimit     = 50

	// MaxOffset bounds the row offset sent to the store. Pages past it are
	// still answered, with no movies.
	MaxOffset = math.MaxInt32
)

// SearchParams is a title-prefix query. Page is 1-indexed.
type SearchParams struct {
	Query string
	Page  int
	Limit int
}

// Page describes where a result slice sits in the full result set.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// SearchResult is one page of movies plus pagination. An empty Movies slice
// is a valid result.
type SearchResult struct {
	Movies     []domain.Movie `json:"movies"`
	Pagination Page           `json:"pagination"`
}

// ListParams filters the full catalog by category.
type ListParams struct {
	Category string
	Page     int
	Limit    int
}

// MovieInput is an administrative catalog write.
type MovieInput struct {
	Title         string `json:"title" validate:"notblank,max=500"`
	Overview      string `json:"overview" validate:"max=5000"`
	Category      string `json:"category" validate:"max=100"`
	ImageString   string `json:"imageString" validate:"max=2000"`
	YoutubeString string `json:"youtubeString" validate:"max=2000"`
	Age           int    `json:"age" validate:"min=0,max=21"`
	Duration      int    `json:"duration" validate:"min=0,max=1000"`
	Release       int    `json:"release" validate:"omitempty,min=1870,max=2200"`
	Rank          int    `json:"rank" validate:"min=0"`
}

// CatalogService answers catalog queries. Search pages may be served from
// cache; everything else reads the store directly.
type CatalogService struct {
	movies MovieStore
	cache  SearchCache
}

// NewCatalogService builds the service. A nil cache disables caching.
func NewCatalogService(movies MovieStore, sc SearchCache) *CatalogService {
	if sc == nil {
		sc = cache.Nop{}
	}
	return &CatalogService{movies: movies, cache: sc}
}

// Search returns movies whose title starts with the sanitized query,
// case-insensitively, ordered by title.
func (s *CatalogService) Search(ctx context.Context, params SearchParams) (SearchResult, error) {
	if strings.TrimSpace(params.Query) == "" {
		metrics.RecordSearch("invalid")
		return SearchResult{}, apperr.Invalid("query is required")
	}
	query := SanitizeQuery(params.Query)
	if query == "" {
		metrics.RecordSearch("invalid")
		return SearchResult{}, apperr.Invalid("query must contain letters or digits")
	}
	page := normalizePage(params.Page)
	limit := clamp(params.Limit, DefaultSearchLimit, MaxSearchLimit)

	payload, cacheKey, ok := s.cache.Lookup(ctx, query, page, limit)
	if ok {
		var cached SearchResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			metrics.RecordSearch(searchOutcome(cached))
			return cached, nil
		}
	}

	res, err := s.movies.SearchByTitlePrefix(ctx, query, limit, pageOffset(page, limit))
	if err != nil {
		metrics.RecordSearch("error")
		return SearchResult{}, translate(err, nil)
	}
	result := SearchResult{
		Movies:     res.Items,
		Pagination: newPage(page, limit, res.Total),
	}
	if payload, err := json.Marshal(result); err == nil {
		s.cache.Store(ctx, cacheKey, payload)
	}
	metrics.RecordSearch(searchOutcome(result))
	return result, nil
}

// List pages through the catalog, optionally limited to one category.
func (s *CatalogService) List(ctx context.Context, params ListParams) (SearchResult, error) {
	page := normalizePage(params.Page)
	limit := clamp(params.Limit, DefaultListLimit, MaxListLimit)

	filters := repository.MovieListFilters{Limit: limit, Offset: pageOffset(page, limit)}
	if category := strings.TrimSpace(params.Category); category != "" {
		filters.Category = &category
	}
	res, err := s.movies.List(ctx, filters)
	if err != nil {
		return SearchResult{}, translate(err, nil)
	}
	return SearchResult{Movies: res.Items, Pagination: newPage(page, limit, res.Total)}, nil
}

// Recent returns the newest catalog additions, marking those already on
// userID's watchlist. userID may be empty for anonymous callers.
func (s *CatalogService) Recent(ctx context.Context, userID string, limit int) ([]domain.CatalogEntry, error) {
	limit = clamp(limit, DefaultRecentLimit, MaxRecentLimit)
	entries, err := s.movies.Recent(ctx, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, translate(err, nil)
	}
	return entries, nil
}

// Get returns a single movie.
func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Movie, error) {
	if err := validMovieID(id); err != nil {
		return domain.Movie{}, err
	}
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return domain.Movie{}, translate(err, errMovieNotFound)
	}
	return movie, nil
}

// Create inserts or refreshes a movie keyed by title and release year. The
// boolean reports whether the movie is new.
func (s *CatalogService) Create(ctx context.Context, in MovieInput) (domain.Movie, bool, error) {
	if err := validation.Struct(in); err != nil {
		return domain.Movie{}, false, err
	}
	movie, inserted, err := s.movies.Upsert(ctx, repository.MovieUpsertParams{
		Title:         strings.TrimSpace(in.Title),
		Overview:      in.Overview,
		Category:      strings.TrimSpace(in.Category),
		ImageString:   in.ImageString,
		YoutubeString: in.YoutubeString,
		Age:           in.Age,
		Duration:      in.Duration,
		Release:       in.Release,
		Rank:          in.Rank,
	})
	if err != nil {
		return domain.Movie{}, false, translate(err, nil)
	}
	s.cache.Invalidate(ctx)
	return movie, inserted, nil
}

// SanitizeQuery trims q and drops every rune that is not a letter, digit or
// space. The result is safe to embed in a LIKE pattern.
func SanitizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range strings.TrimSpace(q) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func searchOutcome(r SearchResult) string {
	if len(r.Movies) == 0 {
		return "empty"
	}
	return "hit"
}

func newPage(page, limit int, total int64) Page {
	return Page{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// pageOffset is (page-1)*limit, capped at MaxOffset without overflowing.
// page and limit must be positive.
func pageOffset(page, limit int) int {
	if page-1 > MaxOffset/limit {
		return MaxOffset
	}
	return (page - 1) * limit
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clamp(v, def, upper int) int {
	switch {
	case v <= 0:
		return def
	case v > upper:
		return upper
	}
	return v
}
