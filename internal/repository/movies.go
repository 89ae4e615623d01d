package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinestream/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    m.id,
    m.title,
    m.overview,
    m.category,
    m.image_string,
    m.youtube_string,
    m.age,
    m.duration,
    m.release,
    m.rank,
    m.created_at
`

// MovieUpsertParams bundles the fields required to ingest a movie.
type MovieUpsertParams struct {
	Title         string
	Overview      string
	Category      string
	ImageString   string
	YoutubeString string
	Age           int
	Duration      int
	Release       int
	Rank          int
}

// MovieListFilters encapsulates category filtering and offset pagination.
type MovieListFilters struct {
	Category *string
	Limit    int
	Offset   int
}

// MoviePage is one page of movies plus the size of the full matching set.
type MoviePage struct {
	Items []domain.Movie
	Total int64
}

// Upsert inserts a movie or updates the row with the same title and release
// year. The boolean reports whether a new row was created.
func (r *MoviesRepository) Upsert(ctx context.Context, p MovieUpsertParams) (domain.Movie, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO movie AS m (title, overview, category, image_string, youtube_string, age, duration, release, rank)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (title, release) DO UPDATE SET
            overview = EXCLUDED.overview,
            category = EXCLUDED.category,
            image_string = EXCLUDED.image_string,
            youtube_string = EXCLUDED.youtube_string,
            age = EXCLUDED.age,
            duration = EXCLUDED.duration,
            rank = EXCLUDED.rank
        RETURNING %s, (xmax = 0) AS inserted
    `, movieColumns)

	var inserted bool
	row := r.pool.QueryRow(ctx, query, p.Title, p.Overview, p.Category, p.ImageString, p.YoutubeString, p.Age, p.Duration, p.Release, p.Rank)
	movie, err := scanMovie(row, &inserted)
	if err != nil {
		return domain.Movie{}, false, err
	}
	return movie, inserted, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie m WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// SearchByTitlePrefix returns one page of movies whose title starts with
// prefix (case-insensitive) and the total number of matches. The prefix must
// already be free of LIKE metacharacters. Count and page travel in one batch.
func (r *MoviesRepository) SearchByTitlePrefix(ctx context.Context, prefix string, limit, offset int) (MoviePage, error) {
	pattern := prefix + "%"

	batch := &pgx.Batch{}
	batch.Queue(`SELECT COUNT(*) FROM movie m WHERE m.title ILIKE $1`, pattern)
	batch.Queue(fmt.Sprintf(`
        SELECT %s FROM movie m
        WHERE m.title ILIKE $1
        ORDER BY m.title ASC, m.id ASC
        LIMIT $2 OFFSET $3
    `, movieColumns), pattern, limit, offset)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var page MoviePage
	if err := br.QueryRow().Scan(&page.Total); err != nil {
		return MoviePage{}, fmt.Errorf("count matches: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return MoviePage{}, fmt.Errorf("search page: %w", err)
	}
	page.Items, err = collectMovies(rows)
	if err != nil {
		return MoviePage{}, err
	}
	return page, nil
}

// List returns movies, optionally restricted to one category, ordered for display.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MoviePage, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	where := ""
	args := make([]interface{}, 0, 3)
	if filters.Category != nil && strings.TrimSpace(*filters.Category) != "" {
		args = append(args, strings.TrimSpace(*filters.Category))
		where = "WHERE lower(m.category) = lower($1)"
	}

	batch := &pgx.Batch{}
	batch.Queue(fmt.Sprintf(`SELECT COUNT(*) FROM movie m %s`, where), args...)
	pageArgs := append(append([]interface{}{}, args...), filters.Limit, filters.Offset)
	batch.Queue(fmt.Sprintf(`
        SELECT %s FROM movie m
        %s
        ORDER BY m.rank ASC, m.id ASC
        LIMIT $%d OFFSET $%d
    `, movieColumns, where, len(args)+1, len(args)+2), pageArgs...)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var page MoviePage
	if err := br.QueryRow().Scan(&page.Total); err != nil {
		return MoviePage{}, fmt.Errorf("count movies: %w", err)
	}
	rows, err := br.Query()
	if err != nil {
		return MoviePage{}, fmt.Errorf("list movies: %w", err)
	}
	page.Items, err = collectMovies(rows)
	if err != nil {
		return MoviePage{}, err
	}
	return page, nil
}

// Recent returns the head of the catalog by rank, newest first within a rank,
// annotated with userID's watchlist entries. An empty userID matches none.
func (r *MoviesRepository) Recent(ctx context.Context, userID string, limit int) ([]domain.CatalogEntry, error) {
	query := fmt.Sprintf(`
        SELECT %s, w.id::text
        FROM movie m
        LEFT JOIN watch_lists w ON w.movie_id = m.id AND w.user_id = $1
        ORDER BY m.rank ASC, m.created_at DESC, m.id ASC
        LIMIT $2
    `, movieColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.CatalogEntry, 0, limit)
	for rows.Next() {
		var watchlistID *string
		movie, err := scanMovie(rows, &watchlistID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.CatalogEntry{Movie: movie, WatchlistID: watchlistID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func collectMovies(rows pgx.Rows) ([]domain.Movie, error) {
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// scanMovie reads movieColumns followed by any extra destinations.
func scanMovie(row pgx.Row, extra ...interface{}) (domain.Movie, error) {
	var movie domain.Movie
	dest := []interface{}{
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.Category,
		&movie.ImageString,
		&movie.YoutubeString,
		&movie.Age,
		&movie.Duration,
		&movie.Release,
		&movie.Rank,
		&movie.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
