package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinestream/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrUserNotFound indicates a write referenced a user that does not exist.
	ErrUserNotFound = errors.New("repository: user not found")
	// ErrMovieNotFound indicates a write referenced a movie that does not exist.
	ErrMovieNotFound = errors.New("repository: movie not found")
)

const pgForeignKeyViolation = "23503"

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies     *MoviesRepository
	Ratings    *RatingsRepository
	Users      *UsersRepository
	Watchlists *WatchlistsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:     &MoviesRepository{pool: pool},
		Ratings:    &RatingsRepository{pool: pool},
		Users:      &UsersRepository{pool: pool},
		Watchlists: &WatchlistsRepository{pool: pool},
	}
}

// mapForeignKey turns a foreign-key violation on user_id/movie_id into the
// matching sentinel; other errors pass through unchanged.
func mapForeignKey(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgForeignKeyViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "user_ratings_user_id_fkey", "watch_lists_user_id_fkey", "accounts_user_id_fkey":
		return ErrUserNotFound
	case "user_ratings_movie_id_fkey", "watch_lists_movie_id_fkey":
		return ErrMovieNotFound
	}
	return err
}
