// Package service holds the application rules: input validation, the
// rating and catalog query operations, and translation of storage failures
// into application errors.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Clark-Hu/cinestream/internal/apperr"
	"github.com/Clark-Hu/cinestream/internal/domain"
	"github.com/Clark-Hu/cinestream/internal/repository"
)

// RatingStore is the persistence surface the rating service needs.
type RatingStore interface {
	ValueFor(ctx context.Context, movieID int64, userID string) (int, error)
	Aggregate(ctx context.Context, movieID int64) (domain.AggregateRating, error)
	Submit(ctx context.Context, params repository.RatingUpsertParams) (repository.RatingSubmission, error)
}

// MovieStore is the persistence surface the catalog service needs.
type MovieStore interface {
	SearchByTitlePrefix(ctx context.Context, prefix string, limit, offset int) (repository.MoviePage, error)
	List(ctx context.Context, filters repository.MovieListFilters) (repository.MoviePage, error)
	Recent(ctx context.Context, userID string, limit int) ([]domain.CatalogEntry, error)
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	Upsert(ctx context.Context, p repository.MovieUpsertParams) (domain.Movie, bool, error)
}

// WatchlistStore persists watchlist entries.
type WatchlistStore interface {
	Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, bool, error)
	Remove(ctx context.Context, entryID uuid.UUID, userID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error)
}

// UserStore persists users.
type UserStore interface {
	Upsert(ctx context.Context, id string, email *string) (domain.User, bool, error)
	LinkAccount(ctx context.Context, userID, provider, providerAccountID string) error
}

// SearchCache stores encoded search pages. Implementations swallow their own
// failures; a miss is always safe. Lookup also returns the key a page
// computed after the miss must be stored under, pinned to the cache state
// seen by the lookup; an empty key means do not store.
type SearchCache interface {
	Lookup(ctx context.Context, query string, page, limit int) (payload []byte, key string, ok bool)
	Store(ctx context.Context, key string, payload []byte)
	Invalidate(ctx context.Context)
}

var (
	errMovieNotFound = apperr.NotFound(apperr.KindMovieNotFound, "Movie not found.")
	errUserNotFound  = apperr.NotFound(apperr.KindUserNotFound, "User not found.")
)

// translate maps repository errors onto the application taxonomy.
// notFound is used for a bare ErrNotFound.
func translate(err error, notFound *apperr.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrMovieNotFound):
		return errMovieNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return errUserNotFound
	case errors.Is(err, repository.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Internal(err, "Request cancelled.")
	}
	return apperr.Internal(err, "Internal error.")
}

func validMovieID(id int64) error {
	if id <= 0 {
		return apperr.Invalid("movieId must be a positive integer")
	}
	return nil
}
