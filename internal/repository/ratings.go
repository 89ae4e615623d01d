package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinestream/internal/domain"
)

// RatingsRepository provides helpers for movie ratings.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	MovieID int64
	UserID  string
	Value   int
}

// RatingSubmission is the outcome of a rating write: the stored row, the
// aggregate recomputed in the same transaction, and whether the row is new.
type RatingSubmission struct {
	Rating    domain.Rating
	Aggregate domain.AggregateRating
	Inserted  bool
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const upsertRatingQuery = `
    INSERT INTO user_ratings (user_id, movie_id, rating)
    VALUES ($1,$2,$3)
    ON CONFLICT (user_id, movie_id)
    DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
    RETURNING movie_id, user_id, rating, created_at, updated_at, (xmax = 0) AS inserted
`

const aggregateQuery = `
    SELECT m.id, AVG(r.rating)::float8, COUNT(r.rating)::int8
    FROM movie m
    LEFT JOIN user_ratings r ON r.movie_id = m.id
    WHERE m.id = $1
    GROUP BY m.id
`

// Submit upserts the rating and recomputes the movie's aggregate inside one
// transaction, so the caller reads its own write.
func (r *RatingsRepository) Submit(ctx context.Context, params RatingUpsertParams) (RatingSubmission, error) {
	var out RatingSubmission
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rating, inserted, err := upsertRating(ctx, tx, params)
		if err != nil {
			return err
		}
		agg, err := aggregate(ctx, tx, params.MovieID)
		if err != nil {
			return err
		}
		out = RatingSubmission{Rating: rating, Aggregate: agg, Inserted: inserted}
		return nil
	})
	if err != nil {
		return RatingSubmission{}, err
	}
	return out, nil
}

// Aggregate returns the rating average and count for a movie. Average is nil
// when there are no ratings; ErrNotFound when the movie does not exist.
func (r *RatingsRepository) Aggregate(ctx context.Context, movieID int64) (domain.AggregateRating, error) {
	return aggregate(ctx, r.pool, movieID)
}

// ValueFor returns userID's rating of movieID, or 0 when unrated.
// ErrNotFound means the movie itself does not exist.
func (r *RatingsRepository) ValueFor(ctx context.Context, movieID int64, userID string) (int, error) {
	const query = `
        SELECT m.id, r.rating
        FROM movie m
        LEFT JOIN user_ratings r ON r.movie_id = m.id AND r.user_id = $2
        WHERE m.id = $1
    `
	var (
		id     int64
		rating *int16
	)
	err := r.pool.QueryRow(ctx, query, movieID, userID).Scan(&id, &rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if rating == nil {
		return 0, nil
	}
	return int(*rating), nil
}

// upsertRating inserts or updates a rating in one statement. Unknown users or
// movies surface as ErrUserNotFound / ErrMovieNotFound.
func upsertRating(ctx context.Context, q queryRower, params RatingUpsertParams) (domain.Rating, bool, error) {
	var (
		rating   domain.Rating
		value    int16
		inserted bool
	)
	err := q.QueryRow(ctx, upsertRatingQuery, params.UserID, params.MovieID, params.Value).Scan(
		&rating.MovieID,
		&rating.UserID,
		&value,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Rating{}, false, mapForeignKey(err)
	}
	rating.Value = int(value)
	return rating, inserted, nil
}

func aggregate(ctx context.Context, q queryRower, movieID int64) (domain.AggregateRating, error) {
	var agg domain.AggregateRating
	err := q.QueryRow(ctx, aggregateQuery, movieID).Scan(&agg.MovieID, &agg.Average, &agg.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AggregateRating{}, ErrNotFound
		}
		return domain.AggregateRating{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}
