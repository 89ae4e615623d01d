package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinestream/internal/domain"
)

// WatchlistsRepository persists per-user saved movies.
type WatchlistsRepository struct {
	pool *pgxpool.Pool
}

// Add saves movieID for userID. Adding a movie twice returns the existing
// entry with inserted=false.
func (r *WatchlistsRepository) Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, bool, error) {
	const query = `
        INSERT INTO watch_lists (id, user_id, movie_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, movie_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING id::text, user_id, movie_id, created_at, (xmax = 0) AS inserted
    `
	var (
		entry    domain.WatchlistEntry
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID, movieID).
		Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.CreatedAt, &inserted)
	if err != nil {
		return domain.WatchlistEntry{}, false, mapForeignKey(err)
	}
	return entry, inserted, nil
}

// Remove deletes an entry owned by userID. ErrNotFound covers both a missing
// entry and one that belongs to someone else.
func (r *WatchlistsRepository) Remove(ctx context.Context, entryID uuid.UUID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watch_lists WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns userID's entries joined with their movies, newest first.
func (r *WatchlistsRepository) ListByUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	query := fmt.Sprintf(`
        SELECT w.id::text, w.user_id, w.movie_id, w.created_at, %s
        FROM watch_lists w
        JOIN movie m ON m.id = w.movie_id
        WHERE w.user_id = $1
        ORDER BY w.created_at DESC, w.id ASC
    `, movieColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.WatchlistItem, 0)
	for rows.Next() {
		var (
			item domain.WatchlistItem
			m    = &item.Movie
		)
		err := rows.Scan(
			&item.Entry.ID,
			&item.Entry.UserID,
			&item.Entry.MovieID,
			&item.Entry.CreatedAt,
			&m.ID,
			&m.Title,
			&m.Overview,
			&m.Category,
			&m.ImageString,
			&m.YoutubeString,
			&m.Age,
			&m.Duration,
			&m.Release,
			&m.Rank,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
