package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinestream/internal/domain"
)

// UsersRepository mirrors accounts issued by the identity provider.
type UsersRepository struct {
	pool *pgxpool.Pool
}

// Upsert records a user id, refreshing the email when one is supplied.
func (r *UsersRepository) Upsert(ctx context.Context, id string, email *string) (domain.User, bool, error) {
	const query = `
        INSERT INTO users (id, email)
        VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET email = COALESCE(EXCLUDED.email, users.email)
        RETURNING id, email, created_at, (xmax = 0) AS inserted
    `
	var (
		user     domain.User
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query, id, email).Scan(&user.ID, &user.Email, &user.CreatedAt, &inserted)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, inserted, nil
}

// LinkAccount attaches a provider account to a user. Relinking the same
// provider account is a no-op.
func (r *UsersRepository) LinkAccount(ctx context.Context, userID, provider, providerAccountID string) error {
	const query = `
        INSERT INTO accounts (user_id, provider, provider_account_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (provider, provider_account_id) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, query, userID, provider, providerAccountID); err != nil {
		return mapForeignKey(err)
	}
	return nil
}
