package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deniyaya/teashop/internal/domain/auth"
)

const getUserByEmailSQL = `SELECT id, email, name, role, password_hash FROM users WHERE lower(email) = lower($1)`

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository provides staff account lookups backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByEmail returns auth.ErrUserNotFound when no staff account matches.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, getUserByEmailSQL, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", email, err)
	}
	return &u, nil
}
