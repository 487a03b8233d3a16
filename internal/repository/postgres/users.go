// Package postgres implements the repository contracts on PostgreSQL via sqlx.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"collectbot/internal/domain"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts the user or refreshes their profile and last-seen.
func (r *UserRepo) Upsert(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, username, language, last_seen)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			username   = EXCLUDED.username,
			language   = EXCLUDED.language,
			last_seen  = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username, user.Language)
	return err
}
