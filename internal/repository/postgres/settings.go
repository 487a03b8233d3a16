package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SettingsRepo implements repository.SettingsRepository.
type SettingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the value for key, or "" when the key is unset.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT value FROM settings WHERE key = $1`
	err := r.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
