package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"collectbot/internal/dialog"
)

// DialogStore implements dialog.Store on the dialog_states table, one jsonb
// row per user.
type DialogStore struct {
	db *sqlx.DB
}

// NewDialogStore creates a new dialog store.
func NewDialogStore(db *sqlx.DB) *DialogStore {
	return &DialogStore{db: db}
}

// Get reads the snapshot; a missing row is an idle snapshot, bad jsonb is
// surfaced as a corrupt (invalid) snapshot so the manager resets it.
func (s *DialogStore) Get(ctx context.Context, userID int64) (dialog.Snapshot, error) {
	var row struct {
		State string `db:"state"`
		Data  []byte `db:"data"`
	}
	query := `SELECT state, data FROM dialog_states WHERE user_id = $1`
	err := s.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return dialog.Snapshot{State: dialog.StateNone}, nil
	}
	if err != nil {
		return dialog.Snapshot{}, err
	}

	snap := dialog.Snapshot{State: dialog.State(row.State)}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &snap.Data); err != nil {
			// Undecodable payload; return a shape the manager treats as corrupt.
			return dialog.Snapshot{State: dialog.State("corrupt")}, nil
		}
	}
	return snap, nil
}

// Set upserts the full snapshot for a user.
func (s *DialogStore) Set(ctx context.Context, userID int64, snap dialog.Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO dialog_states (user_id, state, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			state      = EXCLUDED.state,
			data       = EXCLUDED.data,
			updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query, userID, string(snap.State), data)
	return err
}

// Clear removes the row for a user.
func (s *DialogStore) Clear(ctx context.Context, userID int64) error {
	query := `DELETE FROM dialog_states WHERE user_id = $1`
	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}
