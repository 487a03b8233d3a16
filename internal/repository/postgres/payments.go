package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"collectbot/internal/domain"
)

// PaymentRepo implements repository.PaymentRepository.
type PaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

const paymentColumns = `id, collection_id, user_id, amount, status, created_at, confirmed_at`

// Create inserts the payment; the caller supplies the id.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, collection_id, user_id, amount, status, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		p.ID, p.CollectionID, p.UserID, p.Amount, p.Status, p.ConfirmedAt,
	).Scan(&p.CreatedAt)
}

func (r *PaymentRepo) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	var p domain.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, err
}

func (r *PaymentRepo) ListByCollection(ctx context.Context, collectionID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE collection_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &out, query, collectionID)
	return out, err
}

func (r *PaymentRepo) ListPendingByCollection(ctx context.Context, collectionID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE collection_id = $1 AND status = 'pending' ORDER BY created_at`
	err := r.db.SelectContext(ctx, &out, query, collectionID)
	return out, err
}

// ConfirmIfPending flips pending -> confirmed exactly once.
func (r *PaymentRepo) ConfirmIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE payments SET status = 'confirmed', confirmed_at = $1 WHERE id = $2 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
