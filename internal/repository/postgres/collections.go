package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"collectbot/internal/domain"
)

// CollectionRepo implements repository.CollectionRepository.
type CollectionRepo struct {
	db *sqlx.DB
}

// NewCollectionRepo creates a new collection repository.
func NewCollectionRepo(db *sqlx.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

const collectionColumns = `id, creator_id, title, description, target_amount, current_amount, status, deadline, created_at, updated_at`

// Create inserts the collection and fills in its generated fields.
func (r *CollectionRepo) Create(ctx context.Context, c *domain.Collection) error {
	query := `
		INSERT INTO collections (creator_id, title, description, target_amount, current_amount, status, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		c.CreatorID, c.Title, c.Description, c.TargetAmount, c.CurrentAmount, c.Status, c.Deadline,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CollectionRepo) GetByID(ctx context.Context, id int64) (domain.Collection, error) {
	var c domain.Collection
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = $1`
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return c, err
}

func (r *CollectionRepo) ListByCreator(ctx context.Context, creatorID int64) ([]domain.Collection, error) {
	var out []domain.Collection
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE creator_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &out, query, creatorID)
	return out, err
}

func (r *CollectionRepo) ListActive(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE status = 'active' ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}

func (r *CollectionRepo) ListAll(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	query := `SELECT ` + collectionColumns + ` FROM collections ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}

// UpdateStatusIfActive transitions active -> status in one statement so a
// concurrent transition cannot double-apply.
func (r *CollectionRepo) UpdateStatusIfActive(ctx context.Context, id int64, status domain.CollectionStatus) (bool, error) {
	query := `UPDATE collections SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CollectionRepo) ForceSetStatus(ctx context.Context, id int64, status domain.CollectionStatus) error {
	query := `UPDATE collections SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}

// AddAmountIfActive increments current_amount in one statement; the status
// guard makes the read-modify-write race impossible.
func (r *CollectionRepo) AddAmountIfActive(ctx context.Context, id int64, amount float64) (bool, error) {
	query := `UPDATE collections SET current_amount = current_amount + $1, updated_at = NOW() WHERE id = $2 AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query, amount, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CollectionRepo) SetTitle(ctx context.Context, id int64, title string) error {
	return r.setField(ctx, id, "title", title)
}

func (r *CollectionRepo) SetDescription(ctx context.Context, id int64, description string) error {
	return r.setField(ctx, id, "description", description)
}

func (r *CollectionRepo) SetTarget(ctx context.Context, id int64, target float64) error {
	return r.setField(ctx, id, "target_amount", target)
}

func (r *CollectionRepo) SetDeadline(ctx context.Context, id int64, deadline time.Time) error {
	return r.setField(ctx, id, "deadline", deadline)
}

func (r *CollectionRepo) setField(ctx context.Context, id int64, column string, value any) error {
	query := `UPDATE collections SET ` + column + ` = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}
