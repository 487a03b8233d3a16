package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestCollectionRepo_GetByID(t *testing.T) {
	now := time.Now()
	deadline := now.AddDate(0, 1, 0)

	tests := []struct {
		name        string
		rows        *sqlmock.Rows
		expected    domain.Collection
		expectedErr error
	}{
		{
			name: "found",
			rows: sqlmock.NewRows([]string{
				"id", "creator_id", "title", "description", "target_amount",
				"current_amount", "status", "deadline", "created_at", "updated_at",
			}).AddRow(int64(7), int64(42), "Trip", "Weekend trip", 1500.0, 200.0, "active", deadline, now, now),
			expected: domain.Collection{
				ID: 7, CreatorID: 42, Title: "Trip", Description: "Weekend trip",
				TargetAmount: 1500, CurrentAmount: 200, Status: domain.StatusActive,
				Deadline: deadline, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "missing",
			rows: sqlmock.NewRows([]string{
				"id", "creator_id", "title", "description", "target_amount",
				"current_amount", "status", "deadline", "created_at", "updated_at",
			}),
			expectedErr: domain.ErrCollectionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewCollectionRepo(db)

			mock.ExpectQuery("SELECT .+ FROM collections WHERE id = \\$1").
				WithArgs(int64(7)).
				WillReturnRows(tt.rows)

			got, err := repo.GetByID(context.Background(), 7)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCollectionRepo_AddAmountIfActive(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		applied bool
	}{
		{name: "applied", result: sqlmock.NewResult(0, 1), applied: true},
		{name: "not active", result: sqlmock.NewResult(0, 0), applied: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewCollectionRepo(db)

			mock.ExpectExec("UPDATE collections SET current_amount = current_amount \\+ \\$1").
				WithArgs(250.0, int64(7)).
				WillReturnResult(tt.result)

			applied, err := repo.AddAmountIfActive(context.Background(), 7, 250)
			assert.NoError(t, err)
			assert.Equal(t, tt.applied, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCollectionRepo_UpdateStatusIfActive(t *testing.T) {
	tests := []struct {
		name    string
		result  driver.Result
		changed bool
	}{
		{name: "transitioned", result: sqlmock.NewResult(0, 1), changed: true},
		{name: "lost race", result: sqlmock.NewResult(0, 0), changed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewCollectionRepo(db)

			mock.ExpectExec("UPDATE collections SET status = \\$1, updated_at = NOW\\(\\) WHERE id = \\$2 AND status = 'active'").
				WithArgs(string(domain.StatusFinished), int64(7)).
				WillReturnResult(tt.result)

			changed, err := repo.UpdateStatusIfActive(context.Background(), 7, domain.StatusFinished)
			assert.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCollectionRepo_ForceSetStatus_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepo(db)

	mock.ExpectExec("UPDATE collections SET status = \\$1").
		WithArgs(string(domain.StatusCancelled), int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ForceSetStatus(context.Background(), 404, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
