package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"collectbot/internal/domain"
)

func TestPaymentRepo_ConfirmIfPending(t *testing.T) {
	tests := []struct {
		name      string
		result    driver.Result
		confirmed bool
	}{
		{name: "confirmed", result: sqlmock.NewResult(0, 1), confirmed: true},
		{name: "already confirmed", result: sqlmock.NewResult(0, 0), confirmed: false},
	}

	at := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPaymentRepo(db)

			mock.ExpectExec("UPDATE payments SET status = 'confirmed'").
				WithArgs(at, "pay-1").
				WillReturnResult(tt.result)

			confirmed, err := repo.ConfirmIfPending(context.Background(), "pay-1", at)
			assert.NoError(t, err)
			assert.Equal(t, tt.confirmed, confirmed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepo_GetByID_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepo(db)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE id = \\$1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "collection_id", "user_id", "amount", "status", "created_at", "confirmed_at",
		}))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_ListPendingByCollection(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepo(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM payments WHERE collection_id = \\$1 AND status = 'pending'").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "collection_id", "user_id", "amount", "status", "created_at", "confirmed_at",
		}).AddRow("pay-1", int64(7), int64(42), 100.0, "pending", now, nil))

	payments, err := repo.ListPendingByCollection(context.Background(), 7)
	assert.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentPending, payments[0].Status)
	assert.Nil(t, payments[0].ConfirmedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
