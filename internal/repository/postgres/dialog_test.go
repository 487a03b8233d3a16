package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/dialog"
)

func TestDialogStore_Get_MissingRowIsIdle(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDialogStore(db)

	mock.ExpectQuery("SELECT state, data FROM dialog_states").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"state", "data"}))

	snap, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateNone, snap.State)
	assert.True(t, snap.Valid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialogStore_Get_DecodesPayload(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDialogStore(db)

	data := `{"context":{"collection_id":7,"status":"active","title":"Trip"},"create":{"step":"amount","title":"x"}}`
	mock.ExpectQuery("SELECT state, data FROM dialog_states").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"state", "data"}).
			AddRow("creating_collection", []byte(data)))

	snap, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateCreating, snap.State)
	require.NotNil(t, snap.Data.Create)
	assert.Equal(t, dialog.StepAmount, snap.Data.Create.Step)
	require.NotNil(t, snap.Data.Context)
	assert.Equal(t, int64(7), snap.Data.Context.CollectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialogStore_Get_CorruptPayload(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDialogStore(db)

	mock.ExpectQuery("SELECT state, data FROM dialog_states").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"state", "data"}).
			AddRow("payment_flow", []byte("{not json")))

	snap, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, snap.Valid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialogStore_Set_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDialogStore(db)

	mock.ExpectExec("INSERT INTO dialog_states").
		WithArgs(int64(42), "payment_flow", []byte(`{"payment":{"collection_id":7,"title":"Trip"}}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Set(context.Background(), 42, dialog.Snapshot{
		State: dialog.StatePayment,
		Data: dialog.Data{
			Payment: &dialog.PaymentData{CollectionID: 7, Title: "Trip"},
		},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialogStore_Clear(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewDialogStore(db)

	mock.ExpectExec("DELETE FROM dialog_states").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Clear(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
