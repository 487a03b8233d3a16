package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/domain"
	"collectbot/internal/service"
	"collectbot/internal/testutil"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func newTestService(t *testing.T) (*service.Service, *testutil.MemCollections, *testutil.MemPayments) {
	t.Helper()
	cols := testutil.NewMemCollections()
	pays := testutil.NewMemPayments()
	svc := service.NewWithClock(cols, pays, func() time.Time { return testNow })
	return svc, cols, pays
}

func createActive(t *testing.T, svc *service.Service, creatorID int64) domain.Collection {
	t.Helper()
	col, err := svc.CreateCollection(context.Background(), creatorID, "Trip", "Weekend trip", 1500, testNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	return col
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{input: "100", expected: 100},
		{input: " 99.50 ", expected: 99.5},
		{input: "99,50", expected: 99.5},
		{input: "0", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := service.ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDeadline(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "future date", input: "11.03.2026"},
		{name: "far future", input: "31.12.2027"},
		{name: "today", input: "10.03.2026", wantErr: true},
		{name: "past", input: "01.01.2026", wantErr: true},
		{name: "wrong layout", input: "2026-03-11", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "lenient digits rejected", input: "1.3.2027", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseDeadline(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidDeadline)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateCollection_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	future := testNow.AddDate(0, 1, 0)

	_, err := svc.CreateCollection(ctx, 1, "  ", "", 100, future)
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = svc.CreateCollection(ctx, 1, "Trip", "", 0, future)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateCollection(ctx, 1, "Trip", "", 100, testNow.AddDate(0, -1, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidDeadline)

	col, err := svc.CreateCollection(ctx, 1, " Trip ", "desc", 100, future)
	require.NoError(t, err)
	assert.Equal(t, "Trip", col.Title)
	assert.Equal(t, domain.StatusActive, col.Status)
	assert.Zero(t, col.CurrentAmount)
	assert.NotZero(t, col.ID)
}

func TestFinishCollection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	require.NoError(t, svc.FinishCollection(ctx, col.ID))

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, got.Status)

	// Closed is closed, no matter which way.
	assert.ErrorIs(t, svc.FinishCollection(ctx, col.ID), domain.ErrNotActive)
	assert.ErrorIs(t, svc.CancelCollection(ctx, col.ID), domain.ErrNotActive)
}

func TestRecordPayment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	p, err := svc.RecordPayment(ctx, col.ID, 42, 250)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentConfirmed, p.Status)
	require.NotNil(t, p.ConfirmedAt)
	assert.NotEmpty(t, p.ID)

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.CurrentAmount)
}

func TestRecordPayment_ClosedCollection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)
	require.NoError(t, svc.CancelCollection(ctx, col.ID))

	_, err := svc.RecordPayment(ctx, col.ID, 42, 250)
	assert.ErrorIs(t, err, domain.ErrNotActive)

	_, err = svc.RecordPayment(ctx, 999, 42, 250)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = svc.RecordPayment(ctx, col.ID, 42, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

// Two hundred concurrent payments of 1 each must add up to exactly 200;
// the increment is a single guarded update, never read-modify-write.
func TestRecordPayment_Concurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, col.ID, userID, 1)
			assert.NoError(t, err)
		}(int64(i + 1))
	}
	wg.Wait()

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(n), got.CurrentAmount)

	payments, err := svc.CollectionPayments(ctx, col.ID)
	require.NoError(t, err)
	assert.Len(t, payments, n)
}

func TestApprovePayment(t *testing.T) {
	svc, _, pays := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	pending := domain.Payment{
		ID:           "ext-1",
		CollectionID: col.ID,
		UserID:       42,
		Amount:       300,
		Status:       domain.PaymentPending,
	}
	require.NoError(t, pays.Create(ctx, &pending))

	_, err := svc.ApprovePayment(ctx, "ext-1", 99)
	assert.ErrorIs(t, err, domain.ErrNotCreator)

	p, err := svc.ApprovePayment(ctx, "ext-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentConfirmed, p.Status)

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.CurrentAmount)

	// Second approval finds nothing pending.
	_, err = svc.ApprovePayment(ctx, "ext-1", 1)
	assert.ErrorIs(t, err, domain.ErrNotPending)

	_, err = svc.ApprovePayment(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestApprovePayment_ClosedCollection(t *testing.T) {
	svc, _, pays := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	pending := domain.Payment{
		ID: "ext-2", CollectionID: col.ID, UserID: 42, Amount: 300,
		Status: domain.PaymentPending,
	}
	require.NoError(t, pays.Create(ctx, &pending))
	require.NoError(t, svc.FinishCollection(ctx, col.ID))

	_, err := svc.ApprovePayment(ctx, "ext-2", 1)
	assert.ErrorIs(t, err, domain.ErrNotActive)
}

func TestEdits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	assert.ErrorIs(t, svc.Rename(ctx, col.ID, "  "), domain.ErrEmptyTitle)
	require.NoError(t, svc.Rename(ctx, col.ID, "New name"))

	assert.ErrorIs(t, svc.SetTarget(ctx, col.ID, -1), domain.ErrInvalidAmount)
	require.NoError(t, svc.SetTarget(ctx, col.ID, 2500))

	assert.ErrorIs(t, svc.SetDeadline(ctx, col.ID, "10.03.2026"), domain.ErrInvalidDeadline)
	require.NoError(t, svc.SetDeadline(ctx, col.ID, "01.06.2026"))
	require.NoError(t, svc.SetDescription(ctx, col.ID, "updated"))

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", got.Title)
	assert.Equal(t, 2500.0, got.TargetAmount)
	assert.Equal(t, "updated", got.Description)
	assert.Equal(t, "01.06.2026", got.Deadline.Format(service.DeadlineLayout))
}

func TestForceSetStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	col := createActive(t, svc, 1)

	require.NoError(t, svc.FinishCollection(ctx, col.ID))
	// Admin override may reopen a closed collection.
	require.NoError(t, svc.ForceSetStatus(ctx, col.ID, domain.StatusActive))

	got, err := svc.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)

	assert.Error(t, svc.ForceSetStatus(ctx, col.ID, domain.CollectionStatus("nonsense")))
	assert.ErrorIs(t, svc.ForceSetStatus(ctx, 999, domain.StatusActive), domain.ErrCollectionNotFound)
}
