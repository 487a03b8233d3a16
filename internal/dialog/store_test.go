package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateNone, snap.State)

	in := Snapshot{
		State: StateCreating,
		Data:  Data{Create: &CreateData{Step: StepAmount, Title: "Trip"}},
	}
	require.NoError(t, store.Set(ctx, 1, in))

	snap, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, in, snap)

	require.NoError(t, store.Clear(ctx, 1))
	snap, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateNone, snap.State)
}

func TestPinContext_PreservesFlow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cc := &CollectionContext{CollectionID: 7, Status: domain.StatusActive, Title: "Trip"}

	require.NoError(t, store.Set(ctx, 1, Snapshot{
		State: StateCreating,
		Data:  Data{Create: &CreateData{Step: StepTitle}},
	}))
	require.NoError(t, PinContext(ctx, store, 1, cc))

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateCreating, snap.State)
	require.NotNil(t, snap.Data.Create)
	assert.Equal(t, cc, snap.Data.Context)
}

func TestClearContext(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cc := &CollectionContext{CollectionID: 7, Status: domain.StatusActive, Title: "Trip"}

	require.NoError(t, PinContext(ctx, store, 1, cc))
	require.NoError(t, ClearContext(ctx, store, 1))

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Data.Context)
	assert.Equal(t, StateNone, snap.State)

	// Clearing an already-empty row is a no-op.
	require.NoError(t, ClearContext(ctx, store, 2))
}

func TestClearContext_KeepsActiveFlow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, 1, Snapshot{
		State: StatePayment,
		Data: Data{
			Context: &CollectionContext{CollectionID: 7, Status: domain.StatusActive},
			Payment: &PaymentData{CollectionID: 7},
		},
	}))
	require.NoError(t, ClearContext(ctx, store, 1))

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatePayment, snap.State)
	assert.Nil(t, snap.Data.Context)
	require.NotNil(t, snap.Data.Payment)
}
