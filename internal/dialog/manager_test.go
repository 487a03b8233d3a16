package dialog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"

	"collectbot/internal/dialog"
	"collectbot/internal/testutil"
)

func TestManagerDispatch_IdleNotConsumed(t *testing.T) {
	m := dialog.NewManager(dialog.NewMemoryStore())
	c := testutil.NewFakeTele(1, "hello")

	handled, err := m.Dispatch(c)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestManagerDispatch_RoutesToStepHandler(t *testing.T) {
	store := dialog.NewMemoryStore()
	m := dialog.NewManager(store)

	var gotStep dialog.CreateStep
	m.Register(dialog.StateCreating, func(_ tele.Context, snap dialog.Snapshot) error {
		gotStep = snap.Data.Create.Step
		return nil
	})

	require.NoError(t, store.Set(context.Background(), 1, dialog.Snapshot{
		State: dialog.StateCreating,
		Data:  dialog.Data{Create: &dialog.CreateData{Step: dialog.StepDeadline}},
	}))

	handled, err := m.Dispatch(testutil.NewFakeTele(1, "31.12.2026"))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, dialog.StepDeadline, gotStep)
}

func TestManagerDispatch_CorruptShapeResets(t *testing.T) {
	store := dialog.NewMemoryStore()
	m := dialog.NewManager(store)
	m.Register(dialog.StateCreating, func(tele.Context, dialog.Snapshot) error {
		t.Fatal("step handler must not run on a corrupt snapshot")
		return nil
	})

	corruptNotified := false
	m.OnCorrupt(func(tele.Context) error {
		corruptNotified = true
		return nil
	})

	// Payment payload under the creating state: shape mismatch.
	require.NoError(t, store.Set(context.Background(), 1, dialog.Snapshot{
		State: dialog.StateCreating,
		Data:  dialog.Data{Payment: &dialog.PaymentData{CollectionID: 7}},
	}))

	handled, err := m.Dispatch(testutil.NewFakeTele(1, "whatever"))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, corruptNotified)

	snap, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateNone, snap.State)
}

func TestManagerDispatch_UnregisteredStateResets(t *testing.T) {
	store := dialog.NewMemoryStore()
	m := dialog.NewManager(store)

	require.NoError(t, store.Set(context.Background(), 1, dialog.Snapshot{State: dialog.StateAdmin}))

	handled, err := m.Dispatch(testutil.NewFakeTele(1, "text"))
	require.NoError(t, err)
	assert.True(t, handled)

	snap, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateNone, snap.State)
}
