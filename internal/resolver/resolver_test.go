package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/resolver"
	"collectbot/internal/testutil"
)

func newResolver(t *testing.T) (*resolver.Resolver, *testutil.MemCollections, *dialog.MemoryStore) {
	t.Helper()
	cols := testutil.NewMemCollections()
	store := dialog.NewMemoryStore()
	return resolver.New(cols, store), cols, store
}

func addCollection(t *testing.T, cols *testutil.MemCollections, creatorID int64, title string, status domain.CollectionStatus) domain.Collection {
	t.Helper()
	c := domain.Collection{
		CreatorID:    creatorID,
		Title:        title,
		TargetAmount: 1000,
		Status:       status,
		Deadline:     time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, cols.Create(context.Background(), &c))
	return c
}

func TestResolve_NoContextCommandClearsPin(t *testing.T) {
	r, cols, store := newResolver(t)
	ctx := context.Background()
	col := addCollection(t, cols, 1, "Trip", domain.StatusActive)

	require.NoError(t, dialog.PinContext(ctx, store, 1, &dialog.CollectionContext{
		CollectionID: col.ID, Status: col.Status, Title: col.Title,
	}))

	out, err := r.Resolve(ctx, 1, "new")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindNone, out.Kind)

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Data.Context)
}

func TestResolve_NoneOwned(t *testing.T) {
	r, _, _ := newResolver(t)

	out, err := r.Resolve(context.Background(), 1, "finish")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindNoneOwned, out.Kind)
}

func TestResolve_SingleOwnedAutoPins(t *testing.T) {
	r, cols, store := newResolver(t)
	ctx := context.Background()
	col := addCollection(t, cols, 1, "Trip", domain.StatusActive)
	addCollection(t, cols, 2, "Someone else's", domain.StatusActive)

	out, err := r.Resolve(ctx, 1, "finish")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindResolved, out.Kind)
	require.NotNil(t, out.Context)
	assert.Equal(t, col.ID, out.Context.CollectionID)

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.Data.Context)
	assert.Equal(t, col.ID, snap.Data.Context.CollectionID)
}

func TestResolve_MultipleOwnedNeedsChoice(t *testing.T) {
	r, cols, store := newResolver(t)
	ctx := context.Background()
	addCollection(t, cols, 1, "Trip", domain.StatusActive)
	addCollection(t, cols, 1, "Gift", domain.StatusFinished)

	out, err := r.Resolve(ctx, 1, "get")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindChoice, out.Kind)
	assert.Len(t, out.Choices, 2)

	// Nothing gets pinned until the user picks.
	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Data.Context)
}

func TestResolve_PinnedStatusRefreshed(t *testing.T) {
	r, cols, store := newResolver(t)
	ctx := context.Background()
	col := addCollection(t, cols, 1, "Trip", domain.StatusActive)

	// Pin with a stale status, then close the collection behind its back.
	require.NoError(t, dialog.PinContext(ctx, store, 1, &dialog.CollectionContext{
		CollectionID: col.ID, Status: domain.StatusActive, Title: "Old title",
	}))
	changed, err := cols.UpdateStatusIfActive(ctx, col.ID, domain.StatusFinished)
	require.NoError(t, err)
	require.True(t, changed)

	out, err := r.Resolve(ctx, 1, "finish")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindResolved, out.Kind)
	assert.Equal(t, domain.StatusFinished, out.Context.Status)
	assert.Equal(t, "Trip", out.Context.Title)

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, snap.Data.Context)
	assert.Equal(t, domain.StatusFinished, snap.Data.Context.Status)
}

func TestResolve_VanishedContextCleared(t *testing.T) {
	r, _, store := newResolver(t)
	ctx := context.Background()

	require.NoError(t, dialog.PinContext(ctx, store, 1, &dialog.CollectionContext{
		CollectionID: 404, Status: domain.StatusActive, Title: "Ghost",
	}))

	out, err := r.Resolve(ctx, 1, "finish")
	require.NoError(t, err)
	assert.Equal(t, resolver.KindNotFound, out.Kind)

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Data.Context)
}

func TestPin(t *testing.T) {
	r, cols, store := newResolver(t)
	ctx := context.Background()
	col := addCollection(t, cols, 1, "Trip", domain.StatusActive)

	cc, err := r.Pin(ctx, 1, col.ID)
	require.NoError(t, err)
	assert.Equal(t, col.ID, cc.CollectionID)
	assert.Equal(t, col.Title, cc.Title)

	snap, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cc, snap.Data.Context)

	_, err = r.Pin(ctx, 1, 404)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}
