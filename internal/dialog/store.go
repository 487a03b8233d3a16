package dialog

import (
	"context"
	"sync"
)

// Store is the persisted dialog state contract: one row per user, upserted
// by key. A missing row reads as an idle snapshot, never an error.
type Store interface {
	Get(ctx context.Context, userID int64) (Snapshot, error)
	Set(ctx context.Context, userID int64, snap Snapshot) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[int64]Snapshot
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Snapshot)}
}

// Get returns the stored snapshot, or an idle one when absent.
func (m *MemoryStore) Get(_ context.Context, userID int64) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if snap, ok := m.rows[userID]; ok {
		return snap, nil
	}
	return Snapshot{State: StateNone}, nil
}

// Set replaces the whole snapshot for a user.
func (m *MemoryStore) Set(_ context.Context, userID int64, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = snap
	return nil
}

// Clear removes the row for a user.
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

// PinContext sets the collection context on the stored snapshot while
// preserving the active flow, writing the full row back.
func PinContext(ctx context.Context, store Store, userID int64, cc *CollectionContext) error {
	snap, err := store.Get(ctx, userID)
	if err != nil {
		return err
	}
	snap.Data.Context = cc
	return store.Set(ctx, userID, snap)
}

// ClearContext drops the pinned collection context, if any.
func ClearContext(ctx context.Context, store Store, userID int64) error {
	snap, err := store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if snap.Data.Context == nil {
		return nil
	}
	snap.Data.Context = nil
	if snap.State == StateNone && snap.Data.Create == nil && snap.Data.Payment == nil {
		return store.Clear(ctx, userID)
	}
	return store.Set(ctx, userID, snap)
}
