// Package testutil provides in-memory repository implementations for
// service, resolver, and flow tests. All methods are safe for concurrent
// use; the guarded updates are atomic under one mutex, mirroring the
// single-statement SQL guards of the real repositories.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"collectbot/internal/domain"
)

// MemCollections implements repository.CollectionRepository.
type MemCollections struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Collection
}

// NewMemCollections builds an empty in-memory collection repository.
func NewMemCollections() *MemCollections {
	return &MemCollections{nextID: 1, rows: make(map[int64]domain.Collection)}
}

func (m *MemCollections) Create(_ context.Context, c *domain.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	m.rows[c.ID] = *c
	return nil
}

func (m *MemCollections) GetByID(_ context.Context, id int64) (domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return c, nil
}

func (m *MemCollections) ListByCreator(_ context.Context, creatorID int64) ([]domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Collection
	for _, c := range m.rows {
		if c.CreatorID == creatorID {
			out = append(out, c)
		}
	}
	sortByID(out)
	return out, nil
}

func (m *MemCollections) ListActive(_ context.Context) ([]domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Collection
	for _, c := range m.rows {
		if c.Status == domain.StatusActive {
			out = append(out, c)
		}
	}
	sortByID(out)
	return out, nil
}

func (m *MemCollections) ListAll(_ context.Context) ([]domain.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Collection, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sortByID(out)
	return out, nil
}

func (m *MemCollections) UpdateStatusIfActive(_ context.Context, id int64, status domain.CollectionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Status != domain.StatusActive {
		return false, nil
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return true, nil
}

func (m *MemCollections) ForceSetStatus(_ context.Context, id int64, status domain.CollectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return nil
}

func (m *MemCollections) AddAmountIfActive(_ context.Context, id int64, amount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.Status != domain.StatusActive {
		return false, nil
	}
	c.CurrentAmount += amount
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return true, nil
}

func (m *MemCollections) SetTitle(_ context.Context, id int64, title string) error {
	return m.update(id, func(c *domain.Collection) { c.Title = title })
}

func (m *MemCollections) SetDescription(_ context.Context, id int64, description string) error {
	return m.update(id, func(c *domain.Collection) { c.Description = description })
}

func (m *MemCollections) SetTarget(_ context.Context, id int64, target float64) error {
	return m.update(id, func(c *domain.Collection) { c.TargetAmount = target })
}

func (m *MemCollections) SetDeadline(_ context.Context, id int64, deadline time.Time) error {
	return m.update(id, func(c *domain.Collection) { c.Deadline = deadline })
}

func (m *MemCollections) update(id int64, fn func(*domain.Collection)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	fn(&c)
	c.UpdatedAt = time.Now()
	m.rows[id] = c
	return nil
}

func sortByID(cols []domain.Collection) {
	sort.Slice(cols, func(i, j int) bool { return cols[i].ID < cols[j].ID })
}

// MemPayments implements repository.PaymentRepository.
type MemPayments struct {
	mu   sync.Mutex
	rows map[string]domain.Payment
	seq  []string
}

// NewMemPayments builds an empty in-memory payment repository.
func NewMemPayments() *MemPayments {
	return &MemPayments{rows: make(map[string]domain.Payment)}
}

func (m *MemPayments) Create(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.rows[p.ID] = *p
	m.seq = append(m.seq, p.ID)
	return nil
}

func (m *MemPayments) GetByID(_ context.Context, id string) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MemPayments) ListByCollection(_ context.Context, collectionID int64) ([]domain.Payment, error) {
	return m.list(collectionID, false)
}

func (m *MemPayments) ListPendingByCollection(_ context.Context, collectionID int64) ([]domain.Payment, error) {
	return m.list(collectionID, true)
}

func (m *MemPayments) list(collectionID int64, pendingOnly bool) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Payment
	for _, id := range m.seq {
		p := m.rows[id]
		if p.CollectionID != collectionID {
			continue
		}
		if pendingOnly && p.Status != domain.PaymentPending {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemPayments) ConfirmIfPending(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = domain.PaymentConfirmed
	p.ConfirmedAt = &at
	m.rows[id] = p
	return true, nil
}
