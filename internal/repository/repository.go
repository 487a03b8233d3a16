// Package repository declares the storage contracts consumed by the engine.
package repository

import (
	"context"
	"time"

	"collectbot/internal/domain"
)

// UserRepository persists Telegram account mirrors.
type UserRepository interface {
	// Upsert creates the user on first contact and refreshes profile fields
	// plus last-seen afterwards.
	Upsert(ctx context.Context, user domain.User) error
}

// CollectionRepository persists collections.
type CollectionRepository interface {
	Create(ctx context.Context, c *domain.Collection) error
	GetByID(ctx context.Context, id int64) (domain.Collection, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]domain.Collection, error)
	ListActive(ctx context.Context) ([]domain.Collection, error)
	ListAll(ctx context.Context) ([]domain.Collection, error)

	// UpdateStatusIfActive transitions active -> status and reports whether a
	// row changed; a false result means the collection was missing or no
	// longer active (lost race), and nothing was written.
	UpdateStatusIfActive(ctx context.Context, id int64, status domain.CollectionStatus) (bool, error)

	// ForceSetStatus overwrites the status regardless of transitions (admin).
	ForceSetStatus(ctx context.Context, id int64, status domain.CollectionStatus) error

	// AddAmountIfActive atomically increments current_amount while the
	// collection is still active; false means no row qualified.
	AddAmountIfActive(ctx context.Context, id int64, amount float64) (bool, error)

	SetTitle(ctx context.Context, id int64, title string) error
	SetDescription(ctx context.Context, id int64, description string) error
	SetTarget(ctx context.Context, id int64, target float64) error
	SetDeadline(ctx context.Context, id int64, deadline time.Time) error
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string) (domain.Payment, error)
	ListByCollection(ctx context.Context, collectionID int64) ([]domain.Payment, error)
	ListPendingByCollection(ctx context.Context, collectionID int64) ([]domain.Payment, error)

	// ConfirmIfPending flips pending -> confirmed and reports whether a row
	// changed; false means the payment was missing or already confirmed.
	ConfirmIfPending(ctx context.Context, id string, at time.Time) (bool, error)
}

// SettingsRepository reads and writes the key/value settings table.
type SettingsRepository interface {
	// Get returns the value for key, or "" with no error when unset.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Settings keys consumed by the engine.
const (
	SettingMaintenanceEnabled = "maintenance_enabled"
	SettingMaintenanceMessage = "maintenance_message"
)
