// Package domain holds the collection ledger entities and the operations
// that enforce their invariants.
package domain

import (
	"time"
)

// CollectionStatus is the lifecycle state of a collection.
type CollectionStatus string

const (
	// StatusActive accepts payments and lifecycle transitions.
	StatusActive CollectionStatus = "active"
	// StatusFinished is terminal.
	StatusFinished CollectionStatus = "finished"
	// StatusCancelled is terminal.
	StatusCancelled CollectionStatus = "cancelled"
)

// Terminal reports whether no further status transition is defined.
func (s CollectionStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Valid reports whether the value is a known collection status.
func (s CollectionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Collection is a creator-owned fundraising campaign.
type Collection struct {
	ID            int64            `db:"id"`
	CreatorID     int64            `db:"creator_id"`
	Title         string           `db:"title"`
	Description   string           `db:"description"`
	TargetAmount  float64          `db:"target_amount"`
	CurrentAmount float64          `db:"current_amount"`
	Status        CollectionStatus `db:"status"`
	Deadline      time.Time        `db:"deadline"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	// PaymentPending awaits creator approval before the amount is applied.
	PaymentPending PaymentStatus = "pending"
	// PaymentConfirmed means the amount has been applied to the collection.
	PaymentConfirmed PaymentStatus = "confirmed"
)

// Payment records a single contribution against a collection.
type Payment struct {
	ID           string        `db:"id"`
	CollectionID int64         `db:"collection_id"`
	UserID       int64         `db:"user_id"`
	Amount       float64       `db:"amount"`
	Status       PaymentStatus `db:"status"`
	CreatedAt    time.Time     `db:"created_at"`
	ConfirmedAt  *time.Time    `db:"confirmed_at"`
}

// User mirrors a Telegram account; upserted on every inbound update.
type User struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Username  string    `db:"username"`
	Language  string    `db:"language"`
	LastSeen  time.Time `db:"last_seen"`
}
