// Package service implements the domain operations over the collection and
// payment ledger, enforcing lifecycle invariants.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectbot/core/logger"
	"collectbot/internal/domain"
	"collectbot/internal/repository"

	"log/slog"
)

// DeadlineLayout is the only accepted user-facing deadline format.
const DeadlineLayout = "02.01.2006"

// Service exposes the domain operations used by flows and command handlers.
type Service struct {
	collections repository.CollectionRepository
	payments    repository.PaymentRepository
	now         func() time.Time
}

// New builds a Service over the given repositories.
func New(collections repository.CollectionRepository, payments repository.PaymentRepository) *Service {
	return &Service{
		collections: collections,
		payments:    payments,
		now:         time.Now,
	}
}

// NewWithClock builds a Service with an injected clock for tests.
func NewWithClock(collections repository.CollectionRepository, payments repository.PaymentRepository, now func() time.Time) *Service {
	s := New(collections, payments)
	if now != nil {
		s.now = now
	}
	return s
}

// ParseAmount parses a user-supplied decimal amount. A comma decimal
// separator is accepted. Returns ErrInvalidAmount for anything not > 0.
func ParseAmount(input string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(input, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return v, nil
}

// ParseDeadline parses a strict DD.MM.YYYY date and verifies it is strictly
// after today (date-only comparison).
func (s *Service) ParseDeadline(input string) (time.Time, error) {
	t, err := time.ParseInLocation(DeadlineLayout, strings.TrimSpace(input), time.Local)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDeadline
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if !t.After(today) {
		return time.Time{}, domain.ErrInvalidDeadline
	}
	return t, nil
}

// CreateCollection validates input and stores a new active collection.
func (s *Service) CreateCollection(ctx context.Context, creatorID int64, title, description string, target float64, deadline time.Time) (domain.Collection, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Collection{}, domain.ErrEmptyTitle
	}
	if target <= 0 {
		return domain.Collection{}, domain.ErrInvalidAmount
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, deadline.Location())
	if !deadline.After(today) {
		return domain.Collection{}, domain.ErrInvalidDeadline
	}

	c := domain.Collection{
		CreatorID:     creatorID,
		Title:         strings.TrimSpace(title),
		Description:   description,
		TargetAmount:  target,
		CurrentAmount: 0,
		Status:        domain.StatusActive,
		Deadline:      deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.collections.Create(ctx, &c); err != nil {
		return domain.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	logger.SVC.Info("collection created",
		slog.String("event", "collection.create"),
		slog.Int64("collection_id", c.ID),
		slog.Int64("creator_id", creatorID),
		slog.Float64("target", target),
	)
	return c, nil
}

// GetCollection loads one collection.
func (s *Service) GetCollection(ctx context.Context, id int64) (domain.Collection, error) {
	return s.collections.GetByID(ctx, id)
}

// OwnedCollections lists collections created by the user.
func (s *Service) OwnedCollections(ctx context.Context, creatorID int64) ([]domain.Collection, error) {
	return s.collections.ListByCreator(ctx, creatorID)
}

// ActiveCollections lists every active collection, not limited to one owner.
func (s *Service) ActiveCollections(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.ListActive(ctx)
}

// AllCollections lists every collection (admin view).
func (s *Service) AllCollections(ctx context.Context) ([]domain.Collection, error) {
	return s.collections.ListAll(ctx)
}

// FinishCollection transitions active -> finished. The status guard re-checks
// at the storage layer so a concurrent finish/cancel loses cleanly.
func (s *Service) FinishCollection(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.StatusFinished)
}

// CancelCollection transitions active -> cancelled.
func (s *Service) CancelCollection(ctx context.Context, id int64) error {
	return s.transition(ctx, id, domain.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id int64, to domain.CollectionStatus) error {
	c, err := s.collections.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// Defensive re-check; the validator should have filtered this already.
	if c.Status != domain.StatusActive {
		return domain.ErrNotActive
	}
	changed, err := s.collections.UpdateStatusIfActive(ctx, id, to)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !changed {
		return domain.ErrNotActive
	}
	logger.SVC.Info("collection status changed",
		slog.String("event", "collection.status"),
		slog.Int64("collection_id", id),
		slog.String("to", string(to)),
	)
	return nil
}

// ForceSetStatus overwrites the status without transition checks (admin only).
func (s *Service) ForceSetStatus(ctx context.Context, id int64, to domain.CollectionStatus) error {
	if !to.Valid() {
		return fmt.Errorf("invalid status %q", to)
	}
	if _, err := s.collections.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.collections.ForceSetStatus(ctx, id, to); err != nil {
		return fmt.Errorf("force status: %w", err)
	}
	logger.SVC.Warn("collection status forced",
		slog.String("event", "collection.status.force"),
		slog.Int64("collection_id", id),
		slog.String("to", string(to)),
	)
	return nil
}

// RecordPayment inserts a confirmed payment and applies its amount to the
// collection in one status-guarded atomic increment.
func (s *Service) RecordPayment(ctx context.Context, collectionID, userID int64, amount float64) (domain.Payment, error) {
	if amount <= 0 {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	c, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		return domain.Payment{}, err
	}
	if c.Status != domain.StatusActive {
		return domain.Payment{}, domain.ErrNotActive
	}

	now := s.now()
	p := domain.Payment{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		UserID:       userID,
		Amount:       amount,
		Status:       domain.PaymentConfirmed,
		CreatedAt:    now,
		ConfirmedAt:  &now,
	}
	if err := s.payments.Create(ctx, &p); err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	applied, err := s.collections.AddAmountIfActive(ctx, collectionID, amount)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("apply amount: %w", err)
	}
	if !applied {
		// The collection was finished/cancelled between the check and the
		// increment; the payment stays recorded but no amount is applied.
		return domain.Payment{}, domain.ErrNotActive
	}

	logger.SVC.Info("payment recorded",
		slog.String("event", "payment.record"),
		slog.String("payment_id", p.ID),
		slog.Int64("collection_id", collectionID),
		slog.Int64("user_id", userID),
		slog.Float64("amount", amount),
	)
	return p, nil
}

// PendingPayments lists payments awaiting creator approval.
func (s *Service) PendingPayments(ctx context.Context, collectionID int64) ([]domain.Payment, error) {
	return s.payments.ListPendingByCollection(ctx, collectionID)
}

// CollectionPayments lists all payments of a collection.
func (s *Service) CollectionPayments(ctx context.Context, collectionID int64) ([]domain.Payment, error) {
	return s.payments.ListByCollection(ctx, collectionID)
}

// ApprovePayment confirms a pending payment on behalf of the collection
// creator and applies its amount at approval time.
func (s *Service) ApprovePayment(ctx context.Context, paymentID string, approverID int64) (domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if p.Status != domain.PaymentPending {
		return domain.Payment{}, domain.ErrNotPending
	}
	c, err := s.collections.GetByID(ctx, p.CollectionID)
	if err != nil {
		return domain.Payment{}, err
	}
	if c.CreatorID != approverID {
		return domain.Payment{}, domain.ErrNotCreator
	}
	if c.Status != domain.StatusActive {
		return domain.Payment{}, domain.ErrNotActive
	}

	now := s.now()
	confirmed, err := s.payments.ConfirmIfPending(ctx, paymentID, now)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("confirm payment: %w", err)
	}
	if !confirmed {
		return domain.Payment{}, domain.ErrNotPending
	}
	if _, err := s.collections.AddAmountIfActive(ctx, p.CollectionID, p.Amount); err != nil {
		return domain.Payment{}, fmt.Errorf("apply amount: %w", err)
	}

	p.Status = domain.PaymentConfirmed
	p.ConfirmedAt = &now
	logger.SVC.Info("payment approved",
		slog.String("event", "payment.approve"),
		slog.String("payment_id", paymentID),
		slog.Int64("collection_id", p.CollectionID),
	)
	return p, nil
}

// Rename sets a new collection title.
func (s *Service) Rename(ctx context.Context, id int64, title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.ErrEmptyTitle
	}
	return s.collections.SetTitle(ctx, id, strings.TrimSpace(title))
}

// SetDescription replaces the collection description.
func (s *Service) SetDescription(ctx context.Context, id int64, description string) error {
	return s.collections.SetDescription(ctx, id, description)
}

// SetTarget replaces the target amount.
func (s *Service) SetTarget(ctx context.Context, id int64, target float64) error {
	if target <= 0 {
		return domain.ErrInvalidAmount
	}
	return s.collections.SetTarget(ctx, id, target)
}

// SetDeadline replaces the deadline; the same future-date rule applies.
func (s *Service) SetDeadline(ctx context.Context, id int64, input string) error {
	t, err := s.ParseDeadline(input)
	if err != nil {
		return err
	}
	return s.collections.SetDeadline(ctx, id, t)
}
