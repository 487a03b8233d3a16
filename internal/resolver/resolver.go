// Package resolver derives which collection a stateless command operates on:
// from the pinned context when present, otherwise from the user's owned
// collections, prompting for disambiguation when several qualify.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"collectbot/core/logger"
	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/repository"
	"collectbot/internal/rules"
)

// Kind classifies the resolution outcome.
type Kind int

const (
	// KindNone means the command takes no context; any pinned one was cleared.
	KindNone Kind = iota
	// KindResolved carries a pinned, refreshed context.
	KindResolved
	// KindNotFound means the pinned collection no longer exists; it was unpinned.
	KindNotFound
	// KindNoneOwned means the user owns no collections to resolve against.
	KindNoneOwned
	// KindChoice means the user must pick among several owned collections.
	KindChoice
)

// Outcome is the result of one resolution.
type Outcome struct {
	Kind    Kind
	Context *dialog.CollectionContext
	// Choices enumerates candidates for KindChoice disambiguation.
	Choices []domain.Collection
}

// Resolver resolves command context against the ledger and the dialog store.
type Resolver struct {
	collections repository.CollectionRepository
	dialogs     dialog.Store
}

// New builds a Resolver.
func New(collections repository.CollectionRepository, dialogs dialog.Store) *Resolver {
	return &Resolver{collections: collections, dialogs: dialogs}
}

// Resolve determines the context for cmd (name without slash) on behalf of
// userID. Pinning and clearing are persisted here; the disambiguation prompt
// itself is rendered by the caller from Choices.
func (r *Resolver) Resolve(ctx context.Context, userID int64, cmd string) (Outcome, error) {
	rule, known := rules.Lookup(cmd)
	if known && rule.NoContext {
		if err := dialog.ClearContext(ctx, r.dialogs, userID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: KindNone}, nil
	}

	snap, err := r.dialogs.Get(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	if cc := snap.Data.Context; cc != nil {
		c, err := r.collections.GetByID(ctx, cc.CollectionID)
		if errors.Is(err, domain.ErrCollectionNotFound) {
			if err := dialog.ClearContext(ctx, r.dialogs, userID); err != nil {
				return Outcome{}, err
			}
			logger.Debug(ctx, "resolver", "context.vanished",
				slog.Int64("user_id", userID),
				slog.Int64("collection_id", cc.CollectionID),
			)
			return Outcome{Kind: KindNotFound}, nil
		}
		if err != nil {
			return Outcome{}, err
		}
		refreshed := &dialog.CollectionContext{
			CollectionID: c.ID,
			Status:       c.Status,
			Title:        c.Title,
		}
		if refreshed.Status != cc.Status || refreshed.Title != cc.Title {
			if err := dialog.PinContext(ctx, r.dialogs, userID, refreshed); err != nil {
				return Outcome{}, err
			}
		}
		return Outcome{Kind: KindResolved, Context: refreshed}, nil
	}

	owned, err := r.collections.ListByCreator(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	switch len(owned) {
	case 0:
		return Outcome{Kind: KindNoneOwned}, nil
	case 1:
		cc := &dialog.CollectionContext{
			CollectionID: owned[0].ID,
			Status:       owned[0].Status,
			Title:        owned[0].Title,
		}
		if err := dialog.PinContext(ctx, r.dialogs, userID, cc); err != nil {
			return Outcome{}, err
		}
		logger.Debug(ctx, "resolver", "context.autopin",
			slog.Int64("user_id", userID),
			slog.Int64("collection_id", cc.CollectionID),
		)
		return Outcome{Kind: KindResolved, Context: cc}, nil
	default:
		return Outcome{Kind: KindChoice, Choices: owned}, nil
	}
}

// Pin records a context choice made through a disambiguation button.
func (r *Resolver) Pin(ctx context.Context, userID, collectionID int64) (*dialog.CollectionContext, error) {
	c, err := r.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	cc := &dialog.CollectionContext{
		CollectionID: c.ID,
		Status:       c.Status,
		Title:        c.Title,
	}
	if err := dialog.PinContext(ctx, r.dialogs, userID, cc); err != nil {
		return nil, err
	}
	return cc, nil
}
