// Package flow implements the multi-step conversation flows: the collection
// creation wizard, payment amount entry, and the admin menu gate. Each flow
// is a step handler registered on the dialog manager; entry points set the
// state and send the first prompt.
package flow

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/telegram/helpers"
	"collectbot/internal/dialog"
	"collectbot/internal/service"
)

// CancelUnique is the callback unique of the inline cancel button shown
// under every flow prompt.
const CancelUnique = "flow_cancel"

// Flows binds the step handlers to their dependencies.
type Flows struct {
	store dialog.Store
	svc   *service.Service
}

// New builds the flow set.
func New(store dialog.Store, svc *service.Service) *Flows {
	return &Flows{store: store, svc: svc}
}

// Register attaches the step handlers to the manager.
func (f *Flows) Register(m *dialog.Manager) {
	m.Register(dialog.StateCreating, f.handleCreateStep)
	m.Register(dialog.StatePayment, f.handlePaymentStep)
	m.Register(dialog.StateAdmin, f.handleAdminStep)
}

// Abort clears the active flow while keeping the pinned context, then
// notifies the user. Used by the cancel button and by /reset style handlers.
func (f *Flows) Abort(c tele.Context, userID int64) error {
	ctx := helpers.BuildContext(c)
	if err := f.reset(ctx, userID); err != nil {
		return err
	}
	return helpers.SendMD(c, "Action cancelled.")
}

// ResetIfActive drops any in-progress flow, reporting whether one was active.
// Commands sent mid-flow call this so the user never has to dig out of an
// abandoned wizard.
func (f *Flows) ResetIfActive(ctx context.Context, userID int64) (bool, error) {
	snap, err := f.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if !snap.InProgress() {
		return false, nil
	}
	return true, f.store.Set(ctx, userID, dialog.Snapshot{
		State: dialog.StateNone,
		Data:  dialog.Data{Context: snap.Data.Context},
	})
}

// reset returns the user to the idle state, preserving the pinned context.
func (f *Flows) reset(ctx context.Context, userID int64) error {
	snap, err := f.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	return f.store.Set(ctx, userID, dialog.Snapshot{
		State: dialog.StateNone,
		Data:  dialog.Data{Context: snap.Data.Context},
	})
}

// abortOnCommand cancels the flow when the user sends a slash command
// mid-flow instead of an answer. Reports whether it took over.
func (f *Flows) abortOnCommand(c tele.Context, userID int64) (bool, error) {
	if !strings.HasPrefix(strings.TrimSpace(c.Text()), "/") {
		return false, nil
	}
	ctx := helpers.BuildContext(c)
	if err := f.reset(ctx, userID); err != nil {
		return true, err
	}
	return true, helpers.SendMD(c, "Action cancelled. Send the command again.")
}
