package flow

import (
	tele "gopkg.in/telebot.v4"

	"collectbot/core/telegram/helpers"
	"collectbot/internal/dialog"
)

// EnterAdmin switches the user into the admin menu state. The menu itself
// is rendered by the /admin command handler.
func (f *Flows) EnterAdmin(c tele.Context, userID int64) error {
	ctx := helpers.BuildContext(c)
	snap, err := f.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	return f.store.Set(ctx, userID, dialog.Snapshot{
		State: dialog.StateAdmin,
		Data:  dialog.Data{Context: snap.Data.Context},
	})
}

// LeaveAdmin returns an admin to the idle state.
func (f *Flows) LeaveAdmin(c tele.Context, userID int64) error {
	ctx := helpers.BuildContext(c)
	return f.reset(ctx, userID)
}

// Free text in admin mode is not an answer to anything; point back at the
// menu. Commands still cancel the mode like any other flow.
func (f *Flows) handleAdminStep(c tele.Context, _ dialog.Snapshot) error {
	userID := c.Sender().ID
	if handled, err := f.abortOnCommand(c, userID); handled {
		return err
	}
	return helpers.SendMD(c, "Use the buttons above, or /admin to reopen the menu.")
}
