package bot

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/telegram/callbacks"
	"collectbot/core/telegram/helpers"
	"collectbot/internal/domain"
	"collectbot/internal/flow"
)

// Callback uniques. Data rides after the unique as "<unique>|<payload>".
const (
	cbSelectContext  = "select_context"
	cbFinishSelect   = "finish_select"
	cbCancelSelect   = "cancel_select"
	cbPaidSelect     = "paid_select"
	cbApprovePayment = "approve_payment"
	cbDismiss        = "dismiss"
	cbAdminList      = "admin_list"
	cbAdminPick      = "admin_pick"
	cbAdminSet       = "admin_set"
	cbAdminMaint     = "admin_maint"
	cbAdminClose     = "admin_close"
)

func (a *App) registerCallbacks() {
	reg := a.registry
	_ = reg.RegisterCallback(cbSelectContext, a.cbSelectContext)
	_ = reg.RegisterCallback(cbFinishSelect, a.cbFinish)
	_ = reg.RegisterCallback(cbCancelSelect, a.cbCancel)
	_ = reg.RegisterCallback(cbPaidSelect, a.cbPaidSelect)
	_ = reg.RegisterCallback(cbApprovePayment, a.cbApprovePayment)
	_ = reg.RegisterCallback(flow.CancelUnique, a.cbFlowCancel)
	_ = reg.RegisterCallback(cbDismiss, a.cbDismiss)
	_ = reg.RegisterCallback(cbAdminList, a.adminOnly(a.cbAdminList))
	_ = reg.RegisterCallback(cbAdminPick, a.adminOnly(a.cbAdminPick))
	_ = reg.RegisterCallback(cbAdminSet, a.adminOnly(a.cbAdminSet))
	_ = reg.RegisterCallback(cbAdminMaint, a.adminOnly(a.cbAdminMaint))
	_ = reg.RegisterCallback(cbAdminClose, a.adminOnly(a.cbAdminClose))
}

// adminOnly guards admin callbacks; the callback router has no per-route
// admin wrapper, so the check lives here.
func (a *App) adminOnly(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || !a.cfg.Core.Telegram.IsAdmin(sender.ID) {
			return helpers.EditOrSendMD(c, msgAdminsOnly)
		}
		return h(c)
	}
}

// cbSelectContext pins the chosen collection and re-runs the command the
// user originally sent. Payload: "<collection id>|<command>".
func (a *App) cbSelectContext(c tele.Context) error {
	id, cmd, err := callbacks.PayloadInt64String(c)
	if err != nil {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	cc, err := a.res.Pin(ctx, c.Sender().ID, id)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return helpers.EditOrSendMD(c, msgContextVanished)
	}
	if err != nil {
		return err
	}
	action, ok := a.actions[cmd]
	if !ok {
		return helpers.EditOrSendMD(c, fmt.Sprintf("Working with *%s* now.", cc.Title))
	}
	return a.runAction(c, cmd, cc, "", action)
}

func (a *App) cbFinish(c tele.Context) error {
	return a.transition(c, domain.StatusFinished, "🏁 *%s* is finished. Thanks everyone!")
}

func (a *App) cbCancel(c tele.Context) error {
	return a.transition(c, domain.StatusCancelled, "🚫 *%s* has been cancelled.")
}

func (a *App) transition(c tele.Context, to domain.CollectionStatus, doneFmt string) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	col, err := a.svc.GetCollection(ctx, id)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return helpers.EditOrSendMD(c, msgContextVanished)
	}
	if err != nil {
		return err
	}

	if to == domain.StatusFinished {
		err = a.svc.FinishCollection(ctx, id)
	} else {
		err = a.svc.CancelCollection(ctx, id)
	}
	if errors.Is(err, domain.ErrNotActive) {
		return helpers.EditOrSendMD(c, fmt.Sprintf("*%s* is already closed.", col.Title))
	}
	if err != nil {
		return err
	}

	// Refresh the pinned status so follow-up commands see the new state.
	if _, perr := a.res.Pin(ctx, c.Sender().ID, id); perr != nil && !errors.Is(perr, domain.ErrCollectionNotFound) {
		return perr
	}
	return helpers.EditOrSendMD(c, fmt.Sprintf(doneFmt, col.Title))
}

func (a *App) cbPaidSelect(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	col, err := a.svc.GetCollection(ctx, id)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return helpers.EditOrSendMD(c, msgContextVanished)
	}
	if err != nil {
		return err
	}
	if col.Status != domain.StatusActive {
		return helpers.EditOrSendMD(c, fmt.Sprintf("*%s* is no longer accepting payments.", col.Title))
	}
	return a.flows.StartPaymentAmount(c, c.Sender().ID, col.ID, col.Title)
}

func (a *App) cbApprovePayment(c tele.Context) error {
	paymentID := callbacks.CallbackPayload(c)
	if paymentID == "" {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	p, err := a.svc.ApprovePayment(ctx, paymentID, c.Sender().ID)
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		return helpers.EditOrSendMD(c, "That payment no longer exists.")
	case errors.Is(err, domain.ErrNotPending):
		return helpers.EditOrSendMD(c, "That payment was already approved.")
	case errors.Is(err, domain.ErrNotCreator):
		return helpers.EditOrSendMD(c, "Only the collection creator can approve payments.")
	case errors.Is(err, domain.ErrNotActive):
		return helpers.EditOrSendMD(c, "The collection is closed; pending payments can no longer be approved.")
	case err != nil:
		return err
	}
	return helpers.EditOrSendMD(c, fmt.Sprintf("Approved %s from %d.", fmtAmount(p.Amount), p.UserID))
}

func (a *App) cbFlowCancel(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	if _, err := a.flows.ResetIfActive(ctx, c.Sender().ID); err != nil {
		return err
	}
	return helpers.EditOrSendMD(c, "Action cancelled.")
}

func (a *App) cbDismiss(c tele.Context) error {
	return helpers.EditOrSendMD(c, "Okay, leaving it as is.")
}

func (a *App) cbAdminList(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	cols, err := a.svc.AllCollections(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return helpers.EditOrSendMD(c, "No collections yet.")
	}
	return helpers.EditOrSendMD(c, "*All collections*", adminCollectionsMarkup(cols))
}

func (a *App) cbAdminPick(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	col, err := a.svc.GetCollection(ctx, id)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return helpers.EditOrSendMD(c, msgContextVanished)
	}
	if err != nil {
		return err
	}
	return helpers.EditOrSendMD(c, collectionCard(col), adminStatusMarkup(col.ID))
}

// cbAdminSet force-sets a status. Payload: "<collection id>|<status>".
func (a *App) cbAdminSet(c tele.Context) error {
	id, raw, err := callbacks.PayloadInt64String(c)
	status := domain.CollectionStatus(raw)
	if err != nil || !status.Valid() {
		return helpers.EditOrSendMD(c, msgUnknownText)
	}
	ctx := helpers.BuildContext(c)
	if err := a.svc.ForceSetStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return helpers.EditOrSendMD(c, msgContextVanished)
		}
		return err
	}
	return helpers.EditOrSendMD(c, fmt.Sprintf("Collection #%d is now %s.", id, statusLabel(status)))
}

func (a *App) cbAdminMaint(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	on, err := a.toggleMaintenance(ctx)
	if err != nil {
		return err
	}
	state := "off"
	if on {
		state = "ON"
	}
	return helpers.EditOrSendMD(c, "Maintenance mode is now "+state+".", adminMenuMarkup(on))
}

func (a *App) cbAdminClose(c tele.Context) error {
	if err := a.flows.LeaveAdmin(c, c.Sender().ID); err != nil {
		return err
	}
	return helpers.EditOrSendMD(c, "Admin panel closed.")
}
