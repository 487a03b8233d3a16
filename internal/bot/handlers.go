package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/telegram/helpers"
	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/resolver"
	"collectbot/internal/rules"
	"collectbot/internal/service"
)

// contextAction is the post-resolution body of a stateless command. args is
// the text after the command, empty when invoked through a disambiguation
// button.
type contextAction func(c tele.Context, cc *dialog.CollectionContext, args string) error

// command wraps a handler so that any in-progress flow is dropped first; a
// new command always wins over an abandoned wizard. Commands flagged as
// context-free also drop the pinned collection.
func (a *App) command(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		userID := c.Sender().ID
		if _, err := a.flows.ResetIfActive(ctx, userID); err != nil {
			return err
		}
		if rule, ok := rules.Lookup(name); ok && rule.NoContext {
			if err := dialog.ClearContext(ctx, a.store, userID); err != nil {
				return err
			}
		}
		return h(c)
	}
}

// contextHandler resolves the collection context, validates the command
// against it, and only then runs the action.
func (a *App) contextHandler(name string, action contextAction) tele.HandlerFunc {
	return a.command(name, func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		out, err := a.res.Resolve(ctx, c.Sender().ID, name)
		if err != nil {
			return err
		}
		switch out.Kind {
		case resolver.KindNoneOwned:
			return helpers.SendMD(c, msgNoCollections)
		case resolver.KindNotFound:
			return helpers.SendMD(c, msgContextVanished)
		case resolver.KindChoice:
			return helpers.SendMD(c, msgChooseOne, chooseCollectionMarkup(out.Choices, name))
		case resolver.KindResolved:
			return a.runAction(c, name, out.Context, commandArgs(c), action)
		}
		return nil
	})
}

// runAction validates and executes; shared by command handlers and the
// select_context callback.
func (a *App) runAction(c tele.Context, name string, cc *dialog.CollectionContext, args string, action contextAction) error {
	dec := rules.Validate(name, rules.ContextInfo{Pinned: true, Found: true, Context: cc})
	if !dec.Allowed {
		return helpers.SendMD(c, denyMessage(dec))
	}
	return action(c, cc, args)
}

// commandArgs extracts the text after the command token.
func commandArgs(c tele.Context) string {
	if msg := c.Message(); msg != nil && msg.Payload != "" {
		return strings.TrimSpace(msg.Payload)
	}
	text := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if i := strings.IndexAny(text, " \n"); i > 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}

func (a *App) handleStart(c tele.Context) error {
	return helpers.SendMD(c, msgWelcome, mainMenu())
}

func (a *App) handleHelp(c tele.Context) error {
	return helpers.SendMD(c, msgHelp)
}

func (a *App) handleNew(c tele.Context) error {
	return a.flows.StartCreate(c, c.Sender().ID)
}

func (a *App) actionGet(c tele.Context, cc *dialog.CollectionContext, _ string) error {
	ctx := helpers.BuildContext(c)
	col, err := a.svc.GetCollection(ctx, cc.CollectionID)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return helpers.SendMD(c, msgContextVanished)
	}
	if err != nil {
		return err
	}
	return helpers.SendMD(c, collectionCard(col))
}

func (a *App) actionHistory(c tele.Context, cc *dialog.CollectionContext, _ string) error {
	ctx := helpers.BuildContext(c)
	col, err := a.svc.GetCollection(ctx, cc.CollectionID)
	if err != nil {
		return err
	}
	payments, err := a.svc.CollectionPayments(ctx, cc.CollectionID)
	if err != nil {
		return err
	}
	return helpers.SendMD(c, paymentHistory(col, payments))
}

func (a *App) actionFinish(c tele.Context, cc *dialog.CollectionContext, _ string) error {
	return helpers.SendMD(c,
		fmt.Sprintf("Close *%s* as finished?", cc.Title),
		confirmMarkup(cbFinishSelect, cc.CollectionID, "🏁 Finish"))
}

func (a *App) actionCancel(c tele.Context, cc *dialog.CollectionContext, _ string) error {
	return helpers.SendMD(c,
		fmt.Sprintf("Cancel *%s*? Recorded payments stay in the history.", cc.Title),
		confirmMarkup(cbCancelSelect, cc.CollectionID, "🚫 Cancel it"))
}

// handlePaid is not context-bound like the others: a pinned collection is
// validated and, when active, goes straight to amount entry. Without a pin
// it offers every active collection, since anyone may pay into any of them.
func (a *App) handlePaid(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	snap, err := a.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if cc := snap.Data.Context; cc != nil {
		out, err := a.res.Resolve(ctx, userID, "paid")
		if err != nil {
			return err
		}
		if out.Kind == resolver.KindResolved {
			dec := rules.Validate("paid", rules.ContextInfo{Pinned: true, Found: true, Context: out.Context})
			if !dec.Allowed {
				return helpers.SendMD(c, denyMessage(dec))
			}
			return a.flows.StartPaymentAmount(c, userID, out.Context.CollectionID, out.Context.Title)
		}
	}

	active, err := a.svc.ActiveCollections(ctx)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return helpers.SendMD(c, "There are no active collections right now.")
	}
	return helpers.SendMD(c, "Which collection did you pay into?", payableMarkup(active))
}

func (a *App) actionApprove(c tele.Context, cc *dialog.CollectionContext, _ string) error {
	ctx := helpers.BuildContext(c)
	pending, err := a.svc.PendingPayments(ctx, cc.CollectionID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return helpers.SendMD(c, fmt.Sprintf("No pending payments for *%s*.", cc.Title))
	}
	return helpers.SendMD(c,
		fmt.Sprintf("Pending payments for *%s*:", cc.Title),
		pendingMarkup(pending))
}

func (a *App) actionSetName(c tele.Context, cc *dialog.CollectionContext, args string) error {
	if args == "" {
		return helpers.SendMD(c, "Usage: /setname `<new title>`")
	}
	ctx := helpers.BuildContext(c)
	if err := a.svc.Rename(ctx, cc.CollectionID, args); err != nil {
		return a.editFailed(c, err)
	}
	// Keep the pinned title in step with the ledger.
	if _, err := a.res.Pin(ctx, c.Sender().ID, cc.CollectionID); err != nil {
		return err
	}
	return helpers.SendMD(c, fmt.Sprintf("Renamed to *%s*.", args))
}

func (a *App) actionSetDescription(c tele.Context, cc *dialog.CollectionContext, args string) error {
	if args == "" {
		return helpers.SendMD(c, "Usage: /setdescription `<text>`")
	}
	ctx := helpers.BuildContext(c)
	if err := a.svc.SetDescription(ctx, cc.CollectionID, args); err != nil {
		return a.editFailed(c, err)
	}
	return helpers.SendMD(c, "Description updated.")
}

func (a *App) actionSetAmount(c tele.Context, cc *dialog.CollectionContext, args string) error {
	if args == "" {
		return helpers.SendMD(c, "Usage: /setamount `<amount>`, e.g. /setamount 2000")
	}
	amount, err := service.ParseAmount(args)
	if err != nil {
		return helpers.SendMD(c, "That doesn't look like a valid amount. Send a positive number, e.g. `2000` or `99.50`.")
	}
	ctx := helpers.BuildContext(c)
	if err := a.svc.SetTarget(ctx, cc.CollectionID, amount); err != nil {
		return a.editFailed(c, err)
	}
	return helpers.SendMD(c, fmt.Sprintf("Target amount is now %s.", fmtAmount(amount)))
}

func (a *App) actionSetDate(c tele.Context, cc *dialog.CollectionContext, args string) error {
	if args == "" {
		return helpers.SendMD(c, "Usage: /setdate `<DD.MM.YYYY>`, e.g. /setdate 31.12.2026")
	}
	ctx := helpers.BuildContext(c)
	err := a.svc.SetDeadline(ctx, cc.CollectionID, args)
	if errors.Is(err, domain.ErrInvalidDeadline) {
		return helpers.SendMD(c, "That date doesn't work. Send a *future* date as `DD.MM.YYYY`.")
	}
	if err != nil {
		return a.editFailed(c, err)
	}
	return helpers.SendMD(c, "Deadline moved to "+strings.TrimSpace(args)+".")
}

// editFailed maps edit errors that have a user-facing meaning.
func (a *App) editFailed(c tele.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		return helpers.SendMD(c, msgContextVanished)
	case errors.Is(err, domain.ErrEmptyTitle):
		return helpers.SendMD(c, "The title cannot be empty.")
	default:
		return err
	}
}

func (a *App) handleAdmin(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	if !a.cfg.Core.Telegram.IsAdmin(c.Sender().ID) {
		return helpers.SendText(c, msgAdminsOnly)
	}
	if err := a.flows.EnterAdmin(c, c.Sender().ID); err != nil {
		return err
	}
	return helpers.SendMD(c, "*Admin panel*", adminMenuMarkup(a.maintenanceOn(ctx)))
}

func (a *App) handleUnknownText(c tele.Context) error {
	return helpers.SendMD(c, msgUnknownText, mainMenu())
}
