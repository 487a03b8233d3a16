package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/logger"
	"collectbot/core/telegram/helpers"
	"collectbot/core/telegram/keyboard"
	"collectbot/internal/dialog"
	"collectbot/internal/domain"
	"collectbot/internal/service"
)

// StartPaymentAmount enters the payment flow for the given collection and
// prompts for the amount.
func (f *Flows) StartPaymentAmount(c tele.Context, userID, collectionID int64, title string) error {
	ctx := helpers.BuildContext(c)
	snap, err := f.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	next := dialog.Snapshot{
		State: dialog.StatePayment,
		Data: dialog.Data{
			Context: snap.Data.Context,
			Payment: &dialog.PaymentData{CollectionID: collectionID, Title: title},
		},
	}
	if err := f.store.Set(ctx, userID, next); err != nil {
		return err
	}
	logger.Info(ctx, "flow", "payment.start",
		slog.Int64("user_id", userID),
		slog.Int64("collection_id", collectionID),
	)
	return helpers.SendMD(c, fmt.Sprintf("How much did you pay towards *%s*? Send the amount, e.g. `500` or `49.90`.", title),
		keyboard.SingleCancelMarkup(CancelUnique))
}

func (f *Flows) handlePaymentStep(c tele.Context, snap dialog.Snapshot) error {
	userID := c.Sender().ID
	if handled, err := f.abortOnCommand(c, userID); handled {
		return err
	}
	ctx := helpers.BuildContext(c)
	pay := snap.Data.Payment

	amount, err := service.ParseAmount(strings.TrimSpace(c.Text()))
	if err != nil {
		return helpers.SendMD(c, "That doesn't look like a valid amount. Send a positive number, e.g. `500` or `49.90`.",
			keyboard.SingleCancelMarkup(CancelUnique))
	}

	p, err := f.svc.RecordPayment(ctx, pay.CollectionID, userID, amount)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		if rerr := f.reset(ctx, userID); rerr != nil {
			return rerr
		}
		return helpers.SendMD(c, "This collection no longer exists.")
	case errors.Is(err, domain.ErrNotActive):
		if rerr := f.reset(ctx, userID); rerr != nil {
			return rerr
		}
		return helpers.SendMD(c, fmt.Sprintf("*%s* is no longer accepting payments.", pay.Title))
	case err != nil:
		return err
	}

	if err := f.reset(ctx, userID); err != nil {
		return err
	}
	logger.Info(ctx, "flow", "payment.recorded",
		slog.Int64("user_id", userID),
		slog.Int64("collection_id", pay.CollectionID),
		slog.String("payment_id", p.ID),
	)

	msg := fmt.Sprintf("Recorded %.2f towards *%s*. Thank you!", p.Amount, pay.Title)
	if col, gerr := f.svc.GetCollection(ctx, pay.CollectionID); gerr == nil {
		msg += fmt.Sprintf("\nCollected so far: %.2f of %.2f.", col.CurrentAmount, col.TargetAmount)
	}
	return helpers.SendMD(c, msg)
}
