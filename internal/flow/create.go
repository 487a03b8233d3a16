package flow

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/logger"
	"collectbot/core/telegram/helpers"
	"collectbot/core/telegram/keyboard"
	"collectbot/internal/dialog"
	"collectbot/internal/service"
)

// skipMark lets the user leave the optional description empty.
const skipMark = "-"

// StartCreate enters the creation wizard and prompts for the title.
func (f *Flows) StartCreate(c tele.Context, userID int64) error {
	ctx := helpers.BuildContext(c)
	snap, err := f.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	next := dialog.Snapshot{
		State: dialog.StateCreating,
		Data: dialog.Data{
			Context: snap.Data.Context,
			Create:  &dialog.CreateData{Step: dialog.StepTitle},
		},
	}
	if err := f.store.Set(ctx, userID, next); err != nil {
		return err
	}
	logger.Info(ctx, "flow", "create.start", slog.Int64("user_id", userID))
	return helpers.SendMD(c, "Let's create a new collection.\nSend me the *title*.",
		keyboard.SingleCancelMarkup(CancelUnique))
}

func (f *Flows) handleCreateStep(c tele.Context, snap dialog.Snapshot) error {
	userID := c.Sender().ID
	if handled, err := f.abortOnCommand(c, userID); handled {
		return err
	}
	ctx := helpers.BuildContext(c)
	input := strings.TrimSpace(c.Text())
	create := snap.Data.Create

	switch create.Step {
	case dialog.StepTitle:
		if input == "" {
			return helpers.SendMD(c, "The title cannot be empty. Send me the *title*.",
				keyboard.SingleCancelMarkup(CancelUnique))
		}
		create.Title = input
		create.Step = dialog.StepDescription
		if err := f.store.Set(ctx, userID, snap); err != nil {
			return err
		}
		return helpers.SendMD(c, fmt.Sprintf("Title: *%s*\nNow send a *description*, or `-` to skip.", create.Title),
			keyboard.SingleCancelMarkup(CancelUnique))

	case dialog.StepDescription:
		if input != skipMark {
			create.Description = input
		}
		create.Step = dialog.StepAmount
		if err := f.store.Set(ctx, userID, snap); err != nil {
			return err
		}
		return helpers.SendMD(c, "How much do you want to collect? Send the *target amount*, e.g. `1500` or `99.50`.",
			keyboard.SingleCancelMarkup(CancelUnique))

	case dialog.StepAmount:
		amount, err := service.ParseAmount(input)
		if err != nil {
			return helpers.SendMD(c, "That doesn't look like a valid amount. Send a positive number, e.g. `1500` or `99.50`.",
				keyboard.SingleCancelMarkup(CancelUnique))
		}
		create.Target = amount
		create.Step = dialog.StepDeadline
		if err := f.store.Set(ctx, userID, snap); err != nil {
			return err
		}
		return helpers.SendMD(c, "Finally, send the *deadline* in the format `DD.MM.YYYY` (a future date).",
			keyboard.SingleCancelMarkup(CancelUnique))

	case dialog.StepDeadline:
		deadline, err := f.svc.ParseDeadline(input)
		if err != nil {
			return helpers.SendMD(c, "That date doesn't work. Send a *future* date as `DD.MM.YYYY`, e.g. `31.12.2026`.",
				keyboard.SingleCancelMarkup(CancelUnique))
		}
		col, err := f.svc.CreateCollection(ctx, userID, create.Title, create.Description, create.Target, deadline)
		if err != nil {
			logger.Error(ctx, "flow", "create.failed",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
			if rerr := f.reset(ctx, userID); rerr != nil {
				return rerr
			}
			return helpers.SendMD(c, "Could not create the collection, please try again with /new.")
		}
		next := dialog.Snapshot{
			State: dialog.StateNone,
			Data: dialog.Data{
				Context: &dialog.CollectionContext{
					CollectionID: col.ID,
					Status:       col.Status,
					Title:        col.Title,
				},
			},
		}
		if err := f.store.Set(ctx, userID, next); err != nil {
			return err
		}
		logger.Info(ctx, "flow", "create.done",
			slog.Int64("user_id", userID),
			slog.Int64("collection_id", col.ID),
		)
		return helpers.SendMD(c, fmt.Sprintf(
			"Collection *%s* created.\nTarget: %.2f\nDeadline: %s\n\nIt is now your active context: /paid, /finish and /get apply to it.",
			col.Title, col.TargetAmount, col.Deadline.Format(service.DeadlineLayout)))
	}
	return nil
}
