package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/telegram/callbacks"
	"collectbot/core/telegram/keyboard"
	"collectbot/internal/domain"
	"collectbot/internal/rules"
	"collectbot/internal/service"
)

const (
	msgWelcome = "Hi! I help groups collect money together.\n\n" +
		"/new starts a collection, /paid records your payment, /get shows progress.\n" +
		"See /help for everything I can do."

	msgHelp = "*Commands*\n" +
		"/new – start a new collection\n" +
		"/get – show the current collection\n" +
		"/history – payment history\n" +
		"/paid – record a payment\n" +
		"/finish – close the collection as finished\n" +
		"/cancel – cancel the collection\n" +
		"/approve – approve pending payments\n" +
		"/setname `<title>` – rename the collection\n" +
		"/setdescription `<text>` – change the description\n" +
		"/setamount `<amount>` – change the target amount\n" +
		"/setdate `<DD.MM.YYYY>` – move the deadline"

	msgNoCollections   = "You have no collections yet. Start one with /new."
	msgContextVanished = "That collection no longer exists. Pick another one or start a new one with /new."
	msgChooseOne       = "Which collection do you mean?"
	msgUnknownText     = "I didn't get that. See /help for the commands I understand."
	msgAdminsOnly      = "This command is for admins only."
	msgStateReset      = "Something went out of sync, so I reset our conversation. Your collections are safe."
)

func statusLabel(s domain.CollectionStatus) string {
	switch s {
	case domain.StatusActive:
		return "active"
	case domain.StatusFinished:
		return "finished"
	case domain.StatusCancelled:
		return "cancelled"
	}
	return string(s)
}

func fmtAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// collectionCard renders the full collection summary.
func collectionCard(col domain.Collection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* (%s)\n", col.Title, statusLabel(col.Status))
	if col.Description != "" {
		b.WriteString(col.Description)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Collected: %s of %s\n", fmtAmount(col.CurrentAmount), fmtAmount(col.TargetAmount))
	fmt.Fprintf(&b, "Deadline: %s", col.Deadline.Format(service.DeadlineLayout))
	return b.String()
}

// denyMessage renders a validation denial for the user.
func denyMessage(dec rules.Decision) string {
	switch dec.Reason {
	case rules.ReasonNoContext:
		return msgNoCollections
	case rules.ReasonContextNotFound:
		return msgContextVanished
	case rules.ReasonInvalidStatus:
		return fmt.Sprintf("This collection is %s: %s.",
			statusLabel(dec.Status), strings.Join(rules.AllowedActions(dec.Status), ", "))
	}
	return msgUnknownText
}

// mainMenu is the persistent reply keyboard shown after /start.
func mainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{"/new", "/get"},
		[]string{"/paid", "/history"},
	)
}

// chooseCollectionMarkup builds the disambiguation keyboard; each button pins
// the collection and re-runs cmd.
func chooseCollectionMarkup(choices []domain.Collection, cmd string) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(choices))
	for _, col := range choices {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%s)", col.Title, statusLabel(col.Status)),
			Unique: cbSelectContext,
			Data:   callbacks.JoinPayload(fmt.Sprintf("%d", col.ID), cmd),
		})
	}
	return keyboard.InlineButtons(btns)
}

// confirmMarkup builds a yes/no pair for a lifecycle transition.
func confirmMarkup(unique string, collectionID int64, yesText string) *tele.ReplyMarkup {
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: yesText, Unique: unique, Data: fmt.Sprintf("%d", collectionID)},
		{Text: "↩️ Keep it", Unique: cbDismiss, Data: "keep"},
	})
	return markup
}

// payableMarkup lists active collections anyone can pay into.
func payableMarkup(cols []domain.Collection) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(cols))
	for _, col := range cols {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%s of %s)", col.Title, fmtAmount(col.CurrentAmount), fmtAmount(col.TargetAmount)),
			Unique: cbPaidSelect,
			Data:   fmt.Sprintf("%d", col.ID),
		})
	}
	return keyboard.InlineButtons(btns)
}

// pendingMarkup lists pending payments awaiting approval.
func pendingMarkup(payments []domain.Payment) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(payments))
	for _, p := range payments {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("✅ %s from %d", fmtAmount(p.Amount), p.UserID),
			Unique: cbApprovePayment,
			Data:   p.ID,
		})
	}
	return keyboard.InlineButtons(btns)
}

// adminMenuMarkup is the admin panel entry keyboard.
func adminMenuMarkup(maintenanceOn bool) *tele.ReplyMarkup {
	maintText := "🔧 Maintenance: off"
	if maintenanceOn {
		maintText = "🔧 Maintenance: ON"
	}
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "📋 All collections", Unique: cbAdminList, Data: "all"},
		{Text: maintText, Unique: cbAdminMaint, Data: "toggle"},
		{Text: "❌ Close", Unique: cbAdminClose, Data: "close"},
	})
}

// adminCollectionsMarkup lists every collection for admin inspection.
func adminCollectionsMarkup(cols []domain.Collection) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(cols))
	for _, col := range cols {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("#%d %s (%s)", col.ID, col.Title, statusLabel(col.Status)),
			Unique: cbAdminPick,
			Data:   fmt.Sprintf("%d", col.ID),
		})
	}
	return keyboard.InlineButtons(btns)
}

// adminStatusMarkup offers forced status overrides for one collection.
func adminStatusMarkup(collectionID int64) *tele.ReplyMarkup {
	id := fmt.Sprintf("%d", collectionID)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "▶️ Active", Unique: cbAdminSet, Data: callbacks.JoinPayload(id, string(domain.StatusActive))},
		},
		[]keyboard.InlineBtn{
			{Text: "🏁 Finished", Unique: cbAdminSet, Data: callbacks.JoinPayload(id, string(domain.StatusFinished))},
			{Text: "🚫 Cancelled", Unique: cbAdminSet, Data: callbacks.JoinPayload(id, string(domain.StatusCancelled))},
		},
	)
}

// paymentHistory renders the payment list for /history.
func paymentHistory(col domain.Collection, payments []domain.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %s of %s\n\n", col.Title, fmtAmount(col.CurrentAmount), fmtAmount(col.TargetAmount))
	if len(payments) == 0 {
		b.WriteString("No payments yet.")
		return b.String()
	}
	for _, p := range payments {
		mark := "✅"
		if p.Status == domain.PaymentPending {
			mark = "⏳"
		}
		fmt.Fprintf(&b, "%s %s from %d on %s\n", mark, fmtAmount(p.Amount), p.UserID, p.CreatedAt.Format("02.01.2006 15:04"))
	}
	return b.String()
}
