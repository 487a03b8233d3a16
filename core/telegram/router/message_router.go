package router

import (
	"time"

	tg "collectbot/core/telegram"
	"collectbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FlowDispatcher is the minimal interface for a persisted dialog manager.
// Dispatch reports whether the update was consumed by an active flow step.
type FlowDispatcher interface {
	Dispatch(c tele.Context) (bool, error)
}

// TextOptions controls fallback behaviour for free-text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc

	// Admin gates admin-only commands that arrive through the text route,
	// e.g. case variants the exact command endpoints never match.
	Admin middleware.AdminOptions
}

// TextRoutes builds the handler for free-text routing: an in-progress dialog
// flow consumes the text first, then command lookup, then the fallback.
func TextRoutes(flows FlowDispatcher, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if flows != nil {
			handled, ferr := flows.Dispatch(c)
			if handled || ferr != nil {
				logHandlerSummary(c, "flow", start, ferr)
				return ferr
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
				}
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return h(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
