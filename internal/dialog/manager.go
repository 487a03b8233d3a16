package dialog

import (
	"log/slog"

	"collectbot/core/logger"
	tghelpers "collectbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// StepHandler advances one flow step using the snapshot read at dispatch time.
type StepHandler func(c tele.Context, snap Snapshot) error

// Manager routes free-text messages into the step handler registered for the
// user's persisted state. It owns no state itself; every dispatch re-reads
// the store so concurrent handler instances stay independent.
type Manager struct {
	store     Store
	handlers  map[State]StepHandler
	onCorrupt tele.HandlerFunc
}

// NewManager builds a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		handlers: make(map[State]StepHandler),
	}
}

// Register associates a state with its step handler.
func (m *Manager) Register(st State, h StepHandler) {
	if h == nil {
		return
	}
	m.handlers[st] = h
}

// OnCorrupt sets the handler invoked after a corrupted dialog row is reset.
func (m *Manager) OnCorrupt(h tele.HandlerFunc) {
	m.onCorrupt = h
}

// Store exposes the underlying store for context pinning helpers.
func (m *Manager) Store() Store {
	return m.store
}

// Dispatch feeds a free-text update into the active flow step, if any.
// It reports whether the update was consumed.
func (m *Manager) Dispatch(c tele.Context) (bool, error) {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	snap, err := m.store.Get(ctx, userID)
	if err != nil {
		logger.FLOW.Warn("dialog state read failed",
			slog.String("event", "flow.state.read"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false, nil
	}
	if !snap.InProgress() {
		return false, nil
	}

	logger.Debug(ctx, "flow", "flow.dispatch",
		slog.Int64("user_id", userID),
		slog.String("state", string(snap.State)),
	)

	handler, ok := m.handlers[snap.State]
	if !ok || !snap.Valid() {
		// Payload shape does not match the state: treat as corruption,
		// reset to idle so the user is never stuck.
		if err := m.store.Clear(ctx, userID); err != nil {
			logger.FLOW.Error("dialog state reset failed",
				slog.String("event", "flow.state.reset"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		logger.FLOW.Warn("corrupted dialog state reset",
			slog.String("event", "flow.state.corrupt"),
			slog.Int64("user_id", userID),
			slog.String("state", string(snap.State)),
		)
		if m.onCorrupt != nil {
			return true, m.onCorrupt(c)
		}
		return true, nil
	}

	return true, handler(c, snap)
}
