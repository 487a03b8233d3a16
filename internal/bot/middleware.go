package bot

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"collectbot/core/logger"
	"collectbot/core/telegram/helpers"
	"collectbot/internal/domain"
	"collectbot/internal/repository"
)

const maintenanceCacheTTL = 10 * time.Second

// userUpsertMiddleware mirrors every sender into the users table. Failures
// are logged, never block the update.
func (a *App) userUpsertMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if sender := c.Sender(); sender != nil {
			ctx := helpers.BuildContext(c)
			err := a.users.Upsert(ctx, domain.User{
				ID:        sender.ID,
				FirstName: sender.FirstName,
				LastName:  sender.LastName,
				Username:  sender.Username,
				Language:  sender.LanguageCode,
			})
			if err != nil {
				logger.Warn(ctx, "bot", "user.upsert.failed",
					slog.Int64("user_id", sender.ID),
					slog.String("err", err.Error()),
				)
			}
		}
		return next(c)
	}
}

// maintenanceMiddleware blocks non-admin traffic while maintenance mode is
// on. Admins pass through so they can turn it back off.
func (a *App) maintenanceMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || a.cfg.Core.Telegram.IsAdmin(sender.ID) {
			return next(c)
		}
		ctx := helpers.BuildContext(c)
		if !a.maintenanceOn(ctx) {
			return next(c)
		}
		msg, err := a.settings.Get(ctx, repository.SettingMaintenanceMessage)
		if err != nil || msg == "" {
			msg = a.cfg.Bot.MaintenanceMessage
		}
		return helpers.SendText(c, msg)
	}
}

// maintenanceOn reads the maintenance flag with a short cache so every
// update does not hit the settings table.
func (a *App) maintenanceOn(ctx context.Context) bool {
	a.maintMu.Lock()
	defer a.maintMu.Unlock()
	if time.Since(a.maintChecked) < maintenanceCacheTTL {
		return a.maintOn
	}
	value, err := a.settings.Get(ctx, repository.SettingMaintenanceEnabled)
	if err != nil {
		logger.Warn(ctx, "bot", "maintenance.read.failed", slog.String("err", err.Error()))
		return a.maintOn
	}
	a.maintOn = value == "1" || value == "true"
	a.maintChecked = time.Now()
	return a.maintOn
}

// toggleMaintenance flips the flag and refreshes the cache.
func (a *App) toggleMaintenance(ctx context.Context) (bool, error) {
	a.maintMu.Lock()
	defer a.maintMu.Unlock()
	value, err := a.settings.Get(ctx, repository.SettingMaintenanceEnabled)
	if err != nil {
		return false, err
	}
	on := !(value == "1" || value == "true")
	store := "0"
	if on {
		store = "1"
	}
	if err := a.settings.Set(ctx, repository.SettingMaintenanceEnabled, store); err != nil {
		return false, err
	}
	a.maintOn = on
	a.maintChecked = time.Now()
	return on, nil
}
