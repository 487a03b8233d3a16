// Package bot assembles the collection bot: repositories, domain service,
// context resolver, dialog flows, and the command/callback wiring on top of
// the shared telegram core.
package bot

import (
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coretelegram "collectbot/core/telegram"
	"collectbot/core/telegram/commands"
	"collectbot/core/telegram/helpers"
	"collectbot/core/telegram/middleware"
	"collectbot/core/telegram/router"
	"collectbot/internal/config"
	"collectbot/internal/dialog"
	"collectbot/internal/flow"
	"collectbot/internal/repository"
	"collectbot/internal/repository/postgres"
	"collectbot/internal/resolver"
	"collectbot/internal/service"
)

// App is the fully wired bot application.
type App struct {
	cfg *config.Config

	users    repository.UserRepository
	settings repository.SettingsRepository

	svc      *service.Service
	res      *resolver.Resolver
	store    dialog.Store
	manager  *dialog.Manager
	flows    *flow.Flows
	registry *coretelegram.Registry

	// actions maps command names (no slash) to their post-resolution body,
	// shared by command handlers and the select_context callback.
	actions map[string]contextAction

	maintMu      sync.Mutex
	maintOn      bool
	maintChecked time.Time
}

// New wires the application on top of an initialized database handle.
func New(cfg *config.Config, db *sqlx.DB) *App {
	collections := postgres.NewCollectionRepo(db)
	payments := postgres.NewPaymentRepo(db)
	store := postgres.NewDialogStore(db)

	a := &App{
		cfg:      cfg,
		users:    postgres.NewUserRepo(db),
		settings: postgres.NewSettingsRepo(db),
		svc:      service.New(collections, payments),
		res:      resolver.New(collections, store),
		store:    store,
		registry: coretelegram.NewRegistry(),
	}

	a.manager = dialog.NewManager(store)
	a.manager.OnCorrupt(func(c tele.Context) error {
		return helpers.SendMD(c, msgStateReset)
	})
	a.flows = flow.New(store, a.svc)
	a.flows.Register(a.manager)

	a.registerActions()
	a.registerCommands()
	a.registerCallbacks()
	return a
}

func (a *App) registerActions() {
	a.actions = map[string]contextAction{
		"get":            a.actionGet,
		"history":        a.actionHistory,
		"finish":         a.actionFinish,
		"cancel":         a.actionCancel,
		"approve":        a.actionApprove,
		"setname":        a.actionSetName,
		"setdescription": a.actionSetDescription,
		"setamount":      a.actionSetAmount,
		"setdate":        a.actionSetDate,
	}
}

func (a *App) registerCommands() {
	reg := a.registry

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.command("start", a.handleStart),
		Description: "What this bot does",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.command("help", a.handleHelp),
		Description: "List available commands",
	})
	reg.RegisterCommand("/new", commands.Command{
		Handler:     a.command("new", a.handleNew),
		Description: "Start a new collection",
	})
	reg.RegisterCommand("/get", commands.Command{
		Handler:     a.contextHandler("get", a.actionGet),
		Description: "Show the current collection",
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:     a.contextHandler("history", a.actionHistory),
		Description: "Payment history",
	})
	reg.RegisterCommand("/paid", commands.Command{
		Handler:     a.command("paid", a.handlePaid),
		Description: "Record a payment",
	})
	reg.RegisterCommand("/finish", commands.Command{
		Handler:     a.contextHandler("finish", a.actionFinish),
		Description: "Close the collection as finished",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.contextHandler("cancel", a.actionCancel),
		Description: "Cancel the collection",
	})
	reg.RegisterCommand("/approve", commands.Command{
		Handler:     a.contextHandler("approve", a.actionApprove),
		Description: "Approve pending payments",
	})
	reg.RegisterCommand("/setname", commands.Command{
		Handler:     a.contextHandler("setname", a.actionSetName),
		Description: "Rename the collection",
	})
	reg.RegisterCommand("/setdescription", commands.Command{
		Handler:     a.contextHandler("setdescription", a.actionSetDescription),
		Description: "Change the description",
	})
	reg.RegisterCommand("/setamount", commands.Command{
		Handler:     a.contextHandler("setamount", a.actionSetAmount),
		Description: "Change the target amount",
	})
	reg.RegisterCommand("/setdate", commands.Command{
		Handler:     a.contextHandler("setdate", a.actionSetDate),
		Description: "Move the deadline",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.command("admin", a.handleAdmin),
		Description: "Admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	mws := coretelegram.DefaultMiddlewares(core, nil)
	mws = append(mws,
		coretelegram.Middleware{Name: "user_upsert", Use: a.userUpsertMiddleware},
		coretelegram.Middleware{Name: "maintenance", Use: a.maintenanceMiddleware},
	)

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin: core.Telegram.IsAdmin,
		OnAdminReject: func(c tele.Context) error {
			return helpers.SendText(c, msgAdminsOnly)
		},
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.manager, a.registry, router.TextOptions{
		UnknownText: a.handleUnknownText,
		Admin: middleware.AdminOptions{
			IsAdmin: core.Telegram.IsAdmin,
			OnReject: func(c tele.Context) error {
				return helpers.SendText(c, msgAdminsOnly)
			},
		},
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}
