// Package app wires configuration, storage and the Telegram bot together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/stockbot/core/bootstrap"
	"github.com/m3rciful/stockbot/core/logger"
	coretelegram "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/router"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/internal/bot"
	"github.com/m3rciful/stockbot/internal/catalog"
	"github.com/m3rciful/stockbot/internal/wizard"
)

// App is a fully wired stockbot instance.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	bot      *bot.Bot
	registry *coretelegram.Registry
}

// Bootstrap runs the infrastructure pipeline (logger, migrations, database,
// reference seed) and builds the App on top of it.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Modules: bootstrap.Modules{
			Seeders: []bootstrap.Seeder{ReferenceSeeder(cfg.Reference)},
		},
	})
	if err != nil {
		return nil, err
	}
	a, err := Build(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

// Build wires the catalog, conversation store, wizard and bot over db.
func Build(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("app: config and database are required")
	}
	store := catalog.NewStore(db)
	states, err := state.NewStore[wizard.Conversation](cfg.Session.Capacity, cfg.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("app: session store: %w", err)
	}
	engine := wizard.New(store, states,
		wizard.WithClassifier(wizard.NewClassifier(cfg.Catalog.PhoneCategories, cfg.Catalog.UsedConditions)),
	)
	b := bot.New(engine, store, cfg.Telegram.IsAdmin)

	reg := coretelegram.NewRegistry()
	if err := b.Register(reg); err != nil {
		return nil, err
	}
	return &App{cfg: cfg, db: db, bot: b, registry: reg}, nil
}

// TelegramRunOptions composes middleware and routes for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	access := a.bot.Access()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		IsAdmin:       access.IsAdmin,
		OnAdminReject: access.OnReject,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: a.bot.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.bot, a.registry, router.TextOptions{
		Admin:           access,
		UnknownText:     a.bot.UnknownText(),
		UnknownDocument: a.bot.UnknownDocument(),
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, a.bot.Limited()),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			if len(a.cfg.Telegram.AdminIDs) > 0 && rt.Menu.Scopes == 0 {
				logger.Warn(ctx, "tg.wire", "menu.admin_missing",
					slog.Int("admins", len(a.cfg.Telegram.AdminIDs)),
					slog.Int("failed", rt.Menu.Failed),
				)
			}
			logger.Info(ctx, "tg.wire", "bot.ready",
				slog.Int("admins", len(a.cfg.Telegram.AdminIDs)),
				slog.Int("admin_menus", rt.Menu.Scopes),
				slog.Int("session_capacity", a.cfg.Session.Capacity),
				slog.Duration("session_ttl", a.cfg.Session.TTL),
			)
			return nil
		},
	}, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.db.Close()
}
