package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/action/email"
	"github.com/RedouaeElalami/chutney/internal/api"
	"github.com/RedouaeElalami/chutney/internal/config"
	"github.com/RedouaeElalami/chutney/internal/dataset"
	"github.com/RedouaeElalami/chutney/internal/db"
	"github.com/RedouaeElalami/chutney/internal/engine"
	"github.com/RedouaeElalami/chutney/internal/environment"
	"github.com/RedouaeElalami/chutney/internal/history"
)

// App is the wired process: storage, services, action registry and engine.
type App struct {
	Config       *config.Config
	Log          *slog.Logger
	Store        *db.Store
	Environments *environment.Registry
	History      *history.Store
	Datasets     *dataset.Service
	Actions      *action.Registry
	Engine       *engine.Engine
}

// New opens the database, applies migrations and builds every service.
// A nil transport sends over SMTP with the configured timeout. The engine's
// workers run until Close, which first finishes every accepted invocation.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, transport email.Transport) (*App, error) {
	store, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if transport == nil {
		transport = email.NewSMTPTransport(cfg.SMTP.Timeout())
	}
	actions := action.NewRegistry()
	email.Register(actions, transport, cfg.ProviderTable())

	envs := environment.NewRegistry(log, store.Environments())
	hist := history.NewStore(log, store.Executions())
	datasets := dataset.NewService(log, store.Datasets())
	runner := engine.NewRunner(log, actions, envs, hist, datasets)

	log.Info("app initialised",
		slog.String("database", cfg.Database.Path),
		slog.Any("actions", actions.Types()),
		slog.Int("workers", cfg.Engine.Workers),
	)

	return &App{
		Config:       cfg,
		Log:          log,
		Store:        store,
		Environments: envs,
		History:      hist,
		Datasets:     datasets,
		Actions:      actions,
		Engine:       engine.New(ctx, runner, cfg.Engine, log),
	}, nil
}

// Handler returns the HTTP API over the app's services.
func (a *App) Handler() http.Handler {
	return api.New(a.Log, api.Deps{
		Engine:       a.Engine,
		History:      a.History,
		Environments: a.Environments,
		Datasets:     a.Datasets,
		DB:           a.Store,
	})
}

// ImportEnvironments loads the configured environment directory, if any.
func (a *App) ImportEnvironments(ctx context.Context) (int, error) {
	dir := a.Config.Environments.Dir
	if dir == "" {
		return 0, nil
	}
	return a.Environments.ImportDir(ctx, dir)
}

// Close drains the engine and closes the database.
func (a *App) Close() error {
	a.Engine.Shutdown()
	return a.Store.Close()
}
