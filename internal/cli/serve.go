package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RedouaeElalami/chutney/internal/app"
	"github.com/RedouaeElalami/chutney/internal/config"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Environment definitions found in environments.dir are imported at start-up
and re-imported whenever a YAML file in that directory changes, unless
environments.disable_watch is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	loader, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg := loader.Config()
	log.Info("starting chutney", slog.String("version", app.BuildVersion()), slog.String("log_level", cfg.Log.Level))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, opts.transport)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	defer a.Close()

	if n, err := a.ImportEnvironments(ctx); err != nil {
		log.Warn("environment import incomplete", slog.Int("imported", n), slog.Any("error", err))
	}

	// ── Hot-reload watcher ──────────────────────────────────────────────
	loader.OnChange(func(*config.Config) {
		log.Info("config file changed; restart to apply server, database and engine settings")
	})
	var watchDirs []string
	if dir := cfg.Environments.Dir; dir != "" && !cfg.Environments.DisableWatch {
		watchDirs = append(watchDirs, dir)
		loader.OnDirChange(func(dir, file string) {
			log.Info("environment definitions changed", slog.String("file", file))
			if _, err := a.Environments.ImportDir(context.WithoutCancel(ctx), dir); err != nil {
				log.Warn("environment re-import incomplete", slog.Any("error", err))
			}
		})
	}
	if opts.ConfigPath != "" || len(watchDirs) > 0 {
		stopWatch, err := loader.Watch(watchDirs...)
		if err != nil {
			log.Warn("config watcher unavailable (hot-reload disabled)", slog.Any("error", err))
		} else {
			defer stopWatch()
		}
	}

	// ── HTTP server ─────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return &ExitError{Code: ExitCommandError, Err: err}
		}
		return nil
	case <-ctx.Done():
	}

	// ── Graceful shutdown ───────────────────────────────────────────────
	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("server shutdown", slog.Any("error", err))
	}
	log.Info("goodbye")
	return nil
}
