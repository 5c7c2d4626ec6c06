package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	httpapi "easyplan-sync.com/easyplan-sync/internal/http"
	"easyplan-sync.com/easyplan-sync/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task HTTP API and the background catch-up sync worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, signedIn := a.session.CurrentUserID(); signedIn {
			if _, err := a.sync.LoadTasksForUser(ctx); err != nil {
				a.l.Warnf(ctx, "startup pull skipped: %v", err)
			}
		} else if _, err := a.sync.SeedSampleTasks(ctx); err != nil {
			a.l.Warnf(ctx, "seeding sample tasks failed: %v", err)
		}

		worker := services.NewSyncWorker(a.sync, a.oracle, a.cfg.SyncPollInterval(), a.l)
		worker.Start()
		worker.Trigger()

		e := echo.New()
		e.HideBanner = true
		handler := httpapi.NewHandler(a.sync, a.stats, a.session, worker, a.l)
		httpapi.Register(e, handler, a.cfg.RateLimit, a.l)

		go func() {
			a.l.Infof(ctx, "HTTP server listening on %s", a.cfg.AppURL)
			if err := e.Start(a.cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.l.Errorf(ctx, "server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		worker.Shutdown(shutdownCtx)

		a.l.Info(shutdownCtx, "HTTP server and sync worker shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
