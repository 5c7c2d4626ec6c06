package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"easyplan-sync.com/easyplan-sync/internal/binstore"
	config "easyplan-sync.com/easyplan-sync/internal/configs"
	middleware "easyplan-sync.com/easyplan-sync/internal/http/middlewares"
)

var binserverCmd = &cobra.Command{
	Use:   "binserver",
	Short: "Start a self-hosted JSONBin compatible backup server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		l := config.NewLogger(cfg.Logger)
		defer func() { _ = l.Sync() }()

		db, err := config.NewBinDatabase(cfg.BinServerDSN)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := echo.New()
		e.HideBanner = true
		e.Use(echomw.Recover())
		e.Use(echomw.RequestID())
		e.Use(middleware.RequestLogger(l))
		binstore.Register(e, binstore.NewHandler(binstore.NewRepository(db), cfg.JSONBinAPIKey, l))

		go func() {
			l.Infof(ctx, "bin server listening on %s", cfg.BinServerURL)
			if err := e.Start(cfg.BinServerURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Errorf(ctx, "bin server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		l.Info(shutdownCtx, "bin server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(binserverCmd)
}
