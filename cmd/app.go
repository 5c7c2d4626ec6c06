package cmd

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"gorm.io/gorm"

	"easyplan-sync.com/easyplan-sync/internal/backup"
	config "easyplan-sync.com/easyplan-sync/internal/configs"
	"easyplan-sync.com/easyplan-sync/internal/connectivity"
	"easyplan-sync.com/easyplan-sync/internal/identity"
	"easyplan-sync.com/easyplan-sync/internal/primary"
	repository "easyplan-sync.com/easyplan-sync/internal/repositories"
	"easyplan-sync.com/easyplan-sync/internal/services"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

// app holds everything a command needs, built once from the environment.
type app struct {
	cfg     config.Config
	l       pkgLog.Logger
	db      *gorm.DB
	primary *primary.RedisStore
	backup  *backup.Store
	session *identity.Session
	oracle  connectivity.Oracle
	sync    *services.SyncService
	stats   *services.StatsService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	l := config.NewLogger(cfg.Logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := config.NewDatabase(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	settings := repository.NewSettingsRepository(db)

	session, err := identity.LoadSession(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var oracle connectivity.Oracle
	if offline {
		oracle = connectivity.NewStatic(false)
	} else {
		oracle = connectivity.NewProber(cfg.ConnectivityProbeAddr, cfg.ConnectivityProbeTimeout(), cfg.ConnectivityCacheTTL())
	}

	primaryStore := primary.NewRedisStore(func() (rueidis.Client, error) {
		return config.NewRedisClient(cfg.RedisAddr, cfg.RemoteTimeout())
	}, cfg.RedisKeyPrefix, l)

	binClient := backup.NewJSONBinClient(cfg.JSONBinBaseURL, cfg.JSONBinAPIKey, cfg.RemoteTimeout(), l)
	backupStore := backup.NewStore(binClient, settings, l)

	syncService := services.NewSyncService(
		repository.NewTaskRepository(db),
		primaryStore,
		backupStore,
		oracle,
		session,
		l,
		services.SyncOptions{
			RemoteTimeout: cfg.RemoteTimeout(),
			Location:      loc,
		},
	)
	if err := syncService.Initialize(ctx); err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		l:       l,
		db:      db,
		primary: primaryStore,
		backup:  backupStore,
		session: session,
		oracle:  oracle,
		sync:    syncService,
		stats:   services.NewStatsService(loc),
	}, nil
}

// Close waits for background pushes and releases connections.
func (a *app) Close() {
	a.sync.Wait()
	a.primary.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.l.Sync()
}

// withApp runs fn with a freshly built app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
