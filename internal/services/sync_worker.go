package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"easyplan-sync.com/easyplan-sync/internal/connectivity"
	apperrors "easyplan-sync.com/easyplan-sync/internal/errors"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

type PendingSyncer interface {
	SyncPendingTasks(ctx context.Context) (SyncReport, error)
	HasPendingSync() bool
}

// SyncWorker runs catch-up syncs when connectivity comes back, on every
// tick while work is pending, and on demand through Trigger.
type SyncWorker struct {
	syncer   PendingSyncer
	oracle   connectivity.Oracle
	interval time.Duration
	l        pkgLog.Logger

	trigger chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	wasOnline bool
}

func NewSyncWorker(syncer PendingSyncer, oracle connectivity.Oracle, interval time.Duration, l pkgLog.Logger) *SyncWorker {
	return &SyncWorker{
		syncer:   syncer,
		oracle:   oracle,
		interval: interval,
		l:        l,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (w *SyncWorker) Start() {
	w.wasOnline = w.oracle.IsOnline()
	w.wg.Add(1)
	go w.loop()
}

// Trigger asks for a sync attempt soon. Extra calls while one is queued are dropped.
func (w *SyncWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *SyncWorker) loop() {
	defer w.wg.Done()

	ctx := context.Background()
	w.l.Infof(ctx, "sync worker started, polling every %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-w.trigger:
			w.runOnce(ctx, "trigger")
		case <-w.stop:
			w.l.Info(ctx, "sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	online := w.oracle.IsOnline()
	regained := online && !w.wasOnline
	w.wasOnline = online

	switch {
	case regained:
		w.l.Info(ctx, "sync worker: connectivity regained")
		w.runOnce(ctx, "reconnect")
	case online && w.syncer.HasPendingSync():
		w.runOnce(ctx, "poll")
	}
}

func (w *SyncWorker) runOnce(ctx context.Context, reason string) {
	report, err := w.syncer.SyncPendingTasks(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotSignedIn) || errors.Is(err, apperrors.ErrOffline) {
			w.l.Debugf(ctx, "sync worker (%s): nothing done: %v", reason, err)
			return
		}
		w.l.Warnf(ctx, "sync worker (%s): sync failed: %v", reason, err)
		return
	}
	if report.Pushed > 0 {
		w.l.Infof(ctx, "sync worker (%s): pushed %d tasks", reason, report.Pushed)
	}
}

// Shutdown stops the loop and waits for a running sync, up to ctx.
func (w *SyncWorker) Shutdown(ctx context.Context) {
	w.once.Do(func() { close(w.stop) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.l.Info(ctx, "sync worker shut down cleanly")
	case <-ctx.Done():
		w.l.Warn(ctx, "sync worker shutdown timed out")
	}
}
