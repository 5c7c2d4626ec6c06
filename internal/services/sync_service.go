package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"easyplan-sync.com/easyplan-sync/internal/connectivity"
	"easyplan-sync.com/easyplan-sync/internal/errors"
	"easyplan-sync.com/easyplan-sync/internal/identity"
	repository "easyplan-sync.com/easyplan-sync/internal/repositories"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

type LocalCache interface {
	Upsert(ctx context.Context, task *model.Task, needsSync bool) error
	UpsertAll(ctx context.Context, tasks []*model.Task) error
	ReplaceAll(ctx context.Context, tasks []*model.Task) error
	DeleteByID(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]repository.TaskRecord, error)
	GetPendingSync(ctx context.Context) ([]repository.TaskRecord, error)
	UpdateSyncState(ctx context.Context, ids []string, needsSync bool) error
}

type PrimaryStore interface {
	Put(ctx context.Context, userID string, task *model.Task) error
	BatchPut(ctx context.Context, userID string, tasks []*model.Task) error
	Delete(ctx context.Context, userID, taskID string) error
	ListAll(ctx context.Context, userID string) ([]*model.Task, error)
}

type BackupStore interface {
	ExportAll(ctx context.Context, userID string, tasks []*model.Task) error
	ImportAll(ctx context.Context) ([]*model.Task, error)
	BinID(ctx context.Context) (string, error)
}

// SyncStatus tells the caller what happened to a mutation beyond the local save.
type SyncStatus string

const (
	StatusLocalOnly   SyncStatus = "local_only"
	StatusPendingSync SyncStatus = "pending_sync"
	StatusSyncing     SyncStatus = "syncing"
)

type SyncReport struct {
	Pushed         int  `json:"pushed"`
	Cleared        int  `json:"cleared"`
	BackupExported bool `json:"backupExported"`
}

type Status struct {
	UserID       string `json:"userId,omitempty"`
	SignedIn     bool   `json:"signedIn"`
	Online       bool   `json:"online"`
	TaskCount    int    `json:"taskCount"`
	PendingCount int    `json:"pendingCount"`
	BackupBinID  string `json:"backupBinId,omitempty"`
}

type SyncOptions struct {
	RemoteTimeout time.Duration
	Location      *time.Location
	Clock         func() time.Time
}

// SyncService owns the in-memory task list and is the only writer to the
// cache and both remote stores.
type SyncService struct {
	cache   LocalCache
	primary PrimaryStore
	backup  BackupStore
	oracle  connectivity.Oracle
	ident   identity.Provider
	l       pkgLog.Logger

	remoteTimeout time.Duration
	loc           *time.Location
	clock         func() time.Time

	mu        sync.RWMutex
	tasks     []*model.Task
	pending   map[string]struct{}
	revisions map[string]uint64

	wg sync.WaitGroup
}

func NewSyncService(
	cache LocalCache,
	primary PrimaryStore,
	backup BackupStore,
	oracle connectivity.Oracle,
	ident identity.Provider,
	l pkgLog.Logger,
	opts SyncOptions,
) *SyncService {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &SyncService{
		cache:         cache,
		primary:       primary,
		backup:        backup,
		oracle:        oracle,
		ident:         ident,
		l:             l,
		remoteTimeout: opts.RemoteTimeout,
		loc:           opts.Location,
		clock:         opts.Clock,
		pending:       make(map[string]struct{}),
		revisions:     make(map[string]uint64),
	}
}

// Initialize loads the task list and the pending set from the cache.
// It must run once before any other call.
func (s *SyncService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(ctx); err != nil {
		return err
	}
	s.l.Infof(ctx, "sync: loaded %d tasks, %d pending", len(s.tasks), len(s.pending))
	return nil
}

func (s *SyncService) reloadLocked(ctx context.Context) error {
	recs, err := s.cache.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load cached tasks: %w", err)
	}

	tasks := make([]*model.Task, 0, len(recs))
	pending := make(map[string]struct{})
	for _, rec := range recs {
		tasks = append(tasks, rec.ToTask())
		if rec.NeedsSync {
			pending[rec.ID] = struct{}{}
		}
	}
	s.tasks = tasks
	s.pending = pending
	return nil
}

func (s *SyncService) AddTask(ctx context.Context, task *model.Task) (*model.Task, SyncStatus, error) {
	if task == nil || !task.HasTitle() {
		return nil, "", errors.ErrEmptyTitle
	}

	task = task.Clone()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Normalize()
	if task.IsCompleted && task.CompletedAt == nil {
		task.MarkCompleted()
	}

	s.mu.Lock()
	if s.indexLocked(task.ID) >= 0 {
		s.mu.Unlock()
		return nil, "", errors.ErrTaskExists
	}
	s.tasks = append(s.tasks, task)
	s.sortLocked()
	userID, rev := s.persistLocked(ctx, task)
	s.mu.Unlock()

	return task.Clone(), s.dispatchPut(userID, task.Clone(), rev, true), nil
}

// UpdateTask overwrites the stored task with the same id.
func (s *SyncService) UpdateTask(ctx context.Context, task *model.Task) (*model.Task, SyncStatus, error) {
	if task == nil || task.ID == "" {
		return nil, "", errors.ErrTaskIDRequired
	}
	if !task.HasTitle() {
		return nil, "", errors.ErrEmptyTitle
	}

	task = task.Clone()

	s.mu.Lock()
	idx := s.indexLocked(task.ID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, "", errors.ErrTaskNotFound
	}
	current := s.tasks[idx]
	if task.CreatedAt.IsZero() {
		task.CreatedAt = current.CreatedAt
	}
	task.Normalize()
	if task.IsCompleted && task.CompletedAt == nil {
		task.CompletedAt = current.CompletedAt
		if task.CompletedAt == nil {
			task.MarkCompleted()
		}
	}
	s.tasks[idx] = task
	s.sortLocked()
	userID, rev := s.persistLocked(ctx, task)
	s.mu.Unlock()

	return task.Clone(), s.dispatchPut(userID, task.Clone(), rev, false), nil
}

func (s *SyncService) ToggleCompletion(ctx context.Context, id string) (*model.Task, SyncStatus, error) {
	if id == "" {
		return nil, "", errors.ErrTaskIDRequired
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, "", errors.ErrTaskNotFound
	}
	task := s.tasks[idx].Clone()
	task.Toggle()
	s.tasks[idx] = task
	userID, rev := s.persistLocked(ctx, task)
	s.mu.Unlock()

	return task.Clone(), s.dispatchPut(userID, task.Clone(), rev, false), nil
}

// DeleteTask refuses with ErrDeleteRefusedOffline while signed in and
// offline; the task then stays in place.
func (s *SyncService) DeleteTask(ctx context.Context, id string) (SyncStatus, error) {
	if id == "" {
		return "", errors.ErrTaskIDRequired
	}

	userID, signedIn := s.ident.CurrentUserID()
	if signedIn && !s.oracle.IsOnline() {
		return "", errors.ErrDeleteRefusedOffline
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", errors.ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	delete(s.pending, id)
	s.revisions[id]++
	if err := s.cache.DeleteByID(ctx, id); err != nil {
		s.l.Errorf(ctx, "sync: failed to delete cached task %s: %v", id, err)
	}
	s.mu.Unlock()

	if !signedIn {
		return StatusLocalOnly, nil
	}

	s.goRemote(func(ctx context.Context) {
		if err := s.primary.Delete(ctx, userID, id); err != nil {
			s.l.Warnf(ctx, "sync: remote delete of %s failed: %v", id, err)
			return
		}
		s.l.Debugf(ctx, "sync: remote delete of %s done", id)
	})
	return StatusSyncing, nil
}

// persistLocked writes task to the cache and, for a signed-in user, marks it
// pending. It returns the user id ("" for guest) and the task's new revision.
func (s *SyncService) persistLocked(ctx context.Context, task *model.Task) (string, uint64) {
	userID, signedIn := s.ident.CurrentUserID()
	s.revisions[task.ID]++
	rev := s.revisions[task.ID]

	if signedIn {
		s.pending[task.ID] = struct{}{}
	}
	if err := s.cache.Upsert(ctx, task, signedIn); err != nil {
		s.l.Errorf(ctx, "sync: failed to cache task %s: %v", task.ID, err)
	}
	return userID, rev
}

func (s *SyncService) dispatchPut(userID string, task *model.Task, rev uint64, exportAfter bool) SyncStatus {
	if userID == "" {
		return StatusLocalOnly
	}
	if !s.oracle.IsOnline() {
		return StatusPendingSync
	}

	s.goRemote(func(ctx context.Context) {
		if err := s.primary.Put(ctx, userID, task); err != nil {
			s.l.Warnf(ctx, "sync: push of %s failed, left pending: %v", task.ID, err)
			return
		}
		s.markSynced(ctx, task.ID, rev)

		if exportAfter {
			if err := s.backup.ExportAll(ctx, userID, s.GetAllTasks()); err != nil {
				s.l.Warnf(ctx, "sync: backup after add failed: %v", err)
			}
		}
	})
	return StatusSyncing
}

// markSynced clears the pending flag unless a newer edit arrived meanwhile.
func (s *SyncService) markSynced(ctx context.Context, id string, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revisions[id] != rev {
		s.l.Debugf(ctx, "sync: %s changed during push, keeping it pending", id)
		return
	}
	delete(s.pending, id)
	if err := s.cache.UpdateSyncState(ctx, []string{id}, false); err != nil {
		s.l.Errorf(ctx, "sync: failed to clear sync flag of %s: %v", id, err)
	}
}

func (s *SyncService) goRemote(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every background remote call has returned.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

func (s *SyncService) requireRemote() (string, error) {
	userID, signedIn := s.ident.CurrentUserID()
	if !signedIn {
		return "", errors.ErrNotSignedIn
	}
	if !s.oracle.IsOnline() {
		return "", errors.ErrOffline
	}
	return userID, nil
}

// SyncPendingTasks pushes every pending task in one batch. Either all of
// them are marked synced or none are.
func (s *SyncService) SyncPendingTasks(ctx context.Context) (SyncReport, error) {
	userID, err := s.requireRemote()
	if err != nil {
		return SyncReport{}, err
	}

	// Mutators persist under the write lock, so rows and revisions read
	// under one read lock describe the same edit.
	s.mu.RLock()
	recs, err := s.cache.GetPendingSync(ctx)
	if err != nil {
		s.mu.RUnlock()
		return SyncReport{}, fmt.Errorf("read pending tasks: %w", err)
	}
	tasks := make([]*model.Task, 0, len(recs))
	revs := make(map[string]uint64, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.ToTask())
		revs[rec.ID] = s.revisions[rec.ID]
	}
	s.mu.RUnlock()

	if len(tasks) == 0 {
		return SyncReport{}, nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	if err := s.primary.BatchPut(rctx, userID, tasks); err != nil {
		s.l.Warnf(ctx, "sync: batch push of %d tasks failed: %v", len(tasks), err)
		return SyncReport{}, fmt.Errorf("push pending tasks: %w", err)
	}

	report := SyncReport{Pushed: len(tasks)}

	s.mu.Lock()
	cleared := make([]string, 0, len(revs))
	for id, rev := range revs {
		if s.revisions[id] != rev {
			continue
		}
		cleared = append(cleared, id)
		delete(s.pending, id)
	}
	if err := s.cache.UpdateSyncState(ctx, cleared, false); err != nil {
		s.l.Errorf(ctx, "sync: failed to clear sync flags: %v", err)
	}
	s.mu.Unlock()
	report.Cleared = len(cleared)

	if err := s.backup.ExportAll(rctx, userID, s.GetAllTasks()); err != nil {
		s.l.Warnf(ctx, "sync: backup after batch push failed: %v", err)
	} else {
		report.BackupExported = true
	}

	s.l.Infof(ctx, "sync: pushed %d pending tasks", report.Pushed)
	return report, nil
}

// LoadTasksForUser pulls the user's whole remote collection into the cache.
// Remote documents overwrite cached rows, pending edits included.
func (s *SyncService) LoadTasksForUser(ctx context.Context) (int, error) {
	userID, err := s.requireRemote()
	if err != nil {
		return 0, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	remote, err := s.primary.ListAll(rctx, userID)
	if err != nil {
		return 0, fmt.Errorf("pull tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.UpsertAll(ctx, remote); err != nil {
		return 0, fmt.Errorf("cache pulled tasks: %w", err)
	}
	for _, t := range remote {
		s.revisions[t.ID]++
	}
	if err := s.reloadLocked(ctx); err != nil {
		return 0, err
	}

	s.l.Infof(ctx, "sync: pulled %d tasks for %s", len(remote), userID)
	return len(remote), nil
}

// ExportToBackup overwrites the backup bin with the current list.
func (s *SyncService) ExportToBackup(ctx context.Context) error {
	if !s.oracle.IsOnline() {
		return errors.ErrOffline
	}
	userID, _ := s.ident.CurrentUserID()

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	if err := s.backup.ExportAll(rctx, userID, s.GetAllTasks()); err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	return nil
}

// ImportFromBackup replaces the list and the cache with the backup content.
func (s *SyncService) ImportFromBackup(ctx context.Context) (int, error) {
	binID, err := s.backup.BinID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read bin id: %w", err)
	}
	if binID == "" {
		return 0, errors.ErrNoBackup
	}
	if !s.oracle.IsOnline() {
		return 0, errors.ErrOffline
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	imported, err := s.backup.ImportAll(rctx)
	if err != nil {
		return 0, fmt.Errorf("import backup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.ReplaceAll(ctx, imported); err != nil {
		return 0, fmt.Errorf("cache imported tasks: %w", err)
	}
	for id := range s.revisions {
		s.revisions[id]++
	}
	tasks := make([]*model.Task, 0, len(imported))
	for _, t := range imported {
		tasks = append(tasks, t.Clone())
	}
	s.tasks = tasks
	s.sortLocked()
	s.pending = make(map[string]struct{})

	s.l.Infof(ctx, "sync: imported %d tasks from backup %s", len(tasks), binID)
	return len(tasks), nil
}

// SeedSampleTasks adds demo tasks for a guest with an empty list.
func (s *SyncService) SeedSampleTasks(ctx context.Context) (int, error) {
	if _, signedIn := s.ident.CurrentUserID(); signedIn {
		return 0, nil
	}
	s.mu.RLock()
	empty := len(s.tasks) == 0
	s.mu.RUnlock()
	if !empty {
		return 0, nil
	}

	today := s.clock().In(s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	samples := []struct {
		title, desc, at string
		due             time.Time
	}{
		{"Review project proposal", "Go through the quarterly project proposal and provide feedback", "14:00", today},
		{"Team meeting preparation", "Prepare slides and agenda for tomorrow's team meeting", "16:30", today},
		{"Client presentation", "Present the new design concepts to the client", "10:00", tomorrow},
	}

	for _, sample := range samples {
		task := model.NewTask(sample.title)
		task.Description = sample.desc
		due := sample.due
		at := sample.at
		task.DueDate = &due
		task.DueTime = &at
		if _, _, err := s.AddTask(ctx, task); err != nil {
			return 0, err
		}
	}
	s.l.Infof(ctx, "sync: seeded %d sample tasks", len(samples))
	return len(samples), nil
}

// GetAllTasks returns copies, newest first.
func (s *SyncService) GetAllTasks() []*model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (s *SyncService) GetTask(id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, errors.ErrTaskNotFound
	}
	return s.tasks[idx].Clone(), nil
}

// GetTasksForDate matches on the calendar day only.
func (s *SyncService) GetTasksForDate(day time.Time) []*model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Task, 0)
	for _, t := range s.tasks {
		if t.IsDueOn(day, s.loc) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *SyncService) GetTodayTasks() []*model.Task {
	return s.GetTasksForDate(s.clock())
}

func (s *SyncService) GetPendingSyncCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

func (s *SyncService) HasPendingSync() bool {
	return s.GetPendingSyncCount() > 0
}

// CanDeleteNow is false only while signed in and offline.
func (s *SyncService) CanDeleteNow() bool {
	_, signedIn := s.ident.CurrentUserID()
	return !signedIn || s.oracle.IsOnline()
}

func (s *SyncService) BackupBinID(ctx context.Context) (string, error) {
	return s.backup.BinID(ctx)
}

func (s *SyncService) Status(ctx context.Context) (Status, error) {
	userID, signedIn := s.ident.CurrentUserID()
	binID, err := s.backup.BinID(ctx)
	if err != nil {
		return Status{}, err
	}

	s.mu.RLock()
	st := Status{
		UserID:       userID,
		SignedIn:     signedIn,
		TaskCount:    len(s.tasks),
		PendingCount: len(s.pending),
		BackupBinID:  binID,
	}
	s.mu.RUnlock()

	st.Online = s.oracle.IsOnline()
	return st, nil
}

func (s *SyncService) Location() *time.Location {
	return s.loc
}

func (s *SyncService) Now() time.Time {
	return s.clock()
}

func (s *SyncService) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *SyncService) sortLocked() {
	sort.SliceStable(s.tasks, func(i, j int) bool {
		a, b := s.tasks[i], s.tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
