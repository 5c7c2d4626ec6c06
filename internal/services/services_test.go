package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"easyplan-sync.com/easyplan-sync/internal/connectivity"
	apperrors "easyplan-sync.com/easyplan-sync/internal/errors"
	"easyplan-sync.com/easyplan-sync/internal/identity"
	repository "easyplan-sync.com/easyplan-sync/internal/repositories"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

// fakePrimary is an in-memory document store that records every call.
type fakePrimary struct {
	mu      sync.Mutex
	docs    map[string]map[string]*model.Task
	puts    int
	batches [][]string
	deletes int
	lists   int
	err     error
	putErr  error
	gate    chan struct{}
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{docs: make(map[string]map[string]*model.Task)}
}

func (f *fakePrimary) wait() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakePrimary) store(userID string, t *model.Task) {
	if f.docs[userID] == nil {
		f.docs[userID] = make(map[string]*model.Task)
	}
	f.docs[userID][t.ID] = t.Clone()
}

func (f *fakePrimary) Put(ctx context.Context, userID string, task *model.Task) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.err != nil {
		return f.err
	}
	if f.putErr != nil {
		return f.putErr
	}
	f.store(userID, task)
	return nil
}

func (f *fakePrimary) BatchPut(ctx context.Context, userID string, tasks []*model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	f.batches = append(f.batches, ids)
	if f.err != nil {
		return f.err
	}
	for _, t := range tasks {
		f.store(userID, t)
	}
	return nil
}

func (f *fakePrimary) Delete(ctx context.Context, userID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.err != nil {
		return f.err
	}
	delete(f.docs[userID], taskID)
	return nil
}

func (f *fakePrimary) ListAll(ctx context.Context, userID string) ([]*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Task, 0, len(f.docs[userID]))
	for _, t := range f.docs[userID] {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakePrimary) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts + len(f.batches) + f.deletes + f.lists
}

// fakeBackup mimics the bin store: create once, then update.
type fakeBackup struct {
	mu      sync.Mutex
	binID   string
	tasks   []*model.Task
	creates int
	updates int
	reads   int
	err     error
}

func (f *fakeBackup) ExportAll(ctx context.Context, userID string, tasks []*model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.binID == "" {
		f.creates++
		f.binID = "bin-1"
	} else {
		f.updates++
	}
	f.tasks = tasks
	return nil
}

func (f *fakeBackup) ImportAll(ctx context.Context) ([]*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.binID == "" {
		return nil, apperrors.ErrNoBackup
	}
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakeBackup) BinID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binID, nil
}

func (f *fakeBackup) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.updates + f.reads
}

type fixture struct {
	svc     *SyncService
	repo    *repository.TaskRepository
	primary *fakePrimary
	backup  *fakeBackup
	oracle  *connectivity.Static
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&repository.TaskRecord{}, &repository.Setting{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	return db
}

func setupService(t *testing.T, userID string, online bool) *fixture {
	repo := repository.NewTaskRepository(setupTestDB(t))
	f := &fixture{
		repo:    repo,
		primary: newFakePrimary(),
		backup:  &fakeBackup{},
		oracle:  connectivity.NewStatic(online),
	}
	f.svc = NewSyncService(repo, f.primary, f.backup, f.oracle, identity.Static(userID), pkgLog.NewNop(), SyncOptions{
		RemoteTimeout: 5 * time.Second,
		Location:      time.UTC,
	})
	if err := f.svc.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return f
}

func (f *fixture) needsSync(t *testing.T, id string) bool {
	t.Helper()
	recs, err := f.repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	for _, r := range recs {
		if r.ID == id {
			return r.NeedsSync
		}
	}
	t.Fatalf("task %s not cached", id)
	return false
}

func TestSyncService_OfflineAddsThenBatchSync(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		task, status, err := f.svc.AddTask(ctx, model.NewTask(title))
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if status != StatusPendingSync {
			t.Errorf("expected %s, got %s", StatusPendingSync, status)
		}
		if !f.needsSync(t, task.ID) {
			t.Errorf("expected %s to need sync", task.ID)
		}
		ids = append(ids, task.ID)
	}

	if n := f.svc.GetPendingSyncCount(); n != 3 {
		t.Fatalf("expected 3 pending, got %d", n)
	}
	if n := f.primary.calls(); n != 0 {
		t.Fatalf("expected no remote calls while offline, got %d", n)
	}

	f.oracle.SetOnline(true)
	report, err := f.svc.SyncPendingTasks(ctx)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if n := f.svc.GetPendingSyncCount(); n != 0 {
		t.Errorf("expected 0 pending after sync, got %d", n)
	}
	if report.Pushed != 3 || !report.BackupExported {
		t.Errorf("unexpected report %+v", report)
	}
	if len(f.primary.batches) != 1 {
		t.Fatalf("expected one batch write, got %d", len(f.primary.batches))
	}
	got := append([]string(nil), f.primary.batches[0]...)
	sort.Strings(got)
	sort.Strings(ids)
	if strings.Join(got, ",") != strings.Join(ids, ",") {
		t.Errorf("expected batch %v, got %v", ids, got)
	}
	for _, id := range ids {
		if f.needsSync(t, id) {
			t.Errorf("expected %s to be synced", id)
		}
	}
}

func TestSyncService_DeleteRefusedWhileOffline(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("keep me"))

	if f.svc.CanDeleteNow() {
		t.Error("expected delete to be disallowed while offline")
	}
	_, err := f.svc.DeleteTask(ctx, task.ID)
	if !errors.Is(err, apperrors.ErrDeleteRefusedOffline) {
		t.Fatalf("expected ErrDeleteRefusedOffline, got %v", err)
	}
	if _, err := f.svc.GetTask(task.ID); err != nil {
		t.Errorf("task should remain after refused delete: %v", err)
	}
	if len(f.svc.GetAllTasks()) != 1 {
		t.Error("expected task list to be unchanged")
	}
}

func TestSyncService_DeleteOnline(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("gone"))
	f.svc.Wait()

	status, err := f.svc.DeleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if status != StatusSyncing {
		t.Errorf("expected %s, got %s", StatusSyncing, status)
	}
	f.svc.Wait()

	if f.primary.deletes != 1 {
		t.Errorf("expected one remote delete, got %d", f.primary.deletes)
	}
	recs, _ := f.repo.GetAll(ctx)
	if len(recs) != 0 {
		t.Errorf("expected cache to be empty, got %d rows", len(recs))
	}
	if _, err := f.svc.DeleteTask(ctx, task.ID); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestSyncService_ExportCreatesThenUpdates(t *testing.T) {
	f := setupService(t, "", true)
	ctx := context.Background()

	_, _, _ = f.svc.AddTask(ctx, model.NewTask("a"))

	for i := 0; i < 3; i++ {
		if err := f.svc.ExportToBackup(ctx); err != nil {
			t.Fatalf("export %d failed: %v", i, err)
		}
	}
	if f.backup.creates != 1 || f.backup.updates != 2 {
		t.Errorf("expected 1 create and 2 updates, got %d and %d", f.backup.creates, f.backup.updates)
	}
	if id, _ := f.svc.BackupBinID(ctx); id != "bin-1" {
		t.Errorf("expected stable bin id, got %q", id)
	}
}

func TestSyncService_ImportWithoutBackup(t *testing.T) {
	f := setupService(t, "u1", true)

	_, err := f.svc.ImportFromBackup(context.Background())
	if !errors.Is(err, apperrors.ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}
	if n := f.backup.calls(); n != 0 {
		t.Errorf("expected zero backup calls, got %d", n)
	}
}

func TestSyncService_ToggleTwiceRestoresState(t *testing.T) {
	f := setupService(t, "", false)
	ctx := context.Background()

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("flip"))

	toggled, _, err := f.svc.ToggleCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !toggled.IsCompleted || toggled.CompletedAt == nil {
		t.Fatalf("expected completed task, got %+v", toggled)
	}

	back, _, err := f.svc.ToggleCompletion(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if back.IsCompleted || back.CompletedAt != nil {
		t.Errorf("expected original state, got %+v", back)
	}
}

func TestSyncService_GuestModeNeverCallsRemote(t *testing.T) {
	f := setupService(t, "", true)
	ctx := context.Background()

	task, status, err := f.svc.AddTask(ctx, model.NewTask("guest"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if status != StatusLocalOnly {
		t.Errorf("expected %s, got %s", StatusLocalOnly, status)
	}
	if f.needsSync(t, task.ID) {
		t.Error("guest tasks must never need sync")
	}

	task.Title = "guest edited"
	if _, _, err := f.svc.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	_, _, _ = f.svc.ToggleCompletion(ctx, task.ID)
	if f.needsSync(t, task.ID) {
		t.Error("guest tasks must never need sync")
	}
	if _, err := f.svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	f.svc.Wait()

	if n := f.primary.calls(); n != 0 {
		t.Errorf("expected zero primary calls, got %d", n)
	}
	if n := f.backup.calls(); n != 0 {
		t.Errorf("expected zero backup calls, got %d", n)
	}
	if f.svc.GetPendingSyncCount() != 0 {
		t.Error("expected nothing pending in guest mode")
	}

	if _, err := f.svc.SyncPendingTasks(ctx); !errors.Is(err, apperrors.ErrNotSignedIn) {
		t.Errorf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestSyncService_ImmediatePushClearsFlag(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	task, status, err := f.svc.AddTask(ctx, model.NewTask("now"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if status != StatusSyncing {
		t.Errorf("expected %s, got %s", StatusSyncing, status)
	}
	f.svc.Wait()

	if f.needsSync(t, task.ID) {
		t.Error("expected flag cleared after successful push")
	}
	if f.svc.HasPendingSync() {
		t.Error("expected nothing pending")
	}
	if f.primary.puts != 1 {
		t.Errorf("expected one put, got %d", f.primary.puts)
	}
	if f.backup.creates != 1 {
		t.Errorf("expected a backup export after add, got %d creates", f.backup.creates)
	}
}

func TestSyncService_FailedPushStaysPending(t *testing.T) {
	f := setupService(t, "u1", true)
	f.primary.err = errors.New("permission denied")
	ctx := context.Background()

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("stuck"))
	f.svc.Wait()

	if !f.needsSync(t, task.ID) {
		t.Error("expected flag to stay set after failed push")
	}
	if f.svc.GetPendingSyncCount() != 1 {
		t.Errorf("expected 1 pending, got %d", f.svc.GetPendingSyncCount())
	}
	if f.backup.calls() != 0 {
		t.Error("no backup export expected after a failed push")
	}
}

func TestSyncService_FailedBatchKeepsEveryFlag(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	for _, title := range []string{"a", "b"} {
		_, _, _ = f.svc.AddTask(ctx, model.NewTask(title))
	}

	f.oracle.SetOnline(true)
	f.primary.err = errors.New("unavailable")

	if _, err := f.svc.SyncPendingTasks(ctx); err == nil {
		t.Fatal("expected sync error")
	}
	pending, _ := f.repo.GetPendingSync(ctx)
	if len(pending) != 2 || f.svc.GetPendingSyncCount() != 2 {
		t.Errorf("expected both tasks still pending, got cache=%d memory=%d", len(pending), f.svc.GetPendingSyncCount())
	}
	if f.backup.calls() != 0 {
		t.Error("no backup export expected after a failed batch")
	}
}

func TestSyncService_SyncPreconditions(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	if _, err := f.svc.SyncPendingTasks(ctx); !errors.Is(err, apperrors.ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}

	f.oracle.SetOnline(true)
	report, err := f.svc.SyncPendingTasks(ctx)
	if err != nil {
		t.Fatalf("empty sync failed: %v", err)
	}
	if report.Pushed != 0 || len(f.primary.batches) != 0 {
		t.Errorf("expected no batch for an empty pending set, got %+v", report)
	}
}

func TestSyncService_NewerEditSurvivesSlowPush(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	gate := make(chan struct{})
	f.primary.gate = gate

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("v1"))

	f.oracle.SetOnline(false)
	task.Title = "v2"
	if _, status, err := f.svc.UpdateTask(ctx, task); err != nil || status != StatusPendingSync {
		t.Fatalf("expected pending update, got %s, %v", status, err)
	}

	close(gate)
	f.svc.Wait()

	if !f.needsSync(t, task.ID) {
		t.Error("the older push must not clear the newer edit's flag")
	}
	if f.svc.GetPendingSyncCount() != 1 {
		t.Errorf("expected 1 pending, got %d", f.svc.GetPendingSyncCount())
	}
}

// hookCache runs afterPending once the pending rows have been read.
type hookCache struct {
	*repository.TaskRepository
	afterPending func()
}

func (h *hookCache) GetPendingSync(ctx context.Context) ([]repository.TaskRecord, error) {
	recs, err := h.TaskRepository.GetPendingSync(ctx)
	if h.afterPending != nil {
		fn := h.afterPending
		h.afterPending = nil
		fn()
	}
	return recs, err
}

func TestSyncService_EditDuringBatchStaysPending(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("v1"))

	cache := &hookCache{TaskRepository: f.repo}
	svc := NewSyncService(cache, f.primary, f.backup, f.oracle, identity.Static("u1"), pkgLog.NewNop(), SyncOptions{
		RemoteTimeout: 5 * time.Second,
		Location:      time.UTC,
	})
	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	f.oracle.SetOnline(true)
	f.primary.putErr = errors.New("push rejected")

	edited := make(chan error, 1)
	cache.afterPending = func() {
		go func() {
			next := task.Clone()
			next.Title = "v2"
			_, _, err := svc.UpdateTask(ctx, next)
			edited <- err
		}()
	}

	if _, err := svc.SyncPendingTasks(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if err := <-edited; err != nil {
		t.Fatalf("update failed: %v", err)
	}
	svc.Wait()

	if svc.GetPendingSyncCount() != 1 {
		t.Errorf("expected the edit to stay pending, got %d pending", svc.GetPendingSyncCount())
	}
	if !f.needsSync(t, task.ID) {
		t.Error("cached row lost its sync flag")
	}
	got, _ := svc.GetTask(task.ID)
	if got.Title != "v2" {
		t.Errorf("expected local title v2, got %q", got.Title)
	}
	f.primary.mu.Lock()
	remote := f.primary.docs["u1"][task.ID].Title
	f.primary.mu.Unlock()
	if remote != "v1" {
		t.Errorf("expected remote to hold the batched v1, got %q", remote)
	}
}

func TestSyncService_LoadTasksForUser(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	remote := model.NewTask("from cloud")
	f.primary.store("u1", remote)
	f.primary.store("u2", model.NewTask("someone else"))

	n, err := f.svc.LoadTasksForUser(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pulled task, got %d", n)
	}
	got, err := f.svc.GetTask(remote.ID)
	if err != nil || got.Title != "from cloud" {
		t.Fatalf("expected pulled task in memory, got %v, %v", got, err)
	}
	if f.needsSync(t, remote.ID) {
		t.Error("pulled tasks must be stored as synced")
	}
}

func TestSyncService_LoadFailureKeepsMemory(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	_, _, _ = f.svc.AddTask(ctx, model.NewTask("local"))
	f.svc.Wait()
	f.primary.err = errors.New("network down")

	if _, err := f.svc.LoadTasksForUser(ctx); err == nil {
		t.Fatal("expected pull error")
	}
	if len(f.svc.GetAllTasks()) != 1 {
		t.Error("expected in-memory list to be unchanged")
	}
}

func TestSyncService_ImportReplacesEverything(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	_, _, _ = f.svc.AddTask(ctx, model.NewTask("local pending"))

	backedUp := model.NewTask("from backup")
	f.backup.binID = "bin-9"
	f.backup.tasks = []*model.Task{backedUp}

	if _, err := f.svc.ImportFromBackup(ctx); !errors.Is(err, apperrors.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}

	f.oracle.SetOnline(true)
	n, err := f.svc.ImportFromBackup(ctx)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 imported task, got %d", n)
	}

	tasks := f.svc.GetAllTasks()
	if len(tasks) != 1 || tasks[0].ID != backedUp.ID {
		t.Errorf("expected only the backed up task, got %v", tasks)
	}
	if f.svc.HasPendingSync() {
		t.Error("expected pending set to be cleared by import")
	}
	recs, _ := f.repo.GetAll(ctx)
	if len(recs) != 1 || recs[0].NeedsSync {
		t.Errorf("expected cache to hold the imported task as synced, got %+v", recs)
	}
}

func TestSyncService_InitializeRestoresPending(t *testing.T) {
	f := setupService(t, "u1", false)
	ctx := context.Background()

	_, _, _ = f.svc.AddTask(ctx, model.NewTask("survives restart"))

	restarted := NewSyncService(f.repo, f.primary, f.backup, f.oracle, identity.Static("u1"), pkgLog.NewNop(), SyncOptions{})
	if err := restarted.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if restarted.GetPendingSyncCount() != 1 || len(restarted.GetAllTasks()) != 1 {
		t.Errorf("expected restored task and pending flag, got %d tasks, %d pending",
			len(restarted.GetAllTasks()), restarted.GetPendingSyncCount())
	}
}

func TestSyncService_Validation(t *testing.T) {
	f := setupService(t, "", false)
	ctx := context.Background()

	if _, _, err := f.svc.AddTask(ctx, model.NewTask("   ")); !errors.Is(err, apperrors.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if _, _, err := f.svc.ToggleCompletion(ctx, "missing"); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	ghost := model.NewTask("ghost")
	if _, _, err := f.svc.UpdateTask(ctx, ghost); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	task, _, _ := f.svc.AddTask(ctx, model.NewTask("dup"))
	if _, _, err := f.svc.AddTask(ctx, task); !errors.Is(err, apperrors.ErrTaskExists) {
		t.Errorf("expected ErrTaskExists, got %v", err)
	}
}

func TestSyncService_GetTasksForDate(t *testing.T) {
	f := setupService(t, "", false)
	ctx := context.Background()

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	morning := day.Add(8 * time.Hour)
	night := day.Add(23*time.Hour + 59*time.Minute)
	nextDay := day.AddDate(0, 0, 1)

	add := func(title string, due *time.Time) string {
		task := model.NewTask(title)
		task.DueDate = due
		created, _, err := f.svc.AddTask(ctx, task)
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		return created.ID
	}
	a := add("morning", &morning)
	b := add("night", &night)
	add("tomorrow", &nextDay)
	add("no date", nil)

	got := f.svc.GetTasksForDate(day.Add(15 * time.Hour))
	ids := make([]string, 0, len(got))
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	sort.Strings(ids)
	want := []string{a, b}
	sort.Strings(want)
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestSyncService_TodayUsesClock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := repository.NewTaskRepository(setupTestDB(t))
	svc := NewSyncService(repo, newFakePrimary(), &fakeBackup{}, connectivity.NewStatic(false), identity.Static(""), pkgLog.NewNop(), SyncOptions{
		Location: time.UTC,
		Clock:    func() time.Time { return now },
	})
	ctx := context.Background()
	_ = svc.Initialize(ctx)

	if n, err := svc.SeedSampleTasks(ctx); err != nil || n != 3 {
		t.Fatalf("expected 3 sample tasks, got %d, %v", n, err)
	}
	if n, _ := svc.SeedSampleTasks(ctx); n != 0 {
		t.Errorf("seeding must only happen on an empty list, got %d", n)
	}
	if got := len(svc.GetTodayTasks()); got != 2 {
		t.Errorf("expected 2 tasks due today, got %d", got)
	}
}

func TestSyncService_ConcurrentMutations(t *testing.T) {
	f := setupService(t, "u1", true)
	ctx := context.Background()

	const count = 30
	var wg sync.WaitGroup
	wg.Add(count)
	errs := make(chan error, count)

	for i := 0; i < count; i++ {
		go func() {
			defer wg.Done()
			task, _, err := f.svc.AddTask(ctx, model.NewTask("Title"))
			if err != nil {
				errs <- err
				return
			}
			if _, _, err := f.svc.ToggleCompletion(ctx, task.ID); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent mutation failed: %v", err)
	}

	f.svc.Wait()
	if n := len(f.svc.GetAllTasks()); n != count {
		t.Errorf("expected %d tasks, got %d", count, n)
	}
	if n := f.svc.GetPendingSyncCount(); n != 0 {
		t.Errorf("expected all pushes to settle, got %d pending", n)
	}
}
