package backup

import (
	"context"
	"fmt"

	"easyplan-sync.com/easyplan-sync/internal/errors"
	repository "easyplan-sync.com/easyplan-sync/internal/repositories"
	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

// GuestUserID labels backups exported without a signed-in user.
const GuestUserID = "guest"

// BinClient is the create/read/replace surface of a single-document store.
type BinClient interface {
	Create(ctx context.Context, collection TaskCollection) (string, error)
	Read(ctx context.Context, binID string) (TaskCollection, error)
	Update(ctx context.Context, binID string, collection TaskCollection) error
}

// Settings persists the bin id between runs.
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store mirrors the full task list into one bin, creating it lazily on the
// first successful export.
type Store struct {
	client   BinClient
	settings Settings
	l        pkgLog.Logger
}

func NewStore(client BinClient, settings Settings, l pkgLog.Logger) *Store {
	return &Store{client: client, settings: settings, l: l}
}

// BinID returns "" when no backup has been created yet.
func (s *Store) BinID(ctx context.Context) (string, error) {
	id, ok, err := s.settings.Get(ctx, repository.KeyBackupBinID)
	if err != nil || !ok {
		return "", err
	}
	return id, nil
}

// ExportAll overwrites the backup with tasks. Last write wins.
func (s *Store) ExportAll(ctx context.Context, userID string, tasks []*model.Task) error {
	if userID == "" {
		userID = GuestUserID
	}
	collection := TaskCollection{
		Tasks:       tasks,
		UserID:      userID,
		LastUpdated: model.Now().UnixMilli(),
	}
	if collection.Tasks == nil {
		collection.Tasks = []*model.Task{}
	}

	binID, err := s.BinID(ctx)
	if err != nil {
		return fmt.Errorf("read bin id: %w", err)
	}

	if binID == "" {
		s.l.Debugf(ctx, "backup: creating new bin for user %s", userID)
		newID, err := s.client.Create(ctx, collection)
		if err != nil {
			return err
		}
		if err := s.settings.Set(ctx, repository.KeyBackupBinID, newID); err != nil {
			return fmt.Errorf("persist bin id: %w", err)
		}
		s.l.Infof(ctx, "backup: created bin %s with %d tasks", newID, len(tasks))
		return nil
	}

	if err := s.client.Update(ctx, binID, collection); err != nil {
		return err
	}
	s.l.Infof(ctx, "backup: updated bin %s with %d tasks", binID, len(tasks))
	return nil
}

// ImportAll fails with ErrNoBackup, without any network call, when no bin exists.
func (s *Store) ImportAll(ctx context.Context) ([]*model.Task, error) {
	binID, err := s.BinID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bin id: %w", err)
	}
	if binID == "" {
		return nil, errors.ErrNoBackup
	}

	collection, err := s.client.Read(ctx, binID)
	if err != nil {
		return nil, err
	}
	tasks := make([]*model.Task, 0, len(collection.Tasks))
	for _, t := range collection.Tasks {
		if t == nil || t.ID == "" {
			continue
		}
		t.Normalize()
		tasks = append(tasks, t)
	}
	s.l.Infof(ctx, "backup: loaded %d tasks from bin %s", len(tasks), binID)
	return tasks, nil
}

// Reset forgets the bin id; the next export creates a new bin.
func (s *Store) Reset(ctx context.Context) error {
	return s.settings.Delete(ctx, repository.KeyBackupBinID)
}
