package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easyplan-sync.com/easyplan-sync/pkg/constants"
	model "easyplan-sync.com/easyplan-sync/pkg/models"
)

// TaskRecord is the cached form of a task. Timestamps are stored as epoch
// milliseconds so the row round-trips to the exact same Task.
type TaskRecord struct {
	ID                string  `gorm:"primaryKey;size:36"`
	Title             string  `gorm:"not null"`
	Description       string  `gorm:"not null"`
	DueDateMillis     *int64
	DueTime           *string `gorm:"size:5"`
	IsCompleted       bool    `gorm:"not null"`
	Priority          string  `gorm:"size:16;not null"`
	Category          string  `gorm:"size:16;not null"`
	Color             string  `gorm:"size:16;not null"`
	CreatedAtMillis   int64   `gorm:"not null;index"`
	CompletedAtMillis *int64
	NeedsSync         bool `gorm:"not null;index"`
}

func (TaskRecord) TableName() string { return "tasks" }

func FromTask(task *model.Task, needsSync bool) TaskRecord {
	return TaskRecord{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		DueDateMillis:     millisPtr(task.DueDate),
		DueTime:           copyString(task.DueTime),
		IsCompleted:       task.IsCompleted,
		Priority:          string(task.Priority),
		Category:          string(task.Category),
		Color:             task.Color,
		CreatedAtMillis:   task.CreatedAt.UnixMilli(),
		CompletedAtMillis: millisPtr(task.CompletedAt),
		NeedsSync:         needsSync,
	}
}

func (r TaskRecord) ToTask() *model.Task {
	return &model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     timePtr(r.DueDateMillis),
		DueTime:     copyString(r.DueTime),
		IsCompleted: r.IsCompleted,
		Priority:    constants.ParsePriority(r.Priority),
		Category:    constants.ParseCategory(r.Category),
		Color:       r.Color,
		CreatedAt:   time.UnixMilli(r.CreatedAtMillis).UTC(),
		CompletedAt: timePtr(r.CompletedAtMillis),
	}
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	UpdateAll: true,
}

func (r *TaskRepository) Upsert(ctx context.Context, task *model.Task, needsSync bool) error {
	rec := FromTask(task, needsSync)
	return r.db.WithContext(ctx).Clauses(upsertClause).Create(&rec).Error
}

// UpsertAll stores tasks fetched from a remote as already synced.
func (r *TaskRepository) UpsertAll(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	recs := toRecords(tasks)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsertClause).CreateInBatches(&recs, 100).Error
	})
}

// ReplaceAll drops every cached row and stores tasks as synced.
func (r *TaskRepository) ReplaceAll(ctx context.Context, tasks []*model.Task) error {
	recs := toRecords(tasks)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&TaskRecord{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.CreateInBatches(&recs, 100).Error
	})
}

// DeleteByID is a no-op when the row does not exist.
func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&TaskRecord{}, "id = ?", id).Error
}

// GetAll returns every record, most recently created first.
func (r *TaskRepository) GetAll(ctx context.Context) ([]TaskRecord, error) {
	var recs []TaskRecord
	err := r.db.WithContext(ctx).Order("created_at_millis desc").Order("id").Find(&recs).Error
	return recs, err
}

// GetPendingSync returns records waiting for a remote write, oldest first.
func (r *TaskRepository) GetPendingSync(ctx context.Context) ([]TaskRecord, error) {
	var recs []TaskRecord
	err := r.db.WithContext(ctx).
		Where("needs_sync = ?", true).
		Order("created_at_millis asc").Order("id").
		Find(&recs).Error
	return recs, err
}

func (r *TaskRepository) UpdateSyncState(ctx context.Context, ids []string, needsSync bool) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&TaskRecord{}).
		Where("id IN ?", ids).
		Update("needs_sync", needsSync).Error
}

func toRecords(tasks []*model.Task) []TaskRecord {
	recs := make([]TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		recs = append(recs, FromTask(t, false))
	}
	return recs
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func timePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
