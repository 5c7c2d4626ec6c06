package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KeyBackupBinID   = "backup_bin_id"
	KeySessionUserID = "session_user_id"
)

// Setting is a small key-value row kept next to the task cache.
type Setting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null"`
}

func (Setting) TableName() string { return "settings" }

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get reports ok=false when the key has never been set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var s Setting
	err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	s := Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&s).Error
}

func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&Setting{}, "key = ?", key).Error
}
