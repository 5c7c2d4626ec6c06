package binstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBinNotFound = errors.New("bin not found")

type Bin struct {
	ID        string `gorm:"primaryKey;size:36"`
	Record    string `gorm:"not null"`
	Version   uint   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Bin) TableName() string { return "bins" }

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Bin{})
}

func (r *Repository) Create(ctx context.Context, record json.RawMessage) (*Bin, error) {
	bin := &Bin{
		ID:        uuid.NewString(),
		Record:    string(record),
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(bin).Error; err != nil {
		return nil, err
	}
	return bin, nil
}

func (r *Repository) Find(ctx context.Context, id string) (*Bin, error) {
	var bin Bin
	err := r.db.WithContext(ctx).First(&bin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBinNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bin, nil
}

// Replace overwrites the record of an existing bin.
func (r *Repository) Replace(ctx context.Context, id string, record json.RawMessage) (*Bin, error) {
	res := r.db.WithContext(ctx).Model(&Bin{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"record":     string(record),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrBinNotFound
	}
	return r.Find(ctx, id)
}
