package sessions

import (
	"context"
	"time"

	"github.com/docspace/core/internal/models"
	"gorm.io/gorm"
)

// GormStore persists session shadow rows in MySQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, record *models.SessionModel) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.SessionModel{}, "id = ?", id).Error
}

func (s *GormStore) ListNonExpired(ctx context.Context) ([]models.SessionModel, error) {
	var records []models.SessionModel
	err := s.db.WithContext(ctx).
		Where("expires_at > ?", time.Now()).
		Find(&records).Error
	return records, err
}

// PurgeExpired deletes expired shadow rows. Dangling rows are harmless once
// expired; this keeps the table from growing unbounded.
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}
