package repo

import (
	"context"

	"github.com/stevedore-dev/stevedore/internal/models"
	"gorm.io/gorm"
)

type PullRecordRepo struct {
	db *gorm.DB
}

func NewPullRecordRepo(db *gorm.DB) *PullRecordRepo {
	return &PullRecordRepo{
		db: db,
	}
}

func (r *PullRecordRepo) Create(ctx context.Context, record *models.PullRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// List 按创建时间倒序返回最近的拉取记录
func (r *PullRecordRepo) List(ctx context.Context, limit int) ([]models.PullRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []models.PullRecord
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&records).Error
	return records, err
}

// DeleteCreatedBefore 删除指定时间之前的记录，返回删除数量
func (r *PullRecordRepo) DeleteCreatedBefore(ctx context.Context, ts int64) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", ts).Delete(&models.PullRecord{})
	return result.RowsAffected, result.Error
}
