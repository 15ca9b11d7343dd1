package repository

import (
	"context"
	"okr-compass-go/internal/model"

	"gorm.io/gorm"
)

// CheckInRepository 接口定义了关键结果打卡记录的数据操作方法。
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *model.CheckIn) error
	FindByKR(ctx context.Context, krID uint, limit int) ([]model.CheckIn, error)
}

type checkInRepository struct {
	db *gorm.DB
}

// NewCheckInRepository 创建一个新的 CheckInRepository 实例。
func NewCheckInRepository(db *gorm.DB) CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *model.CheckIn) error {
	return r.db.WithContext(ctx).Create(checkIn).Error
}

// FindByKR 按时间倒序返回某个关键结果最近的打卡记录。
func (r *checkInRepository) FindByKR(ctx context.Context, krID uint, limit int) ([]model.CheckIn, error) {
	var checkIns []model.CheckIn
	q := r.db.WithContext(ctx).Where("kr_id = ?", krID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&checkIns).Error
	return checkIns, err
}
