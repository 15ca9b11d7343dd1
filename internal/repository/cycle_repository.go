package repository

import (
	"context"
	"okr-compass-go/internal/model"
	"time"

	"gorm.io/gorm"
)

// CycleRepository 接口定义了 OKR 周期的数据操作方法。
type CycleRepository interface {
	Create(ctx context.Context, cycle *model.Cycle) error
	FindByID(ctx context.Context, id uint) (*model.Cycle, error)
	FindAll(ctx context.Context) ([]model.Cycle, error)
	// FindContaining 返回起止日期包含给定时间的第一个周期，按开始日期升序。
	FindContaining(ctx context.Context, t time.Time) (*model.Cycle, error)
	// FindByName 按名称精确匹配，返回 ID 最小的那个。
	FindByName(ctx context.Context, name string) (*model.Cycle, error)
	Update(ctx context.Context, cycle *model.Cycle) error
	Delete(ctx context.Context, id uint) error
}

type cycleRepository struct {
	db *gorm.DB
}

// NewCycleRepository 创建一个新的 CycleRepository 实例。
func NewCycleRepository(db *gorm.DB) CycleRepository {
	return &cycleRepository{db: db}
}

func (r *cycleRepository) Create(ctx context.Context, cycle *model.Cycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *cycleRepository) FindByID(ctx context.Context, id uint) (*model.Cycle, error) {
	var cycle model.Cycle
	if err := r.db.WithContext(ctx).First(&cycle, id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepository) FindAll(ctx context.Context) ([]model.Cycle, error) {
	var cycles []model.Cycle
	err := r.db.WithContext(ctx).Order("start_date DESC").Find(&cycles).Error
	return cycles, err
}

func (r *cycleRepository) FindContaining(ctx context.Context, t time.Time) (*model.Cycle, error) {
	var cycle model.Cycle
	day := t.Format("2006-01-02")
	err := r.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date ASC, id ASC").
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepository) FindByName(ctx context.Context, name string) (*model.Cycle, error) {
	var cycle model.Cycle
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepository) Update(ctx context.Context, cycle *model.Cycle) error {
	return r.db.WithContext(ctx).Save(cycle).Error
}

func (r *cycleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Cycle{}, id).Error
}
