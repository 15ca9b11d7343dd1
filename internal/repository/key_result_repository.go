package repository

import (
	"context"
	"okr-compass-go/internal/model"

	"gorm.io/gorm"
)

// KeyResultRepository 接口定义了关键结果的数据操作方法。
type KeyResultRepository interface {
	Create(ctx context.Context, kr *model.KeyResult) error
	FindByID(ctx context.Context, id uint) (*model.KeyResult, error)
	// FindByObjectiveIDs 批量加载一组目标的未归档关键结果，按 (objective_id, id) 升序。
	FindByObjectiveIDs(ctx context.Context, objectiveIDs []uint) ([]model.KeyResult, error)
	FindByObjective(ctx context.Context, objectiveID uint) ([]model.KeyResult, error)
	Update(ctx context.Context, kr *model.KeyResult) error
	Delete(ctx context.Context, id uint) error
}

type keyResultRepository struct {
	db *gorm.DB
}

// NewKeyResultRepository 创建一个新的 KeyResultRepository 实例。
func NewKeyResultRepository(db *gorm.DB) KeyResultRepository {
	return &keyResultRepository{db: db}
}

func (r *keyResultRepository) Create(ctx context.Context, kr *model.KeyResult) error {
	return r.db.WithContext(ctx).Create(kr).Error
}

func (r *keyResultRepository) FindByID(ctx context.Context, id uint) (*model.KeyResult, error) {
	var kr model.KeyResult
	if err := r.db.WithContext(ctx).First(&kr, id).Error; err != nil {
		return nil, err
	}
	return &kr, nil
}

func (r *keyResultRepository) FindByObjectiveIDs(ctx context.Context, objectiveIDs []uint) ([]model.KeyResult, error) {
	var krs []model.KeyResult
	if len(objectiveIDs) == 0 {
		return krs, nil
	}
	err := r.db.WithContext(ctx).
		Where("objective_id IN ? AND archived_at IS NULL", objectiveIDs).
		Order("objective_id ASC, id ASC").
		Find(&krs).Error
	return krs, err
}

// FindByObjective 返回目标下的全部关键结果（含已归档），用于进度汇总与详情页。
func (r *keyResultRepository) FindByObjective(ctx context.Context, objectiveID uint) ([]model.KeyResult, error) {
	var krs []model.KeyResult
	err := r.db.WithContext(ctx).Where("objective_id = ?", objectiveID).Order("id ASC").Find(&krs).Error
	return krs, err
}

func (r *keyResultRepository) Update(ctx context.Context, kr *model.KeyResult) error {
	return r.db.WithContext(ctx).Save(kr).Error
}

func (r *keyResultRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.KeyResult{}, id).Error
}
