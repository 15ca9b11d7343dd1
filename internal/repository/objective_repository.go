package repository

import (
	"context"
	"okr-compass-go/internal/model"
	"time"

	"gorm.io/gorm"
)

// ObjectiveScope 描述一次批量查询的目标范围。
// Levels 中的层级对所有人可见；PersonOwnerID 非空时额外包含该用户本人的个人目标。
type ObjectiveScope struct {
	CycleID         *uint
	Levels          []string
	PersonOwnerID   *uint
	IncludeArchived bool
}

// Matches 在内存中判断目标是否落在范围内，与 ListInScope 的 SQL 条件保持一致。
func (s ObjectiveScope) Matches(o *model.Objective) bool {
	if !s.IncludeArchived && o.IsArchived() {
		return false
	}
	if s.CycleID != nil && (o.CycleID == nil || *o.CycleID != *s.CycleID) {
		return false
	}
	for _, level := range s.Levels {
		if o.Level == level {
			return true
		}
	}
	return s.PersonOwnerID != nil && o.Level == model.LevelPerson && o.OwnedBy(*s.PersonOwnerID)
}

// ObjectiveRepository 接口定义了目标的数据操作方法。
type ObjectiveRepository interface {
	Create(ctx context.Context, obj *model.Objective) error
	FindByID(ctx context.Context, id uint) (*model.Objective, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Objective, error)
	// ListInScope 按范围批量加载目标，按创建时间、ID 升序。
	ListInScope(ctx context.Context, scope ObjectiveScope) ([]model.Objective, error)
	ListArchived(ctx context.Context, cycleID *uint, ownerID *uint) ([]model.Objective, error)
	Update(ctx context.Context, obj *model.Objective) error
	SetArchived(ctx context.Context, id uint, at *time.Time) error
	UpdateProgress(ctx context.Context, id uint, progress float64) error
	// Delete 删除目标及其关键结果。引用它的对齐关系保留，由解析端视为目标缺失。
	Delete(ctx context.Context, id uint) error
}

type objectiveRepository struct {
	db *gorm.DB
}

// NewObjectiveRepository 创建一个新的 ObjectiveRepository 实例。
func NewObjectiveRepository(db *gorm.DB) ObjectiveRepository {
	return &objectiveRepository{db: db}
}

func (r *objectiveRepository) Create(ctx context.Context, obj *model.Objective) error {
	return r.db.WithContext(ctx).Create(obj).Error
}

func (r *objectiveRepository) FindByID(ctx context.Context, id uint) (*model.Objective, error) {
	var obj model.Objective
	if err := r.db.WithContext(ctx).First(&obj, id).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}

func (r *objectiveRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Objective, error) {
	var objs []model.Objective
	if len(ids) == 0 {
		return objs, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC, id ASC").Find(&objs).Error
	return objs, err
}

func (r *objectiveRepository) ListInScope(ctx context.Context, scope ObjectiveScope) ([]model.Objective, error) {
	var objs []model.Objective
	db := r.db.WithContext(ctx)
	q := db.Model(&model.Objective{})
	if !scope.IncludeArchived {
		q = q.Where("archived_at IS NULL")
	}
	if scope.CycleID != nil {
		q = q.Where("cycle_id = ?", *scope.CycleID)
	}

	// 可见性条件：公共层级 OR 本人的个人目标
	visible := db.Where("level IN ?", scope.Levels)
	if scope.PersonOwnerID != nil {
		visible = visible.Or("level = ? AND user_id = ?", model.LevelPerson, *scope.PersonOwnerID)
	}
	err := q.Where(visible).Order("created_at ASC, id ASC").Find(&objs).Error
	return objs, err
}

func (r *objectiveRepository) ListArchived(ctx context.Context, cycleID *uint, ownerID *uint) ([]model.Objective, error) {
	var objs []model.Objective
	q := r.db.WithContext(ctx).Where("archived_at IS NOT NULL")
	if cycleID != nil {
		q = q.Where("cycle_id = ?", *cycleID)
	}
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	err := q.Order("archived_at DESC").Find(&objs).Error
	return objs, err
}

func (r *objectiveRepository) Update(ctx context.Context, obj *model.Objective) error {
	return r.db.WithContext(ctx).Omit("KeyResults").Save(obj).Error
}

func (r *objectiveRepository) SetArchived(ctx context.Context, id uint, at *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Objective{}).Where("id = ?", id).Update("archived_at", at).Error
}

func (r *objectiveRepository) UpdateProgress(ctx context.Context, id uint, progress float64) error {
	return r.db.WithContext(ctx).Model(&model.Objective{}).Where("id = ?", id).Update("progress_percent", progress).Error
}

func (r *objectiveRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("objective_id = ?", id).Delete(&model.KeyResult{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Objective{}, id).Error
	})
}
