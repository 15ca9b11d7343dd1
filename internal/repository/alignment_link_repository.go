package repository

import (
	"context"
	"okr-compass-go/internal/model"

	"gorm.io/gorm"
)

// AlignmentLinkRepository 接口定义了对齐关系的数据操作方法。
type AlignmentLinkRepository interface {
	Create(ctx context.Context, link *model.AlignmentLink) error
	FindByID(ctx context.Context, id uint) (*model.AlignmentLink, error)
	// FindEffectiveBySources 批量加载来源目标在给定集合内、已批准且激活的对齐关系，按 ID 升序。
	FindEffectiveBySources(ctx context.Context, sourceObjectiveIDs []uint) ([]model.AlignmentLink, error)
	FindBySource(ctx context.Context, sourceObjectiveID uint) ([]model.AlignmentLink, error)
	// FindOpenForTarget 查找指向同一目标（目标或关键结果）的未关闭关系，用于防止重复申请。
	FindOpenForTarget(ctx context.Context, sourceObjectiveID uint, targetObjectiveID, targetKrID *uint) (*model.AlignmentLink, error)
	FindPendingForOwner(ctx context.Context, ownerID uint) ([]model.AlignmentLink, error)
	Update(ctx context.Context, link *model.AlignmentLink) error
}

type alignmentLinkRepository struct {
	db *gorm.DB
}

// NewAlignmentLinkRepository 创建一个新的 AlignmentLinkRepository 实例。
func NewAlignmentLinkRepository(db *gorm.DB) AlignmentLinkRepository {
	return &alignmentLinkRepository{db: db}
}

func (r *alignmentLinkRepository) Create(ctx context.Context, link *model.AlignmentLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *alignmentLinkRepository) FindByID(ctx context.Context, id uint) (*model.AlignmentLink, error) {
	var link model.AlignmentLink
	if err := r.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *alignmentLinkRepository) FindEffectiveBySources(ctx context.Context, sourceObjectiveIDs []uint) ([]model.AlignmentLink, error) {
	var links []model.AlignmentLink
	if len(sourceObjectiveIDs) == 0 {
		return links, nil
	}
	err := r.db.WithContext(ctx).
		Where("source_objective_id IN ?", sourceObjectiveIDs).
		Where("status = ? AND is_active = ?", model.LinkApproved, true).
		Order("id ASC").
		Find(&links).Error
	return links, err
}

func (r *alignmentLinkRepository) FindBySource(ctx context.Context, sourceObjectiveID uint) ([]model.AlignmentLink, error) {
	var links []model.AlignmentLink
	err := r.db.WithContext(ctx).Where("source_objective_id = ?", sourceObjectiveID).Order("id ASC").Find(&links).Error
	return links, err
}

func (r *alignmentLinkRepository) FindOpenForTarget(ctx context.Context, sourceObjectiveID uint, targetObjectiveID, targetKrID *uint) (*model.AlignmentLink, error) {
	var link model.AlignmentLink
	q := r.db.WithContext(ctx).
		Where("source_objective_id = ? AND is_active = ?", sourceObjectiveID, true).
		Where("status IN ?", []string{model.LinkPending, model.LinkApproved, model.LinkChangesRequested})
	if targetObjectiveID != nil {
		q = q.Where("target_objective_id = ?", *targetObjectiveID)
	} else {
		q = q.Where("target_kr_id = ?", *targetKrID)
	}
	if err := q.First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *alignmentLinkRepository) FindPendingForOwner(ctx context.Context, ownerID uint) ([]model.AlignmentLink, error) {
	var links []model.AlignmentLink
	err := r.db.WithContext(ctx).
		Where("target_owner_id = ? AND status = ? AND is_active = ?", ownerID, model.LinkPending, true).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

func (r *alignmentLinkRepository) Update(ctx context.Context, link *model.AlignmentLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}
