package model

import "time"

// 对齐关系状态。
const (
	LinkPending          = "pending"
	LinkApproved         = "approved"
	LinkRejected         = "rejected"
	LinkCancelled        = "cancelled"
	LinkChangesRequested = "changes_requested"
)

// AlignmentLink 是下级目标向上级目标或上级关键结果的贡献关系，需经目标方审批。
// TargetObjectiveID 与 TargetKrID 有且仅有一个非空。
type AlignmentLink struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	SourceObjectiveID uint      `gorm:"not null;index" json:"sourceObjectiveId"`
	TargetObjectiveID *uint     `gorm:"index" json:"targetObjectiveId"`
	TargetKrID        *uint     `gorm:"index" json:"targetKrId"`
	Status            string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	IsActive          bool      `gorm:"not null;default:true" json:"isActive"`
	RequesterID       uint      `gorm:"not null" json:"requesterId"`
	TargetOwnerID     *uint     `gorm:"index" json:"targetOwnerId"`
	Note              string    `gorm:"type:text" json:"note"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (AlignmentLink) TableName() string {
	return "okr_links"
}

// Effective 判断关系是否参与对齐树解析：必须已批准且仍处于激活状态。
func (l *AlignmentLink) Effective() bool {
	return l.Status == LinkApproved && l.IsActive
}

// TargetsObjective 判断是否为 目标→目标 的对齐。
func (l *AlignmentLink) TargetsObjective() bool {
	return l.TargetObjectiveID != nil && l.TargetKrID == nil
}

// TargetsKeyResult 判断是否为 目标→关键结果 的对齐。
func (l *AlignmentLink) TargetsKeyResult() bool {
	return l.TargetKrID != nil && l.TargetObjectiveID == nil
}

// Closed 判断关系是否已处于终态。
func (l *AlignmentLink) Closed() bool {
	return l.Status == LinkCancelled || !l.IsActive
}
