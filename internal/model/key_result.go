package model

import (
	"math"
	"time"
)

// 关键结果的度量单位。
const (
	UnitNumber     = "number"
	UnitPercent    = "percent"
	UnitCompletion = "completion"
)

// KeyResult 对应于数据库中的 'key_results' 表，隶属于唯一的 Objective。
type KeyResult struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Title        string  `gorm:"type:varchar(255);not null" json:"title"`
	ObjectiveID  uint    `gorm:"not null;index" json:"objectiveId"`
	TargetValue  float64 `gorm:"not null;default:0" json:"targetValue"`
	CurrentValue float64 `gorm:"not null;default:0" json:"currentValue"`
	Unit         string  `gorm:"type:varchar(20);not null;default:'number'" json:"unit"`
	Status       string  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// ProgressPercent 为 NULL 时按 current/target 推导。
	ProgressPercent *float64   `json:"progressPercent"`
	AssignedTo      *uint      `gorm:"index" json:"assignedTo"`
	ArchivedAt      *time.Time `gorm:"index" json:"archivedAt"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (KeyResult) TableName() string {
	return "key_results"
}

// IsArchived 判断关键结果是否已归档。
func (k *KeyResult) IsArchived() bool {
	return k.ArchivedAt != nil
}

// Progress 返回关键结果进度（0-100）。显式设置的进度优先。
func (k *KeyResult) Progress() float64 {
	if k.ProgressPercent != nil {
		return clamp(*k.ProgressPercent)
	}
	return DeriveProgress(k.CurrentValue, k.TargetValue)
}

// DeriveProgress 按 clamp(current/target*100, 0, 100) 计算进度，target 为 0 时返回 0。
func DeriveProgress(current, target float64) float64 {
	if target == 0 {
		return 0
	}
	return round2(clamp(current / target * 100))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
