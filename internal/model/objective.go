package model

import "time"

// 目标层级。
const (
	LevelCompany = "company"
	LevelUnit    = "unit"
	LevelTeam    = "team"
	LevelPerson  = "person"
)

// 目标状态。
const (
	ObjectiveDraft     = "draft"
	ObjectiveActive    = "active"
	ObjectiveCompleted = "completed"
)

// Objective 对应于数据库中的 'objectives' 表。
// ProgressPercent 由关键结果汇总得出，只作展示用途。
type Objective struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Title           string      `gorm:"type:varchar(255);not null" json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	Level           string      `gorm:"type:varchar(20);not null;index" json:"level"`
	DepartmentID    *uint       `gorm:"index" json:"departmentId"`
	UserID          *uint       `gorm:"index" json:"userId"`
	CycleID         *uint       `gorm:"index" json:"cycleId"`
	Status          string      `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	ProgressPercent float64     `gorm:"not null;default:0" json:"progressPercent"`
	ArchivedAt      *time.Time  `gorm:"index" json:"archivedAt"`
	KeyResults      []KeyResult `gorm:"foreignKey:ObjectiveID;constraint:OnDelete:CASCADE" json:"keyResults,omitempty"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Objective) TableName() string {
	return "objectives"
}

// IsArchived 判断目标是否已被软删除。
func (o *Objective) IsArchived() bool {
	return o.ArchivedAt != nil
}

// OwnedBy 判断目标是否属于给定用户。
func (o *Objective) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

// ValidLevel 判断层级取值是否合法。
func ValidLevel(level string) bool {
	switch level {
	case LevelCompany, LevelUnit, LevelTeam, LevelPerson:
		return true
	}
	return false
}

// AggregateProgress 计算目标进度：所有未归档关键结果进度的平均值，保留两位小数。
func AggregateProgress(krs []KeyResult) float64 {
	var sum float64
	var n int
	for i := range krs {
		if krs[i].IsArchived() {
			continue
		}
		sum += krs[i].Progress()
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}
