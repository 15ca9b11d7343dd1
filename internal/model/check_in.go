package model

import "time"

// CheckIn 记录一次关键结果的进度更新。
type CheckIn struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	KrID            uint      `gorm:"not null;index" json:"krId"`
	UserID          uint      `gorm:"not null" json:"userId"`
	PreviousValue   float64   `json:"previousValue"`
	NewValue        float64   `json:"newValue"`
	ProgressPercent float64   `json:"progressPercent"`
	Confidence      int       `gorm:"type:tinyint;not null;default:0" json:"confidence"` // 0-10
	Note            string    `gorm:"type:text" json:"note"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CheckIn) TableName() string {
	return "check_ins"
}
