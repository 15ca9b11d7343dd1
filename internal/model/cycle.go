package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cycle 是限定目标和对齐关系的时间窗口（通常为一个季度）。
type Cycle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;index" json:"name"`
	StartDate time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:date;not null" json:"endDate"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Cycle) TableName() string {
	return "cycles"
}

// MarshalJSON 把起止日期输出为 YYYY-MM-DD，与请求中的格式一致。
func (c Cycle) MarshalJSON() ([]byte, error) {
	type plain Cycle
	return json.Marshal(struct {
		plain
		StartDate LocalDate `json:"startDate"`
		EndDate   LocalDate `json:"endDate"`
	}{plain(c), LocalDate(c.StartDate), LocalDate(c.EndDate)})
}

// Contains 判断时间点是否落在周期内（按天，包含首尾两天）。
func (c *Cycle) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.StartDate.Location())
	start := time.Date(c.StartDate.Year(), c.StartDate.Month(), c.StartDate.Day(), 0, 0, 0, 0, c.StartDate.Location())
	end := time.Date(c.EndDate.Year(), c.EndDate.Month(), c.EndDate.Day(), 0, 0, 0, 0, c.StartDate.Location())
	return !day.Before(start) && !day.After(end)
}

// CycleRef 是解析"当前周期"后的结果。ID 为 nil 表示没有匹配的周期，仅保留展示标签。
type CycleRef struct {
	ID    *uint
	Label string
}

// Key 返回用于缓存分区的周期标识。
func (r CycleRef) Key() string {
	if r.ID == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *r.ID)
}
