// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Department 对应于数据库中的 'departments' 表，即组织结构中的部门/单元。
type Department struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Name 是部门的显示名称。
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	// ParentID 指向上级部门，为 NULL 表示顶级部门。
	ParentID  *uint     `gorm:"index" json:"parentId"`
	CreatedBy uint      `gorm:"not null" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// DepartmentNode 是部门树中的一个节点。
type DepartmentNode struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ParentID    *uint             `json:"parentId"`
	Children    []*DepartmentNode `json:"children"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Department) TableName() string {
	return "departments"
}
