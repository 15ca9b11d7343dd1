package model

import "time"

// 用户角色。
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// User 对应于数据库中的 'users' 表。
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string    `gorm:"type:varchar(100)" json:"fullName"`
	AvatarURL    string    `gorm:"type:varchar(255)" json:"avatarUrl"`
	Role         string    `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	DepartmentID *uint     `gorm:"index" json:"departmentId"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// IsManagerial 判断用户是否为管理员或部门经理。
func (u *User) IsManagerial() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// InDepartment 判断用户是否属于给定部门。
func (u *User) InDepartment(departmentID *uint) bool {
	return u.DepartmentID != nil && departmentID != nil && *u.DepartmentID == *departmentID
}
