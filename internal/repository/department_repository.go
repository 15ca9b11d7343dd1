// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"context"
	"okr-compass-go/internal/model"

	"gorm.io/gorm"
)

// DepartmentRepository 接口定义了部门的数据操作方法。
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	FindByID(ctx context.Context, id uint) (*model.Department, error)
	FindAll(ctx context.Context) ([]model.Department, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id uint) error
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository 创建一个新的 DepartmentRepository 实例。
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Create 在数据库中插入一个新的部门记录。
func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

// FindByID 根据 ID 查找一个部门。
func (r *departmentRepository) FindByID(ctx context.Context, id uint) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindAll 检索所有部门，按 ID 升序。
func (r *departmentRepository) FindAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).Order("id ASC").Find(&depts).Error
	return depts, err
}

// FindByIDs finds departments by a slice of IDs.
func (r *departmentRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Department, error) {
	var depts []model.Department
	if len(ids) == 0 {
		return depts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&depts).Error
	return depts, err
}

// Update 更新一个已存在的部门记录。
func (r *departmentRepository) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

// Delete 删除一个部门记录。
func (r *departmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Department{}, id).Error
}
