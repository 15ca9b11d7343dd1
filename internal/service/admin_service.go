package service

import (
	"context"
	"errors"
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/tasks"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID         uint            `json:"userId"`
	Username       string          `json:"username"`
	FullName       string          `json:"fullName"`
	Role           string          `json:"role"`
	DepartmentID   *uint           `json:"departmentId"`
	DepartmentName string          `json:"departmentName"`
	CreatedAt      model.LocalTime `json:"createdAt"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	// Department Management
	CreateDepartment(ctx context.Context, name, description string, parentID *uint, creator *model.User) (*model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
	GetDepartmentTree(ctx context.Context) ([]*model.DepartmentNode, error)
	UpdateDepartment(ctx context.Context, id uint, name, description string, parentID *uint) (*model.Department, error)
	DeleteDepartment(ctx context.Context, id uint) error

	// User Management
	AssignUser(ctx context.Context, userID uint, role string, departmentID *uint) (*model.User, error)
	ListUsers(ctx context.Context, page, size int) (*UserListResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	departmentRepo repository.DepartmentRepository
	userRepo       repository.UserRepository
	events         EventPublisher
}

// NewAdminService 创建一个新的 AdminService 实例。
// 部门与成员归属的变化会发布 DirectoryChanged 事件，使所有周期的树缓存失效。
func NewAdminService(departmentRepo repository.DepartmentRepository, userRepo repository.UserRepository, events EventPublisher) AdminService {
	return &adminService{
		departmentRepo: departmentRepo,
		userRepo:       userRepo,
		events:         events,
	}
}

func (s *adminService) directoryChanged(ctx context.Context, subject string) {
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.DirectoryChanged, Subject: subject})
}

// CreateDepartment 处理创建新部门的逻辑。
func (s *adminService) CreateDepartment(ctx context.Context, name, description string, parentID *uint, creator *model.User) (*model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if parentID != nil {
		if _, err := s.departmentRepo.FindByID(ctx, *parentID); err != nil {
			return nil, notFound(err)
		}
	}
	dept := &model.Department{
		Name:        name,
		Description: description,
		ParentID:    parentID,
		CreatedBy:   creator.ID,
	}
	if err := s.departmentRepo.Create(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// ListDepartments 返回所有部门的列表。
func (s *adminService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.departmentRepo.FindAll(ctx)
}

// GetDepartmentTree retrieves all departments and organizes them into a tree structure.
func (s *adminService) GetDepartmentTree(ctx context.Context) ([]*model.DepartmentNode, error) {
	depts, err := s.departmentRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].ID < depts[j].ID })

	nodes := make(map[uint]*model.DepartmentNode, len(depts))
	for _, d := range depts {
		nodes[d.ID] = &model.DepartmentNode{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			ParentID:    d.ParentID,
			Children:    []*model.DepartmentNode{},
		}
	}

	tree := []*model.DepartmentNode{}
	for _, d := range depts {
		node := nodes[d.ID]
		if d.ParentID != nil {
			if parent, ok := nodes[*d.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		tree = append(tree, node)
	}
	return tree, nil
}

// UpdateDepartment updates an existing department. 上级部门不能是自身或自身的下级。
func (s *adminService) UpdateDepartment(ctx context.Context, id uint, name, description string, parentID *uint) (*model.Department, error) {
	dept, err := s.departmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if parentID != nil {
		all, err := s.departmentRepo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		if createsCycle(all, id, *parentID) {
			return nil, ErrInvalidInput
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		dept.Name = name
	}
	dept.Description = description
	dept.ParentID = parentID
	if err := s.departmentRepo.Update(ctx, dept); err != nil {
		return nil, err
	}
	s.directoryChanged(ctx, fmt.Sprintf("department:%d", dept.ID))
	return dept, nil
}

// createsCycle 判断把 id 的上级设为 parentID 后是否形成环。
func createsCycle(all []model.Department, id, parentID uint) bool {
	parents := make(map[uint]*uint, len(all))
	for i := range all {
		parents[all[i].ID] = all[i].ParentID
	}
	for cur, steps := &parentID, 0; cur != nil && steps <= len(all); steps++ {
		if *cur == id {
			return true
		}
		cur = parents[*cur]
	}
	return false
}

// DeleteDepartment deletes a department by its ID.
func (s *adminService) DeleteDepartment(ctx context.Context, id uint) error {
	if _, err := s.departmentRepo.FindByID(ctx, id); err != nil {
		return notFound(err)
	}
	if err := s.departmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.directoryChanged(ctx, fmt.Sprintf("department:%d", id))
	return nil
}

// AssignUser 调整用户的角色与所属部门。
func (s *adminService) AssignUser(ctx context.Context, userID uint, role string, departmentID *uint) (*model.User, error) {
	switch role {
	case model.RoleAdmin, model.RoleManager, model.RoleMember:
	default:
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	if departmentID != nil {
		if _, err := s.departmentRepo.FindByID(ctx, *departmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidInput
			}
			return nil, err
		}
	}
	user.Role = role
	user.DepartmentID = departmentID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.directoryChanged(ctx, fmt.Sprintf("user:%d", user.ID))
	return user, nil
}

// ListUsers 以分页的形式返回用户列表
func (s *adminService) ListUsers(ctx context.Context, page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	offset := (page - 1) * size
	users, total, err := s.userRepo.FindWithPagination(ctx, offset, size)
	if err != nil {
		return nil, err
	}

	depts, err := s.departmentRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	deptNames := make(map[uint]string, len(depts))
	for _, d := range depts {
		deptNames[d.ID] = d.Name
	}

	userResponses := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		resp := UserDetailResponse{
			UserID:       u.ID,
			Username:     u.Username,
			FullName:     u.FullName,
			Role:         u.Role,
			DepartmentID: u.DepartmentID,
			CreatedAt:    model.LocalTime(u.CreatedAt),
		}
		if u.DepartmentID != nil {
			resp.DepartmentName = deptNames[*u.DepartmentID]
		}
		userResponses = append(userResponses, resp)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (int(total) + size - 1) / size
	}

	return &UserListResponse{
		Content:       userResponses,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}
