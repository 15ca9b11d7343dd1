package handler

import (
	"net/http"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理部门与用户管理相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// DepartmentRequest 定义了创建或修改部门 API 的请求体结构。
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parentId"`
}

// CreateDepartment 处理创建新部门的请求。
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CreateDepartment", err)
		return
	}
	creator, ok := currentUser(c)
	if !ok {
		return
	}

	dept, err := h.adminService.CreateDepartment(c.Request.Context(), req.Name, req.Description, req.ParentID, creator)
	if err != nil {
		fail(c, "CreateDepartment", err)
		return
	}
	log.Infof("Admin user '%s' created department '%s'", creator.Username, dept.Name)
	success(c, dept)
}

// ListDepartments 处理获取所有部门列表的请求。
func (h *AdminHandler) ListDepartments(c *gin.Context) {
	depts, err := h.adminService.ListDepartments(c.Request.Context())
	if err != nil {
		fail(c, "ListDepartments", err)
		return
	}
	success(c, depts)
}

// GetDepartmentTree handles the request to get the department tree.
func (h *AdminHandler) GetDepartmentTree(c *gin.Context) {
	tree, err := h.adminService.GetDepartmentTree(c.Request.Context())
	if err != nil {
		fail(c, "GetDepartmentTree", err)
		return
	}
	success(c, tree)
}

// UpdateDepartment handles the request to update a department.
func (h *AdminHandler) UpdateDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "UpdateDepartment", err)
		return
	}
	dept, err := h.adminService.UpdateDepartment(c.Request.Context(), id, req.Name, req.Description, req.ParentID)
	if err != nil {
		fail(c, "UpdateDepartment", err)
		return
	}
	success(c, dept)
}

// DeleteDepartment handles the request to delete a department.
func (h *AdminHandler) DeleteDepartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteDepartment(c.Request.Context(), id); err != nil {
		fail(c, "DeleteDepartment", err)
		return
	}
	success(c, nil)
}

// AssignUserRequest 定义了调整用户角色与部门 API 的请求体结构。
type AssignUserRequest struct {
	Role         string `json:"role" binding:"required"`
	DepartmentID *uint  `json:"departmentId"`
}

// AssignUser 处理调整用户角色与所属部门的请求。
func (h *AdminHandler) AssignUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "AssignUser", err)
		return
	}
	user, err := h.adminService.AssignUser(c.Request.Context(), userID, req.Role, req.DepartmentID)
	if err != nil {
		fail(c, "AssignUser", err)
		return
	}
	log.Infof("User %d assigned role '%s'", user.ID, user.Role)
	success(c, user)
}

// ListUsers 处理分页获取用户列表的请求。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	users, err := h.adminService.ListUsers(c.Request.Context(), page, size)
	if err != nil {
		fail(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": users})
}
