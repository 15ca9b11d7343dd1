package handler

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ObjectiveHandler 负责处理目标相关的 API 请求。
type ObjectiveHandler struct {
	objectiveService service.ObjectiveService
}

// NewObjectiveHandler 创建一个新的 ObjectiveHandler 实例。
func NewObjectiveHandler(objectiveService service.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{objectiveService: objectiveService}
}

// ObjectiveRequest 定义了创建或修改目标 API 的请求体结构。
type ObjectiveRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Level        string `json:"level"`
	DepartmentID *uint  `json:"departmentId"`
	OwnerID      *uint  `json:"ownerId"`
	CycleID      *uint  `json:"cycleId"`
	Status       string `json:"status"`
}

func (r ObjectiveRequest) input() service.ObjectiveInput {
	return service.ObjectiveInput{
		Title:        r.Title,
		Description:  r.Description,
		Level:        r.Level,
		DepartmentID: r.DepartmentID,
		OwnerID:      r.OwnerID,
		CycleID:      r.CycleID,
		Status:       r.Status,
	}
}

// Create 创建目标。
func (h *ObjectiveHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CreateObjective", err)
		return
	}
	obj, err := h.objectiveService.Create(c.Request.Context(), user, req.input())
	if err != nil {
		fail(c, "CreateObjective", err)
		return
	}
	success(c, obj)
}

// Get 返回目标详情。
func (h *ObjectiveHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.objectiveService.GetDetail(c.Request.Context(), user, id)
	if err != nil {
		fail(c, "GetObjective", err)
		return
	}
	success(c, detail)
}

// Update 修改目标，未提供的字段保持不变。
func (h *ObjectiveHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "UpdateObjective", err)
		return
	}
	obj, err := h.objectiveService.Update(c.Request.Context(), user, id, req.input())
	if err != nil {
		fail(c, "UpdateObjective", err)
		return
	}
	success(c, obj)
}

// Archive 归档目标。
func (h *ObjectiveHandler) Archive(c *gin.Context) {
	h.mutate(c, "ArchiveObjective", h.objectiveService.Archive)
}

// Unarchive 取消归档。
func (h *ObjectiveHandler) Unarchive(c *gin.Context) {
	h.mutate(c, "UnarchiveObjective", h.objectiveService.Unarchive)
}

// Delete 删除已归档的目标。
func (h *ObjectiveHandler) Delete(c *gin.Context) {
	h.mutate(c, "DeleteObjective", h.objectiveService.Delete)
}

// ListArchived 返回已归档的目标，可用 cycle_id 过滤。
func (h *ObjectiveHandler) ListArchived(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	cycleID, ok := queryID(c, "cycle_id")
	if !ok {
		return
	}
	objs, err := h.objectiveService.ListArchived(c.Request.Context(), user, cycleID)
	if err != nil {
		fail(c, "ListArchivedObjectives", err)
		return
	}
	success(c, objs)
}

// mutate 处理只需要当前用户与路径 ID 的写操作。
func (h *ObjectiveHandler) mutate(c *gin.Context, op string, fn func(ctx context.Context, actor *model.User, id uint) error) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), user, id); err != nil {
		fail(c, op, err)
		return
	}
	success(c, nil)
}
