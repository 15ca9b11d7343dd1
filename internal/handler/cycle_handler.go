package handler

import (
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

// CycleHandler 负责处理周期相关的 API 请求。
type CycleHandler struct {
	cycleService service.CycleService
}

// NewCycleHandler 创建一个新的 CycleHandler 实例。
func NewCycleHandler(cycleService service.CycleService) *CycleHandler {
	return &CycleHandler{cycleService: cycleService}
}

// CycleRequest 定义了创建或修改周期 API 的请求体结构，日期格式为 YYYY-MM-DD。
type CycleRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

func (r CycleRequest) dates() (time.Time, time.Time, error) {
	start, err := model.ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := model.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// List 返回所有周期。
func (h *CycleHandler) List(c *gin.Context) {
	cycles, err := h.cycleService.List(c.Request.Context())
	if err != nil {
		fail(c, "ListCycles", err)
		return
	}
	success(c, cycles)
}

// Current 返回当前周期，可用 cycle_id 指定。
func (h *CycleHandler) Current(c *gin.Context) {
	cycleID, ok := queryID(c, "cycle_id")
	if !ok {
		return
	}
	ref, err := h.cycleService.ResolveCurrent(c.Request.Context(), cycleID, time.Now())
	if err != nil {
		fail(c, "CurrentCycle", err)
		return
	}
	success(c, gin.H{"cycle_id": ref.ID, "cycle_label": ref.Label})
}

// Create 创建周期（管理员）。
func (h *CycleHandler) Create(c *gin.Context) {
	var req CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CreateCycle", err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		badRequest(c, "CreateCycle", err)
		return
	}
	cycle, err := h.cycleService.Create(c.Request.Context(), req.Name, start, end)
	if err != nil {
		fail(c, "CreateCycle", err)
		return
	}
	success(c, cycle)
}

// Update 修改周期（管理员）。
func (h *CycleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "UpdateCycle", err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		badRequest(c, "UpdateCycle", err)
		return
	}
	cycle, err := h.cycleService.Update(c.Request.Context(), id, req.Name, start, end)
	if err != nil {
		fail(c, "UpdateCycle", err)
		return
	}
	success(c, cycle)
}

// Delete 删除周期（管理员）。
func (h *CycleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.cycleService.Delete(c.Request.Context(), id); err != nil {
		fail(c, "DeleteCycle", err)
		return
	}
	success(c, nil)
}
