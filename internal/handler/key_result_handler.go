package handler

import (
	"okr-compass-go/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// KeyResultHandler 负责处理关键结果与打卡相关的 API 请求。
type KeyResultHandler struct {
	keyResultService service.KeyResultService
}

// NewKeyResultHandler 创建一个新的 KeyResultHandler 实例。
func NewKeyResultHandler(keyResultService service.KeyResultService) *KeyResultHandler {
	return &KeyResultHandler{keyResultService: keyResultService}
}

// KeyResultRequest 定义了创建或修改关键结果 API 的请求体结构。
type KeyResultRequest struct {
	Title           string   `json:"title" binding:"required"`
	TargetValue     float64  `json:"targetValue"`
	CurrentValue    float64  `json:"currentValue"`
	Unit            string   `json:"unit"`
	Status          string   `json:"status"`
	ProgressPercent *float64 `json:"progressPercent"`
	AssignedTo      *uint    `json:"assignedTo"`
}

func (r KeyResultRequest) input() service.KeyResultInput {
	return service.KeyResultInput{
		Title:           r.Title,
		TargetValue:     r.TargetValue,
		CurrentValue:    r.CurrentValue,
		Unit:            r.Unit,
		Status:          r.Status,
		ProgressPercent: r.ProgressPercent,
		AssignedTo:      r.AssignedTo,
	}
}

// Create 在目标下创建关键结果。
func (h *KeyResultHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	objectiveID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req KeyResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CreateKeyResult", err)
		return
	}
	kr, err := h.keyResultService.Create(c.Request.Context(), user, objectiveID, req.input())
	if err != nil {
		fail(c, "CreateKeyResult", err)
		return
	}
	success(c, kr)
}

// Update 修改关键结果。
func (h *KeyResultHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req KeyResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "UpdateKeyResult", err)
		return
	}
	kr, err := h.keyResultService.Update(c.Request.Context(), user, id, req.input())
	if err != nil {
		fail(c, "UpdateKeyResult", err)
		return
	}
	success(c, kr)
}

// Archive 归档关键结果。
func (h *KeyResultHandler) Archive(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.keyResultService.Archive(c.Request.Context(), user, id); err != nil {
		fail(c, "ArchiveKeyResult", err)
		return
	}
	success(c, nil)
}

// Delete 删除关键结果。
func (h *KeyResultHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.keyResultService.Delete(c.Request.Context(), user, id); err != nil {
		fail(c, "DeleteKeyResult", err)
		return
	}
	success(c, nil)
}

// CheckInRequest 定义了打卡 API 的请求体结构。
type CheckInRequest struct {
	Value           *float64 `json:"value" binding:"required"`
	ProgressPercent *float64 `json:"progressPercent"`
	Confidence      int      `json:"confidence"`
	Note            string   `json:"note"`
}

// CheckIn 记录一次打卡。
func (h *KeyResultHandler) CheckIn(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CheckIn", err)
		return
	}
	checkIn, err := h.keyResultService.CheckIn(c.Request.Context(), user, id, service.CheckInInput{
		Value:           *req.Value,
		ProgressPercent: req.ProgressPercent,
		Confidence:      req.Confidence,
		Note:            req.Note,
	})
	if err != nil {
		fail(c, "CheckIn", err)
		return
	}
	success(c, checkIn)
}

// ListCheckIns 返回关键结果的打卡记录，最新的在前。
func (h *KeyResultHandler) ListCheckIns(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	history, err := h.keyResultService.ListCheckIns(c.Request.Context(), user, id, limit)
	if err != nil {
		fail(c, "ListCheckIns", err)
		return
	}
	success(c, history)
}
