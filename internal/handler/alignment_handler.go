package handler

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AlignmentHandler 负责处理对齐关系相关的 API 请求。
type AlignmentHandler struct {
	alignmentService service.AlignmentService
}

// NewAlignmentHandler 创建一个新的 AlignmentHandler 实例。
func NewAlignmentHandler(alignmentService service.AlignmentService) *AlignmentHandler {
	return &AlignmentHandler{alignmentService: alignmentService}
}

// LinkRequest 定义了发起对齐申请 API 的请求体结构。
type LinkRequest struct {
	SourceObjectiveID uint   `json:"sourceObjectiveId" binding:"required"`
	TargetObjectiveID *uint  `json:"targetObjectiveId"`
	TargetKrID        *uint  `json:"targetKrId"`
	Note              string `json:"note"`
}

// DecisionRequest 定义了处理申请时可选的备注。
type DecisionRequest struct {
	Note string `json:"note"`
}

// Request 发起对齐申请。
func (h *AlignmentHandler) Request(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "RequestLink", err)
		return
	}
	link, err := h.alignmentService.Request(c.Request.Context(), user, service.LinkRequest{
		SourceObjectiveID: req.SourceObjectiveID,
		TargetObjectiveID: req.TargetObjectiveID,
		TargetKrID:        req.TargetKrID,
		Note:              req.Note,
	})
	if err != nil {
		fail(c, "RequestLink", err)
		return
	}
	success(c, link)
}

type decideFunc func(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error)

func (h *AlignmentHandler) decide(c *gin.Context, op string, fn decideFunc) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	// 备注可选，请求体为空时忽略
	_ = c.ShouldBindJSON(&req)
	link, err := fn(c.Request.Context(), user, id, req.Note)
	if err != nil {
		fail(c, op, err)
		return
	}
	success(c, link)
}

// Approve 批准对齐申请。
func (h *AlignmentHandler) Approve(c *gin.Context) {
	h.decide(c, "ApproveLink", h.alignmentService.Approve)
}

// Reject 拒绝对齐申请。
func (h *AlignmentHandler) Reject(c *gin.Context) {
	h.decide(c, "RejectLink", h.alignmentService.Reject)
}

// RequestChanges 要求申请方修改。
func (h *AlignmentHandler) RequestChanges(c *gin.Context) {
	h.decide(c, "RequestLinkChanges", h.alignmentService.RequestChanges)
}

// Cancel 取消对齐关系。
func (h *AlignmentHandler) Cancel(c *gin.Context) {
	h.decide(c, "CancelLink", func(ctx context.Context, actor *model.User, linkID uint, _ string) (*model.AlignmentLink, error) {
		return h.alignmentService.Cancel(ctx, actor, linkID)
	})
}

// ListIncoming 返回等待当前用户处理的申请。
func (h *AlignmentHandler) ListIncoming(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	links, err := h.alignmentService.ListIncoming(c.Request.Context(), user)
	if err != nil {
		fail(c, "ListIncomingLinks", err)
		return
	}
	success(c, links)
}

// ListBySource 返回某个目标发起的所有对齐关系。
func (h *AlignmentHandler) ListBySource(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	links, err := h.alignmentService.ListBySource(c.Request.Context(), user, id)
	if err != nil {
		fail(c, "ListLinks", err)
		return
	}
	success(c, links)
}
