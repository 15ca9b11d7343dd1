package handler

import (
	"net/http"
	"okr-compass-go/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OKRHandler 负责对齐树、快照与目标搜索相关的 API 请求。
type OKRHandler struct {
	treeService     service.OKRTreeService
	snapshotService service.SnapshotService
	searchService   service.SearchService
}

// NewOKRHandler 创建一个新的 OKRHandler 实例。
func NewOKRHandler(treeService service.OKRTreeService, snapshotService service.SnapshotService, searchService service.SearchService) *OKRHandler {
	return &OKRHandler{
		treeService:     treeService,
		snapshotService: snapshotService,
		searchService:   searchService,
	}
}

// Tree 返回当前用户视角下的对齐树。树本身直接作为响应体返回。
func (h *OKRHandler) Tree(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	cycleID, ok := queryID(c, "cycle_id")
	if !ok {
		return
	}
	tree, err := h.treeService.GetTree(c.Request.Context(), user, cycleID)
	if err != nil {
		fail(c, "GetTree", err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// Snapshot 把当前用户视角下的对齐树保存到对象存储并返回下载链接。
func (h *OKRHandler) Snapshot(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	cycleID, ok := queryID(c, "cycle_id")
	if !ok {
		return
	}
	snap, err := h.snapshotService.Create(c.Request.Context(), user, cycleID)
	if err != nil {
		fail(c, "CreateSnapshot", err)
		return
	}
	success(c, snap)
}

// Search 全文检索目标。
func (h *OKRHandler) Search(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空", "data": nil})
		return
	}
	cycleID, ok := queryID(c, "cycle_id")
	if !ok {
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("topK", "10"))

	hits, err := h.searchService.SearchObjectives(c.Request.Context(), query, cycleID, topK, user)
	if err != nil {
		fail(c, "SearchObjectives", err)
		return
	}
	success(c, hits)
}
