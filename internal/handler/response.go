// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusOf 把业务错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidLink), errors.Is(err, service.ErrNotArchived):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateLink), errors.Is(err, service.ErrLinkClosed), errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail 按错误类型返回统一的错误响应。500 时不向客户端暴露内部错误。
func fail(c *gin.Context, op string, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %v", op, err)
		message = "服务器内部错误"
	} else {
		log.Warnf("%s: %v", op, err)
	}
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

func badRequest(c *gin.Context, op string, err error) {
	log.Warnf("%s: Invalid request payload, error: %v", op, err)
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

// currentUser 取出由 AuthMiddleware 注入的用户。
func currentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未认证用户或无法获取用户信息", "data": nil})
		return nil, false
	}
	user, ok := value.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "用户数据类型错误", "data": nil})
		return nil, false
	}
	return user, true
}

// pathID 解析路径参数中的 ID。
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid " + name + " format", "data": nil})
		return 0, false
	}
	return uint(id), true
}

// queryID 解析可选的查询参数 ID，参数缺失时返回 nil。
func queryID(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Invalid " + name + " format", "data": nil})
		return nil, false
	}
	v := uint(id)
	return &v, true
}

