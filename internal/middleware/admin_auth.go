package middleware

import (
	"net/http"
	"okr-compass-go/internal/model"

	"github.com/gin-gonic/gin"
)

// RequireRoles 检查用户是否具有给定角色之一。
// 此中间件必须在 AuthMiddleware 之后使用。
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			// AuthMiddleware 未能成功解析，这是一个服务器内部错误
			abort(c, http.StatusInternalServerError, "无法获取用户信息")
			return
		}
		currentUser, ok := user.(*model.User)
		if !ok {
			abort(c, http.StatusInternalServerError, "用户数据类型错误")
			return
		}

		for _, role := range roles {
			if currentUser.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "权限不足")
	}
}

// AdminAuthMiddleware 检查用户是否具有管理员权限。
func AdminAuthMiddleware() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}
