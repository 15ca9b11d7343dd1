// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"okr-compass-go/internal/repository"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/token"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性并检查是否已登出，然后将完整的 User 对象存入 Gin 的上下文中。
// 角色与部门以数据库中的用户为准，而不是 token 中的声明。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService, blacklist repository.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "请求未包含授权头")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abort(c, http.StatusUnauthorized, "无效的授权头格式")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "无效或已过期的 token")
			return
		}

		revoked, err := blacklist.Contains(c.Request.Context(), tokenString)
		if err != nil {
			log.Errorf("AuthMiddleware: 检查 token 黑名单失败: %v", err)
			abort(c, http.StatusInternalServerError, "认证服务暂不可用")
			return
		}
		if revoked {
			abort(c, http.StatusUnauthorized, "token 已失效，请重新登录")
			return
		}

		user, err := userService.GetProfile(c.Request.Context(), claims.UserID)
		if err != nil {
			// 如果根据 token 中的用户信息无法找到用户，说明该用户可能已被删除
			abort(c, http.StatusUnauthorized, "用户不存在")
			return
		}

		c.Set("user", user)
		c.Set("claims", claims)
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}
