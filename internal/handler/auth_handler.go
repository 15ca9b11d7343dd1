package handler

import (
	"okr-compass-go/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责 token 续期。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 用 refresh token 换取新的一对 token。角色与部门按数据库中的最新值重新签发。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "RefreshToken", err)
		return
	}

	accessToken, refreshToken, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, "RefreshToken", err)
		return
	}
	success(c, gin.H{"token": accessToken, "refreshToken": refreshToken})
}
