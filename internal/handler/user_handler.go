package handler

import (
	"net/http"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/log"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责注册、登录、登出与个人信息。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。fullName 缺省时使用用户名。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
}

// Register 处理用户注册请求，新用户的角色为 member 且不属于任何部门。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Register", err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		fail(c, "Register", err)
		return
	}
	log.Infof("User '%s' registered successfully", user.Username)
	success(c, user)
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验用户名与密码并签发 access / refresh token。
// 用户不存在与密码错误返回同样的 401，不暴露用户名是否存在。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Login", err)
		return
	}

	accessToken, refreshToken, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, "Login", err)
		return
	}
	log.Infof("User '%s' logged in successfully", req.Username)
	success(c, gin.H{"token": accessToken, "refreshToken": refreshToken})
}

// GetProfile 返回由 AuthMiddleware 注入的当前用户。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	success(c, user)
}

// Logout 把当前 access token 加入黑名单直至其过期。
func (h *UserHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		log.Errorf("Logout: user %d 登出失败: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "登出失败", "data": nil})
		return
	}
	log.Infof("User '%s' logged out", user.Username)
	success(c, nil)
}
