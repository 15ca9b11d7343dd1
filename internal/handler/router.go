package handler

import (
	"okr-compass-go/internal/middleware"
	"okr-compass-go/internal/repository"
	"okr-compass-go/internal/service"
	"okr-compass-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Services 汇集了路由所需的全部服务。
type Services struct {
	JWT       *token.JWTManager
	Blacklist repository.TokenBlacklist

	Users      service.UserService
	Admin      service.AdminService
	Cycles     service.CycleService
	Objectives service.ObjectiveService
	KeyResults service.KeyResultService
	Alignments service.AlignmentService
	Trees      service.OKRTreeService
	Snapshots  service.SnapshotService
	Search     service.SearchService
}

// RegisterRoutes 在 /api/v1 下注册所有路由。
func RegisterRoutes(r *gin.Engine, s Services) {
	userHandler := NewUserHandler(s.Users)
	adminHandler := NewAdminHandler(s.Admin)
	cycleHandler := NewCycleHandler(s.Cycles)
	objectiveHandler := NewObjectiveHandler(s.Objectives)
	keyResultHandler := NewKeyResultHandler(s.KeyResults)
	alignmentHandler := NewAlignmentHandler(s.Alignments)
	okrHandler := NewOKRHandler(s.Trees, s.Snapshots, s.Search)

	authRequired := middleware.AuthMiddleware(s.JWT, s.Users, s.Blacklist)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", NewAuthHandler(s.Users).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		okr := apiV1.Group("/okr")
		okr.Use(authRequired)
		{
			okr.GET("/tree", okrHandler.Tree)
			okr.POST("/snapshots", okrHandler.Snapshot)
		}

		search := apiV1.Group("/search")
		search.Use(authRequired)
		{
			search.GET("/objectives", okrHandler.Search)
		}

		cycles := apiV1.Group("/cycles")
		cycles.Use(authRequired)
		{
			cycles.GET("", cycleHandler.List)
			cycles.GET("/current", cycleHandler.Current)
		}

		objectives := apiV1.Group("/objectives")
		objectives.Use(authRequired)
		{
			objectives.POST("", objectiveHandler.Create)
			objectives.GET("/archived", objectiveHandler.ListArchived)
			objectives.GET("/:id", objectiveHandler.Get)
			objectives.PUT("/:id", objectiveHandler.Update)
			objectives.DELETE("/:id", objectiveHandler.Delete)
			objectives.POST("/:id/archive", objectiveHandler.Archive)
			objectives.POST("/:id/unarchive", objectiveHandler.Unarchive)
			objectives.POST("/:id/key-results", keyResultHandler.Create)
			objectives.GET("/:id/links", alignmentHandler.ListBySource)
		}

		keyResults := apiV1.Group("/key-results")
		keyResults.Use(authRequired)
		{
			keyResults.PUT("/:id", keyResultHandler.Update)
			keyResults.DELETE("/:id", keyResultHandler.Delete)
			keyResults.POST("/:id/archive", keyResultHandler.Archive)
			keyResults.POST("/:id/check-ins", keyResultHandler.CheckIn)
			keyResults.GET("/:id/check-ins", keyResultHandler.ListCheckIns)
		}

		links := apiV1.Group("/links")
		links.Use(authRequired)
		{
			links.POST("", alignmentHandler.Request)
			links.GET("/incoming", alignmentHandler.ListIncoming)
			links.POST("/:id/approve", alignmentHandler.Approve)
			links.POST("/:id/reject", alignmentHandler.Reject)
			links.POST("/:id/request-changes", alignmentHandler.RequestChanges)
			links.POST("/:id/cancel", alignmentHandler.Cancel)
		}

		admin := apiV1.Group("/admin")
		// 管理员路由组，需要同时通过认证和管理员授权两个中间件
		admin.Use(authRequired, middleware.AdminAuthMiddleware())
		{
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.PUT("/users/:userId/role", adminHandler.AssignUser)

			departments := admin.Group("/departments")
			{
				departments.POST("", adminHandler.CreateDepartment)
				departments.GET("", adminHandler.ListDepartments)
				departments.GET("/tree", adminHandler.GetDepartmentTree)
				departments.PUT("/:id", adminHandler.UpdateDepartment)
				departments.DELETE("/:id", adminHandler.DeleteDepartment)
			}

			cycles := admin.Group("/cycles")
			{
				cycles.POST("", cycleHandler.Create)
				cycles.PUT("/:id", cycleHandler.Update)
				cycles.DELETE("/:id", cycleHandler.Delete)
			}
		}
	}
}
