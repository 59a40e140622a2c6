package user

import (
	"blog_cms/internal/domain/user/handler"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/pkg/security"

	"github.com/gin-gonic/gin"
)

// setupRoutes 设置用户与认证路由
func setupRoutes(r *gin.RouterGroup, userHandler *handler.UserHandler, authHandler *handler.AuthHandler) {
	auth := middleware.AuthMiddleware()
	admin := []gin.HandlerFunc{auth, middleware.AdminMiddleware()}
	staff := []gin.HandlerFunc{auth, middleware.AuthorizeRoles(security.RoleAdmin, security.RoleModerator)}

	// 公开路由
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/account-activation", authHandler.Activate)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/logout", authHandler.Logout)
		authGroup.PUT("/forgot-password", authHandler.ForgotPassword)
		authGroup.PUT("/reset-password", authHandler.ResetPassword)
		authGroup.POST("/google-login", authHandler.GoogleLogin)
		authGroup.GET("/me", auth, authHandler.Me)
	}

	// 本人或管理员的检查在 service 中完成，先返回 404 再返回 403
	userGroup := r.Group("/user")
	{
		userGroup.GET("", append(staff, userHandler.GetUsers)...)
		userGroup.POST("", append(staff, userHandler.CreateUser)...)
		userGroup.DELETE("", append(admin, userHandler.DeleteUsers)...)
		userGroup.GET("/:slug", auth, userHandler.GetUser)
		userGroup.PUT("/:slug", auth, userHandler.UpdateUser)
		userGroup.DELETE("/:slug", auth, userHandler.DeleteUser)
		userGroup.PATCH("/:slug/role", append(admin, userHandler.UpdateRole)...)
		userGroup.GET("/:slug/picture", userHandler.GetPicture)
		userGroup.PATCH("/:slug/picture", auth, userHandler.UpdatePicture)
		userGroup.GET("/:slug/articles", userHandler.GetArticles)
	}
}
