package middleware

import (
	"net/http"
	"strings"

	"blog_cms/internal/pkg/config"
	"blog_cms/pkg/response"
	"blog_cms/pkg/security"
	"blog_cms/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextPrincipal = "principal"
	ContextUserID    = "userID"
	ContextRole      = "role"
)

// tokenFromRequest 优先读取 Cookie，其次 "Authorization: Bearer <token>"
func tokenFromRequest(c *gin.Context) string {
	cookieName := config.GlobalConfig.JWT.CookieName
	if cookieName == "" {
		cookieName = "token"
	}
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authentication required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将 principal、userID 和 role 存入上下文
		principal := &security.Principal{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			Slug:     claims.Slug,
			Role:     security.Role(claims.Role),
		}
		c.Set(ContextPrincipal, principal)
		c.Set(ContextUserID, principal.UserID)
		c.Set(ContextRole, string(principal.Role))

		c.Next()
	}
}

// AuthorizeRoles 角色白名单中间件，需在 AuthMiddleware 之后使用
func AuthorizeRoles(roles ...security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if principal == nil {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		if !principal.HasRole(roles...) {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "You are not allowed to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return AuthorizeRoles(security.RoleAdmin)
}

// CurrentPrincipal 获取当前登录用户，未登录返回 nil
func CurrentPrincipal(c *gin.Context) *security.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	principal, _ := v.(*security.Principal)
	return principal
}
