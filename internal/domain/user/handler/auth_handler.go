package handler

import (
	"net/http"
	"time"

	"blog_cms/internal/domain/user/service"
	"blog_cms/internal/pkg/config"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// LoginInput 登录输入
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenInput 激活/Google 登录输入
type TokenInput struct {
	Token string `json:"token" binding:"required"`
}

// ForgotPasswordInput 找回密码输入
type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordInput 重置密码输入
type ResetPasswordInput struct {
	Token           string `json:"resetPasswordLink" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func cookieName() string {
	if name := config.GlobalConfig.JWT.CookieName; name != "" {
		return name
	}
	return "token"
}

// setSessionCookie 以 HTTP-only Cookie 下发会话令牌
func setSessionCookie(c *gin.Context, session *service.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName(), session.Token, maxAge, "/", "", config.GlobalConfig.App.IsProduction(), true)
}

func bind(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return false
	}
	return true
}

// Register 注册，发送激活邮件
// @Summary 注册
// @Tags Auth
// @Accept json
// @Param input body RegisterInput true "注册信息"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if !bind(c, &input) {
		return
	}

	err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Email has been sent to " + input.Email + ", follow the instructions to activate your account"})
}

// Activate 激活账号
// @Router /auth/account-activation [post]
func (h *AuthHandler) Activate(c *gin.Context) {
	var input TokenInput
	if !bind(c, &input) {
		return
	}

	session, err := h.service.Activate(c.Request.Context(), input.Token)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	setSessionCookie(c, session)
	response.Created(c, session)
}

// Login 邮箱密码登录
// @Summary 登录，令牌同时写入 Cookie
// @Tags Auth
// @Accept json
// @Param input body LoginInput true "登录信息"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if !bind(c, &input) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	setSessionCookie(c, session)
	response.Success(c, session)
}

// Logout 清除会话 Cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(cookieName(), "", -1, "/", "", config.GlobalConfig.App.IsProduction(), true)
	response.Success(c, gin.H{"message": "Signed out"})
}

// ForgotPassword 发送重置密码邮件
// @Router /auth/forgot-password [put]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if !bind(c, &input) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Email has been sent to " + input.Email})
}

// ResetPassword 重置密码
// @Router /auth/reset-password [put]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if !bind(c, &input) {
		return
	}

	session, err := h.service.ResetPassword(c.Request.Context(), input.Token, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	setSessionCookie(c, session)
	response.Success(c, session)
}

// GoogleLogin Google 登录
// @Router /auth/google-login [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var input TokenInput
	if !bind(c, &input) {
		return
	}

	session, err := h.service.GoogleLogin(c.Request.Context(), input.Token)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	setSessionCookie(c, session)
	response.Success(c, session)
}

// Me 当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}
