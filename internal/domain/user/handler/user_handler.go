package handler

import (
	"net/http"

	"blog_cms/internal/domain/user/service"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/pkg/response"
	"blog_cms/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserInput 创建用户输入
type CreateUserInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// UpdateUserInput 更新用户输入
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
}

// RoleInput 修改角色输入
type RoleInput struct {
	Role string `json:"role" binding:"required"`
}

// CreateUser 创建用户 (管理员/版主)
// @Summary 创建用户
// @Tags User
// @Accept json
// @Produce json
// @Param input body CreateUserInput true "用户信息"
// @Success 201 {object} response.Response{data=model.User}
// @Router /user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.CurrentPrincipal(c), service.CreateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, user)
}

// GetUsers 获取用户列表 (管理员/版主)
// @Summary 用户列表
// @Tags User
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Router /user [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, result)
}

// GetUser 获取单个用户 (本人或管理员)
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUser 更新用户 (本人或管理员)
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug"), service.UpdateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteUser 删除用户及其文章 (本人或管理员)
// @Summary 删除用户，级联删除其全部文章
// @Tags User
// @Param slug path string true "slug"
// @Success 204
// @Router /user/{slug} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteUsers 删除全部用户 (管理员)
func (h *UserHandler) DeleteUsers(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateRole 修改用户角色 (管理员)
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.SetRole(c.Request.Context(), c.Param("slug"), input.Role)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdatePicture 上传头像 (本人或管理员)
func (h *UserHandler) UpdatePicture(c *gin.Context) {
	file, err := c.FormFile("picture")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "picture is required")
		return
	}

	user, err := h.service.SetPicture(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug"), file)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetPicture 读取头像
func (h *UserHandler) GetPicture(c *gin.Context) {
	body, contentType, err := h.service.OpenPicture(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

// GetArticles 用户发布的文章
func (h *UserHandler) GetArticles(c *gin.Context) {
	articles, err := h.service.Articles(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}
