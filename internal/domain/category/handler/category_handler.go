package handler

import (
	"net/http"

	"blog_cms/internal/domain/category/service"
	"blog_cms/pkg/response"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类处理器
type CategoryHandler struct {
	service service.CategoryService
}

// NewCategoryHandler 创建处理器
func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	Name string `json:"name" binding:"required"`
}

// Create 创建分类
// @Summary 创建分类 (管理员)
// @Tags Category
// @Accept json
// @Produce json
// @Param input body CategoryInput true "分类名称"
// @Success 201 {object} response.Response{data=model.Category}
// @Router /category [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	category, err := h.service.Create(c.Request.Context(), input.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, category)
}

// List 获取分类列表
// @Summary 分类列表，sort=-createdAt 倒序
// @Tags Category
// @Produce json
// @Router /category [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context(), c.Query("sort"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, categories)
}

// Get 获取单个分类
// @Summary 按 slug 获取分类
// @Tags Category
// @Produce json
// @Param slug path string true "slug"
// @Router /category/{slug} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, category)
}

// Update 重命名分类
// @Summary 更新分类 (管理员/版主)
// @Tags Category
// @Accept json
// @Produce json
// @Param slug path string true "slug"
// @Param input body CategoryInput true "分类名称"
// @Router /category/{slug} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	category, err := h.service.Update(c.Request.Context(), c.Param("slug"), input.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, category)
}

// Delete 删除分类
// @Summary 删除分类 (管理员)，仍有文章引用时返回 409
// @Tags Category
// @Param slug path string true "slug"
// @Success 204
// @Router /category/{slug} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAll 删除全部分类 (管理员)
func (h *CategoryHandler) DeleteAll(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// Articles 分类下的文章
func (h *CategoryHandler) Articles(c *gin.Context) {
	articles, err := h.service.Articles(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}

// SubCategories 分类下的子分类
func (h *CategoryHandler) SubCategories(c *gin.Context) {
	subs, err := h.service.SubCategories(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, subs)
}
