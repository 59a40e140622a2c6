package handler

import (
	"net/http"

	"blog_cms/internal/domain/category/service"
	"blog_cms/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubCategoryHandler struct {
	service service.SubCategoryService
}

func NewSubCategoryHandler(s service.SubCategoryService) *SubCategoryHandler {
	return &SubCategoryHandler{service: s}
}

// SubCategoryInput 创建子分类输入
type SubCategoryInput struct {
	Name           string `json:"name" binding:"required"`
	ParentCategory string `json:"parentCategory" binding:"required"`
}

// SubCategoryUpdateInput 更新子分类输入，字段均可选
type SubCategoryUpdateInput struct {
	Name           string `json:"name"`
	ParentCategory string `json:"parentCategory"`
}

// Create 创建子分类
// @Summary 创建子分类 (管理员)
// @Tags SubCategory
// @Accept json
// @Produce json
// @Param input body SubCategoryInput true "名称与父分类 id"
// @Router /sub-category [post]
func (h *SubCategoryHandler) Create(c *gin.Context) {
	var input SubCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	sub, err := h.service.Create(c.Request.Context(), service.SubCategoryInput{
		Name:           input.Name,
		ParentCategory: input.ParentCategory,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, sub)
}

func (h *SubCategoryHandler) List(c *gin.Context) {
	subs, err := h.service.List(c.Request.Context(), c.Query("sort"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, subs)
}

func (h *SubCategoryHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, sub)
}

func (h *SubCategoryHandler) Update(c *gin.Context) {
	var input SubCategoryUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	sub, err := h.service.Update(c.Request.Context(), c.Param("slug"), service.SubCategoryInput{
		Name:           input.Name,
		ParentCategory: input.ParentCategory,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, sub)
}

func (h *SubCategoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SubCategoryHandler) DeleteAll(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SubCategoryHandler) Articles(c *gin.Context) {
	articles, err := h.service.Articles(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}
