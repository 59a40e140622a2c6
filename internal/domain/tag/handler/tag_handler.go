package handler

import (
	"net/http"

	"blog_cms/internal/domain/tag/service"
	"blog_cms/pkg/response"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	service service.TagService
}

func NewTagHandler(s service.TagService) *TagHandler {
	return &TagHandler{service: s}
}

// TagInput 创建/更新标签输入
type TagInput struct {
	Name string `json:"name" binding:"required"`
}

// Create 创建标签
// @Summary 创建标签 (管理员)
// @Tags Tag
// @Accept json
// @Produce json
// @Param input body TagInput true "标签名称"
// @Router /tag [post]
func (h *TagHandler) Create(c *gin.Context) {
	var input TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	tag, err := h.service.Create(c.Request.Context(), input.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, tag)
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context(), c.Query("sort"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tags)
}

func (h *TagHandler) Get(c *gin.Context) {
	tag, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tag)
}

// Update 重命名标签 (管理员)
func (h *TagHandler) Update(c *gin.Context) {
	var input TagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	tag, err := h.service.Update(c.Request.Context(), c.Param("slug"), input.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *TagHandler) DeleteAll(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// Articles 标签下的文章
func (h *TagHandler) Articles(c *gin.Context) {
	articles, err := h.service.Articles(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}
