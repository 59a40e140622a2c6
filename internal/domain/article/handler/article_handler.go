package handler

import (
	"net/http"
	"strconv"

	"blog_cms/internal/domain/article/service"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/pkg/response"
	"blog_cms/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ArticleHandler 文章处理器
type ArticleHandler struct {
	service service.ArticleService
}

// NewArticleHandler 创建处理器
func NewArticleHandler(s service.ArticleService) *ArticleHandler {
	return &ArticleHandler{service: s}
}

// CreateArticleInput 创建文章输入
type CreateArticleInput struct {
	Title       string   `json:"title" binding:"required"`
	Body        string   `json:"body"`
	Category    string   `json:"category" binding:"required"`
	SubCategory *string  `json:"subCategory"`
	Tags        []string `json:"tags"`
}

// UpdateArticleInput 更新文章输入，未提供的字段保持不变
type UpdateArticleInput struct {
	Title       *string   `json:"title"`
	Body        *string   `json:"body"`
	Category    *string   `json:"category"`
	SubCategory *string   `json:"subCategory"`
	Tags        *[]string `json:"tags"`
}

// CommentInput 评论输入
type CommentInput struct {
	Name string `json:"name" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// Create 发布文章
// @Summary 发布文章 (需登录)，作者为当前用户
// @Tags Article
// @Accept json
// @Produce json
// @Param input body CreateArticleInput true "文章内容"
// @Success 201 {object} response.Response{data=model.Article}
// @Router /article [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var input CreateArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	article, err := h.service.Create(c.Request.Context(), middleware.CurrentPrincipal(c), service.CreateInput{
		Title:       input.Title,
		Body:        input.Body,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Tags:        input.Tags,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, article)
}

// List 文章列表
// @Summary 文章列表，支持 page/limit 分页与 sort=-createdAt
// @Tags Article
// @Produce json
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Param sort query string false "排序"
// @Router /article [get]
func (h *ArticleHandler) List(c *gin.Context) {
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

// Get 按 slug 获取文章
// @Summary 文章详情
// @Tags Article
// @Produce json
// @Param slug path string true "slug"
// @Router /article/{slug} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, article)
}

// Update 修改文章 (作者或管理员)
// @Summary 修改文章
// @Tags Article
// @Accept json
// @Produce json
// @Param slug path string true "slug"
// @Param input body UpdateArticleInput true "修改内容"
// @Router /article/{slug} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var input UpdateArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	article, err := h.service.Update(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug"), service.UpdateInput{
		Title:       input.Title,
		Body:        input.Body,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Tags:        input.Tags,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, article)
}

// Delete 删除文章 (作者或管理员)
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAll 删除全部文章 (管理员)
func (h *ArticleHandler) DeleteAll(c *gin.Context) {
	if err := h.service.DeleteAll(c.Request.Context()); err != nil {
		response.HandleError(c, err)
		return
	}
	response.NoContent(c)
}

// Like 点赞/取消点赞，以客户端地址区分请求者
// @Summary 切换点赞
// @Tags Article
// @Produce json
// @Param slug path string true "slug"
// @Success 200 {object} response.Response{data=model.Reactions}
// @Router /article/{slug}/like [patch]
func (h *ArticleHandler) Like(c *gin.Context) {
	reactions, err := h.service.ToggleLike(c.Request.Context(), c.Param("slug"), c.ClientIP())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, reactions)
}

// Unlike 点踩/取消点踩
// @Router /article/{slug}/unlike [patch]
func (h *ArticleHandler) Unlike(c *gin.Context) {
	reactions, err := h.service.ToggleUnlike(c.Request.Context(), c.Param("slug"), c.ClientIP())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, reactions)
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags Article
// @Accept json
// @Param slug path string true "slug"
// @Param input body CommentInput true "评论"
// @Success 201 {object} response.Response{data=model.Comment}
// @Router /article/{slug}/comments [post]
func (h *ArticleHandler) AddComment(c *gin.Context) {
	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("slug"), input.Name, input.Text)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, comment)
}

// Top 点赞最多的文章
// @Param n query int false "数量，默认 5，最多 50"
// @Router /article/top [get]
func (h *ArticleHandler) Top(c *gin.Context) {
	n := 0
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "n must be a number")
			return
		}
		n = v
	}

	articles, err := h.service.Top(c.Request.Context(), n)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}

// Related 同分类的相关文章
func (h *ArticleHandler) Related(c *gin.Context) {
	articles, err := h.service.Related(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, articles)
}

// SetPicture 上传文章配图 (作者或管理员)
// @Accept multipart/form-data
// @Param picture formData file true "图片"
// @Router /article/{slug}/picture [patch]
func (h *ArticleHandler) SetPicture(c *gin.Context) {
	file, err := c.FormFile("picture")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "picture is required")
		return
	}

	article, err := h.service.SetPicture(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("slug"), file)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, article)
}

// GetPicture 读取文章配图
// @Router /article/{slug}/picture [get]
func (h *ArticleHandler) GetPicture(c *gin.Context) {
	body, contentType, err := h.service.OpenPicture(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
