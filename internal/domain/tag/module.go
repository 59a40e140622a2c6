package tag

import (
	"fmt"

	"blog_cms/internal/domain/relation"
	"blog_cms/internal/domain/tag/handler"
	"blog_cms/internal/domain/tag/repository"
	"blog_cms/internal/domain/tag/service"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

type TagModule struct{}

func init() {
	registry.Register(&TagModule{})
}

func (m *TagModule) Name() string {
	return "tag"
}

// Priority 删除标签需要清理文章缓存，在 article 模块之后初始化
func (m *TagModule) Priority() int {
	return 15
}

func (m *TagModule) Init(ctx *registry.ModuleContext) error {
	provided, err := ctx.Resolve("article.evict")
	if err != nil {
		return err
	}
	articles, ok := provided.(service.ArticleEvictor)
	if !ok {
		return fmt.Errorf("article.evict has unexpected type %T", provided)
	}

	repo := repository.NewTagRepository(ctx.DB, relation.NewMaintainer())
	h := handler.NewTagHandler(service.NewTagService(repo, articles))

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.TagHandler) {
	admin := []gin.HandlerFunc{middleware.AuthMiddleware(), middleware.AdminMiddleware()}

	tagGroup := r.Group("/tag")
	{
		tagGroup.GET("", h.List)
		tagGroup.POST("", append(admin, h.Create)...)
		tagGroup.DELETE("", append(admin, h.DeleteAll)...)
		tagGroup.GET("/:slug", h.Get)
		tagGroup.PUT("/:slug", append(admin, h.Update)...)
		tagGroup.DELETE("/:slug", append(admin, h.Delete)...)
		tagGroup.GET("/:slug/articles", h.Articles)
	}
}
