package article

import (
	"blog_cms/internal/domain/article/handler"
	"blog_cms/internal/domain/article/repository"
	"blog_cms/internal/domain/article/service"
	"blog_cms/internal/domain/relation"
	"blog_cms/internal/pkg/config"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// CascadeService 删除用户时使用的文章级联服务名
	CascadeService = "article.cascade"
	// EvictService 标签、子分类删除后清理文章缓存
	EvictService = "article.evict"
)

// ArticleModule 文章模块
type ArticleModule struct{}

func init() {
	registry.Register(&ArticleModule{})
}

func (m *ArticleModule) Name() string {
	return "article"
}

// Priority 在 tag、category、user 模块之前初始化
func (m *ArticleModule) Priority() int {
	return 10
}

func (m *ArticleModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewArticleRepository(ctx.DB, relation.NewMaintainer())
	svc := service.NewArticleService(repo, ctx.Cache, ctx.Uploader, ctx.Metrics)
	h := handler.NewArticleHandler(svc)

	// 2. 暴露给其他模块
	ctx.Provide(CascadeService, svc)
	ctx.Provide(EvictService, svc)

	// 3. 路由注册
	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.ArticleHandler) {
	auth := middleware.AuthMiddleware()
	admin := []gin.HandlerFunc{auth, middleware.AdminMiddleware()}

	// 点赞、评论按 IP 限流
	cfg := config.GlobalConfig.RateLimit
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		cfg = config.RateLimitConfig{RPS: 5, Burst: 10}
	}
	engagement := middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(rate.Limit(cfg.RPS), cfg.Burst))

	articleGroup := r.Group("/article")
	{
		articleGroup.GET("", h.List)
		articleGroup.POST("", auth, h.Create)
		articleGroup.DELETE("", append(admin, h.DeleteAll)...)
		articleGroup.GET("/top", h.Top)
		articleGroup.GET("/:slug", h.Get)
		articleGroup.PUT("/:slug", auth, h.Update)
		articleGroup.DELETE("/:slug", auth, h.Delete)
		articleGroup.GET("/:slug/picture", h.GetPicture)
		articleGroup.PATCH("/:slug/picture", auth, h.SetPicture)
		articleGroup.GET("/:slug/related", h.Related)
		articleGroup.POST("/:slug/comments", engagement, h.AddComment)
		articleGroup.PATCH("/:slug/like", engagement, h.Like)
		articleGroup.PATCH("/:slug/unlike", engagement, h.Unlike)
	}
}
