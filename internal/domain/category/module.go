package category

import (
	"fmt"

	"blog_cms/internal/domain/category/handler"
	"blog_cms/internal/domain/category/repository"
	"blog_cms/internal/domain/category/service"
	"blog_cms/internal/domain/relation"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/internal/pkg/registry"
	"blog_cms/pkg/security"

	"github.com/gin-gonic/gin"
)

// CategoryModule 分类与子分类模块
type CategoryModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&CategoryModule{})
}

func (m *CategoryModule) Name() string {
	return "category"
}

// Priority 删除子分类需要清理文章缓存，在 article 模块之后初始化
func (m *CategoryModule) Priority() int {
	return 15
}

func (m *CategoryModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	provided, err := ctx.Resolve("article.evict")
	if err != nil {
		return err
	}
	articles, ok := provided.(service.ArticleEvictor)
	if !ok {
		return fmt.Errorf("article.evict has unexpected type %T", provided)
	}

	relations := relation.NewMaintainer()
	categoryHandler := handler.NewCategoryHandler(
		service.NewCategoryService(repository.NewCategoryRepository(ctx.DB, relations)))
	subCategoryHandler := handler.NewSubCategoryHandler(
		service.NewSubCategoryService(repository.NewSubCategoryRepository(ctx.DB, relations), articles))

	// 2. 路由注册
	setupRoutes(ctx.Router, categoryHandler, subCategoryHandler)
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *handler.CategoryHandler, sh *handler.SubCategoryHandler) {
	admin := []gin.HandlerFunc{middleware.AuthMiddleware(), middleware.AdminMiddleware()}
	editor := []gin.HandlerFunc{middleware.AuthMiddleware(), middleware.AuthorizeRoles(security.RoleAdmin, security.RoleModerator)}

	categoryGroup := r.Group("/category")
	{
		categoryGroup.GET("", h.List)
		categoryGroup.POST("", append(admin, h.Create)...)
		categoryGroup.DELETE("", append(admin, h.DeleteAll)...)
		categoryGroup.GET("/:slug", h.Get)
		categoryGroup.PUT("/:slug", append(editor, h.Update)...)
		categoryGroup.DELETE("/:slug", append(admin, h.Delete)...)
		categoryGroup.GET("/:slug/articles", h.Articles)
		categoryGroup.GET("/:slug/sub-categories", h.SubCategories)
	}

	subGroup := r.Group("/sub-category")
	{
		subGroup.GET("", sh.List)
		subGroup.POST("", append(admin, sh.Create)...)
		subGroup.DELETE("", append(admin, sh.DeleteAll)...)
		subGroup.GET("/:slug", sh.Get)
		subGroup.PUT("/:slug", append(admin, sh.Update)...)
		subGroup.DELETE("/:slug", append(admin, sh.Delete)...)
		subGroup.GET("/:slug/articles", sh.Articles)
	}
}
