package user

import (
	"fmt"

	"blog_cms/internal/domain/relation"
	"blog_cms/internal/domain/user/handler"
	"blog_cms/internal/domain/user/repository"
	"blog_cms/internal/domain/user/service"
	"blog_cms/internal/pkg/config"
	"blog_cms/internal/pkg/registry"
)

// UserModule 用户与认证模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 删除用户需要 article 模块提供的级联服务，必须在其后初始化
	return 20
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	provided, err := ctx.Resolve("article.cascade")
	if err != nil {
		return err
	}
	cascade, ok := provided.(service.ArticleCascade)
	if !ok {
		return fmt.Errorf("article.cascade has unexpected type %T", provided)
	}

	userRepo := repository.NewUserRepository(ctx.DB, relation.NewMaintainer())
	userService := service.NewCachedUserService(
		service.NewUserService(userRepo, cascade, ctx.Uploader),
		userRepo, ctx.Cache, ctx.Metrics)
	authService := service.NewAuthService(userRepo, ctx.Mail,
		service.NewGoogleVerifier(config.GlobalConfig.Google.ClientID),
		config.GlobalConfig.App.ClientURL)

	// 2. 路由注册
	setupRoutes(ctx.Router, handler.NewUserHandler(userService), handler.NewAuthHandler(authService))
	return nil
}
