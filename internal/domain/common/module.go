package common

import (
	commonHandler "blog_cms/internal/pkg/common"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块：上传与健康检查
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return err
	}
	setupRoutes(ctx.Router, commonHandler.NewCommonHandler(ctx.Uploader, sqlDB))
	return nil
}

func setupRoutes(r *gin.RouterGroup, h *commonHandler.CommonHandler) {
	// 文件上传接口
	r.POST("/upload", middleware.AuthMiddleware(), h.UploadFile)
	r.GET("/health", h.Health)
}
