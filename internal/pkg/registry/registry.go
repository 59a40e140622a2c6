package registry

import (
	"fmt"
	"sort"
	"sync"

	"blog_cms/internal/pkg/uploader"
	"blog_cms/internal/pkg/worker"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB       *gorm.DB
	Cache    cache.CacheService
	Router   *gin.RouterGroup // /api/v1
	Uploader uploader.Uploader
	Mail     *worker.MailPool
	Metrics  *metrics.MetricsCollector

	mu       sync.RWMutex
	services map[string]interface{}
}

// Provide 暴露一个供其他模块使用的服务，例如 user 模块删除用户时需要的文章级联
func (ctx *ModuleContext) Provide(name string, svc interface{}) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.services == nil {
		ctx.services = make(map[string]interface{})
	}
	ctx.services[name] = svc
}

// Resolve 获取其他模块暴露的服务，提供方须具有更小的 Priority
func (ctx *ModuleContext) Resolve(name string) (interface{}, error) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	svc, ok := ctx.services[name]
	if !ok {
		return nil, fmt.Errorf("service %q not provided", name)
	}
	return svc, nil
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	// 例如：article 模块先于 user 模块初始化，user 删除需要文章级联
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// sorted 按优先级排序，优先级相同按名称
func sorted(modules map[string]Module) []Module {
	list := make([]Module, 0, len(modules))
	for _, m := range modules {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Priority() != list[j].Priority() {
			return list[i].Priority() < list[j].Priority()
		}
		return list[i].Name() < list[j].Name()
	})
	return list
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range sorted(moduleRegistry) {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}
	return nil
}
