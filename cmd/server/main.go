package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "blog_cms/internal/domain/article"
	_ "blog_cms/internal/domain/category"
	_ "blog_cms/internal/domain/common"
	_ "blog_cms/internal/domain/tag"
	_ "blog_cms/internal/domain/user"
	"blog_cms/internal/pkg/config"
	"blog_cms/internal/pkg/mailer"
	"blog_cms/internal/pkg/middleware"
	"blog_cms/internal/pkg/registry"
	"blog_cms/internal/pkg/schema"
	"blog_cms/internal/pkg/uploader"
	"blog_cms/internal/pkg/worker"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/database"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := config.GlobalConfig
	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// 2. 数据库
	db := database.InitDatabase()
	if cfg.Database.Driver == "sqlite" {
		// postgres 使用 cmd/migrate 执行 SQL 迁移
		if err := schema.AutoMigrate(db); err != nil {
			logger.Log.Fatal("auto migrate failed", zap.Error(err))
		}
	}

	// 3. 缓存
	var cacheService cache.CacheService
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(cfg.Redis)
		if err != nil {
			logger.Log.Fatal("redis init failed", zap.Error(err))
		}
		defer rdb.Close()
		cacheService = cache.NewRedisCache(rdb, cfg.App.Env)
		if cfg.Redis.LocalTTL > 0 {
			cacheService = cache.NewMultiLevelCache(cache.NewMemoryCache(), cacheService,
				time.Duration(cfg.Redis.LocalTTL)*time.Second)
		}
	} else {
		logger.Log.Warn("redis disabled, using in-process cache")
		cacheService = cache.NewMemoryCache()
	}

	// 4. 对象存储、邮件与指标
	collector := metrics.GetGlobalCollector()
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, db, "blog"); err != nil {
		logger.Log.Warn("pool metrics not registered", zap.Error(err))
	}

	up, err := uploader.New(cfg.OSS, "uploads")
	if err != nil {
		logger.Log.Fatal("uploader init failed", zap.Error(err))
	}

	m, err := mailer.New(cfg.Mail)
	if err != nil {
		logger.Log.Fatal("mailer init failed", zap.Error(err))
	}
	mailPool := worker.NewMailPool(m, cfg.Mail.Workers, cfg.Mail.QueueSize)
	mailPool.Metrics = collector
	mailPool.Start()

	// 5. HTTP 引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Log.Fatal("invalid trusted proxies", zap.Error(err))
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AddAllowHeaders("Authorization")

	r.Use(
		cors.New(corsConfig),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		gin.Recovery(),
		middleware.MetricsMiddleware(collector),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6. 模块初始化
	moduleCtx := &registry.ModuleContext{
		DB:       db,
		Cache:    cacheService,
		Router:   r.Group("/api/v1"),
		Uploader: up,
		Mail:     mailPool,
		Metrics:  collector,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("module init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}
	mailPool.Stop(ctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Log.Info("server exited")
}
