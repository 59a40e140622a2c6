package main

import (
	"context"
	"flag"
	"log"
	"time"

	"blog_cms/internal/domain/relation"
	"blog_cms/internal/pkg/config"
	"blog_cms/pkg/database"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/metrics"

	"go.uber.org/zap"
)

// reconcile 以文章上的正向引用为准修复反向引用表，可由 cron 定期执行
func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	config.LoadConfig()
	cfg := config.GlobalConfig
	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db := database.InitDatabase()
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reports, err := relation.NewMaintainer().Reconcile(ctx, db)
	if err != nil {
		logger.Log.Fatal("reconcile failed", zap.Error(err))
	}

	collector := metrics.GetGlobalCollector()
	total := 0
	for _, r := range reports {
		collector.RecordReconcile(r.Table, r.Added, r.Removed)
		total += r.Added + r.Removed
		logger.Log.Info("back-references reconciled",
			zap.String("table", r.Table), zap.Int("added", r.Added), zap.Int("removed", r.Removed))
	}
	logger.Log.Info("reconcile finished", zap.Int("repairs", total))
}
