// Package testutil 测试辅助：基于临时 sqlite 文件的数据库
package testutil

import (
	"path/filepath"
	"testing"

	"blog_cms/internal/pkg/config"
	"blog_cms/internal/pkg/schema"
	"blog_cms/pkg/database"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 打开一个已迁移的 sqlite 数据库，测试结束时关闭
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "blog.db"),
	}, false)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db = db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})

	if err := schema.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
