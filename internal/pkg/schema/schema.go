// Package schema 汇总所有持久化模型；生产环境使用 migrations/ 下的 SQL，
// 开发环境 (sqlite) 和测试使用 AutoMigrate
package schema

import (
	articleModel "blog_cms/internal/domain/article/model"
	categoryModel "blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	tagModel "blog_cms/internal/domain/tag/model"
	userModel "blog_cms/internal/domain/user/model"

	"gorm.io/gorm"
)

// Models 返回全部实体模型
func Models() []interface{} {
	return []interface{}{
		&userModel.User{},
		&categoryModel.Category{},
		&categoryModel.SubCategory{},
		&tagModel.Tag{},
		&articleModel.Article{},
		&articleModel.Comment{},
		&articleModel.Reaction{},
	}
}

// AutoMigrate 创建实体表与反向引用表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return relation.Migrate(db)
}
