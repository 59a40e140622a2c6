package model

import (
	"time"

	"blog_cms/pkg/model"
)

// Category 文章分类
type Category struct {
	model.BaseModel
	Name          string   `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	Slug          string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	SubCategories []string `gorm:"-" json:"subCategories"`
	Articles      []string `gorm:"-" json:"articles"`
}

// SubCategory 子分类，必须属于一个父分类
type SubCategory struct {
	model.BaseModel
	Name             string   `gorm:"type:varchar(32);not null" json:"name"`
	Slug             string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	ParentCategoryID string   `gorm:"type:varchar(36);index;not null" json:"parentCategory"`
	Articles         []string `gorm:"-" json:"articles"`
}

// ArticleSummary 分类下的文章列表项
type ArticleSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}
