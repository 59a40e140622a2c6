package model

import (
	"time"

	"blog_cms/pkg/model"
)

// Tag 标签
type Tag struct {
	model.BaseModel
	Name     string   `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	Slug     string   `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Articles []string `gorm:"-" json:"articles"`
}

type ArticleSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}
