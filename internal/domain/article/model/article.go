package model

import (
	"time"

	"blog_cms/pkg/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	KindLike   = "like"
	KindUnlike = "unlike"
)

// Article 文章
// Category/SubCategory/Tags/UserID 为正向引用，反向引用由 relation 包维护
type Article struct {
	model.BaseModel
	Title         string    `gorm:"type:varchar(160);not null" json:"title"`
	Slug          string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	Body          string    `gorm:"type:text" json:"body"`
	CategoryID    string    `gorm:"type:varchar(36);index;not null" json:"category"`
	SubCategoryID *string   `gorm:"type:varchar(36);index" json:"subCategory"`
	Tags          []string  `gorm:"type:text;serializer:json" json:"tags"`
	UserID        string    `gorm:"type:varchar(36);index;not null" json:"user"`
	Comments      []Comment `gorm:"foreignKey:ArticleID" json:"comments"`
	Likers        []string  `gorm:"-" json:"likers"`
	Unlikers      []string  `gorm:"-" json:"unlikers"`
	NumberOfLikes int       `gorm:"not null;default:0;index" json:"numberOfLikes"`
	Picture       string    `json:"picture,omitempty"`
}

// GetOwnerID 文章的所有者是作者
func (a *Article) GetOwnerID() string {
	return a.UserID
}

// Comment 文章评论
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ArticleID string    `gorm:"type:varchar(36);index;not null" json:"-"`
	Name      string    `gorm:"type:varchar(64);not null" json:"name"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Reaction 点赞/点踩，(article_id, requester) 唯一，保证同一请求者只在一个集合中
type Reaction struct {
	ArticleID string    `gorm:"primaryKey;type:varchar(36)"`
	Requester string    `gorm:"primaryKey;type:varchar(64)"`
	Kind      string    `gorm:"type:varchar(8);not null;index"`
	CreatedAt time.Time `gorm:"index"`
}

func (Reaction) TableName() string {
	return "article_reactions"
}

// Reactions 切换后的点赞状态
type Reactions struct {
	Likers        []string `json:"likers"`
	Unlikers      []string `json:"unlikers"`
	NumberOfLikes int      `json:"numberOfLikes"`
}
