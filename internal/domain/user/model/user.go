package model

import (
	"time"

	"blog_cms/pkg/model"
	"blog_cms/pkg/security"
)

// User 用户模型
type User struct {
	model.BaseModel
	Username          string        `gorm:"type:varchar(32);not null" json:"username"`
	Email             string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password          string        `gorm:"not null" json:"-"` // 密码不返回给前端
	Slug              string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Role              security.Role `gorm:"type:varchar(16);not null;default:user" json:"role"`
	Picture           string        `json:"picture,omitempty"`
	ResetPasswordLink string        `json:"-"`
	Articles          []string      `gorm:"-" json:"articles"`
}

// GetOwnerID 用户资源的所有者是其本人
func (u *User) GetOwnerID() string {
	return u.ID
}

type ArticleSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}
