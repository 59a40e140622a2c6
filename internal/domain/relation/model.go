package relation

import (
	"time"

	"gorm.io/gorm"
)

// 反向引用表，每张表的主键为 (owner_id, article_id)
const (
	TableCategory    = "category_articles"
	TableSubCategory = "sub_category_articles"
	TableTag         = "tag_articles"
	TableUser        = "user_articles"
)

// Tables 全部反向引用表
var Tables = []string{TableCategory, TableSubCategory, TableTag, TableUser}

// BackRef 一条反向引用：owner（分类/子分类/标签/用户）包含 article
type BackRef struct {
	OwnerID   string    `gorm:"primaryKey;type:varchar(36)"`
	ArticleID string    `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time `gorm:"index"`
}

// Migrate 创建四张反向引用表
func Migrate(db *gorm.DB) error {
	for _, table := range Tables {
		if err := db.Table(table).AutoMigrate(&BackRef{}); err != nil {
			return err
		}
	}
	return nil
}
