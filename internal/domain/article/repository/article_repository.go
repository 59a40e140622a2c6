package repository

import (
	"context"
	"time"

	"blog_cms/internal/domain/article/model"
	"blog_cms/internal/domain/relation"
	"blog_cms/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const articleEntity = "article"

// ArticleRepository 接口定义
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	List(ctx context.Context, order string, offset, limit int) ([]model.Article, int64, error)
	Update(ctx context.Context, article *model.Article, old relation.Refs) error
	Delete(ctx context.Context, article *model.Article) error
	DeleteByAuthor(tx *gorm.DB, userID string) ([]string, error)
	DeleteAll(ctx context.Context) error
	ToggleReaction(ctx context.Context, articleID, requester, kind string) (*model.Reactions, bool, error)
	AddComment(ctx context.Context, comment *model.Comment) error
	Top(ctx context.Context, n int) ([]model.Article, error)
	Related(ctx context.Context, article *model.Article, limit int) ([]model.Article, error)
	SetPicture(ctx context.Context, articleID, key string) error
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
}

type articleRepository struct {
	db        *gorm.DB
	relations *relation.Maintainer
}

// NewArticleRepository 创建新的仓库实例
func NewArticleRepository(db *gorm.DB, relations *relation.Maintainer) ArticleRepository {
	return &articleRepository{db: db, relations: relations}
}

// RefsOf 文章当前的正向引用
func RefsOf(a *model.Article) relation.Refs {
	return relation.Refs{
		ArticleID:     a.ID,
		CategoryID:    a.CategoryID,
		SubCategoryID: a.SubCategoryID,
		TagIDs:        a.Tags,
		UserID:        a.UserID,
	}
}

// Create 在一个事务中写入文章并建立全部反向引用
// category/user 不存在时整个操作失败，不存在的标签不会写入文章
func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := r.relations.Resolve(tx, RefsOf(article))
		if err != nil {
			return err
		}
		article.Tags = resolved.TagIDs
		if article.Tags == nil {
			article.Tags = []string{}
		}

		if err := tx.Omit(clause.Associations).Create(article).Error; err != nil {
			return errs.FromDB(err, articleEntity, article.Slug)
		}
		return r.relations.Attach(tx, RefsOf(article))
	})
	if err != nil {
		return err
	}
	article.Comments = []model.Comment{}
	article.Likers = []string{}
	article.Unlikers = []string{}
	return nil
}

func (r *articleRepository) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var article model.Article
	db := r.db.WithContext(ctx)
	err := db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at, id")
	}).Where("slug = ?", slug).First(&article).Error
	if err != nil {
		return nil, errs.FromDB(err, articleEntity, slug)
	}

	list := []model.Article{article}
	if err := fillReactions(db, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List 文章列表，不包含评论
func (r *articleRepository) List(ctx context.Context, order string, offset, limit int) ([]model.Article, int64, error) {
	var total int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Article{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	articles := []model.Article{}
	query := db.Order(order)
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&articles).Error; err != nil {
		return nil, 0, err
	}
	return articles, total, fillReactions(db, articles)
}

// fillReactions 批量填充 likers/unlikers，按加入时间排序
func fillReactions(db *gorm.DB, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}
	index := make(map[string]int, len(articles))
	ids := make([]string, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
		index[articles[i].ID] = i
		articles[i].Likers = []string{}
		articles[i].Unlikers = []string{}
		if articles[i].Tags == nil {
			articles[i].Tags = []string{}
		}
		if articles[i].Comments == nil {
			articles[i].Comments = []model.Comment{}
		}
	}

	var reactions []model.Reaction
	if err := db.Where("article_id IN ?", ids).Order("created_at, requester").Find(&reactions).Error; err != nil {
		return err
	}
	for _, re := range reactions {
		a := &articles[index[re.ArticleID]]
		if re.Kind == model.KindLike {
			a.Likers = append(a.Likers, re.Requester)
		} else {
			a.Unlikers = append(a.Unlikers, re.Requester)
		}
	}
	return nil
}

// Update 保存文章字段并把反向引用从 old 迁移到文章的新引用
func (r *articleRepository) Update(ctx context.Context, article *model.Article, old relation.Refs) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := r.relations.Resolve(tx, RefsOf(article))
		if err != nil {
			return err
		}
		article.Tags = resolved.TagIDs
		if article.Tags == nil {
			article.Tags = []string{}
		}

		err = tx.Model(article).
			Select("title", "slug", "body", "category_id", "sub_category_id", "tags", "updated_at").
			Updates(article).Error
		if err != nil {
			return errs.FromDB(err, articleEntity, article.Slug)
		}
		return r.relations.Retarget(tx, old, RefsOf(article))
	})
}

// Delete 在一个事务中删除点赞、评论、文章本身及全部反向引用
func (r *articleRepository) Delete(ctx context.Context, article *model.Article) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.deleteTx(tx, []string{article.ID})
	})
}

// DeleteByAuthor 删除作者的全部文章，使用调用方的事务，返回被删除文章的 slug
func (r *articleRepository) DeleteByAuthor(tx *gorm.DB, userID string) ([]string, error) {
	var rows []struct {
		ID   string
		Slug string
	}
	if err := tx.Model(&model.Article{}).Where("user_id = ?", userID).Select("id", "slug").Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	slugs := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		slugs[i] = row.Slug
	}
	if err := r.deleteTx(tx, ids); err != nil {
		return nil, err
	}
	return slugs, nil
}

func (r *articleRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Article{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		return r.deleteTx(tx, ids)
	})
}

func (r *articleRepository) deleteTx(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("article_id IN ?", ids).Delete(&model.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Where("article_id IN ?", ids).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.relations.DetachArticle(tx, id); err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&model.Article{}).Error
}

// ToggleReaction 切换 requester 对文章的点赞/点踩
//
// 已存在同类记录则删除（取消），否则插入或把另一类改为当前类（互斥）。
// 点赞数由 COUNT 子查询重新计算，不做读-改-写。
// 第一条语句锁住文章行，同一篇文章的并发切换按顺序执行。
func (r *articleRepository) ToggleReaction(ctx context.Context, articleID, requester, kind string) (*model.Reactions, bool, error) {
	var (
		result model.Reactions
		active bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lock := tx.Model(&model.Article{}).Where("id = ?", articleID).
			UpdateColumn("number_of_likes", gorm.Expr("number_of_likes"))
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return errs.NotFound(articleEntity, "article %s not found", articleID)
		}

		removed := tx.Where("article_id = ? AND requester = ? AND kind = ?", articleID, requester, kind).
			Delete(&model.Reaction{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected == 0 {
			active = true
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "article_id"}, {Name: "requester"}},
				DoUpdates: clause.AssignmentColumns([]string{"kind", "created_at"}),
			}).Create(&model.Reaction{
				ArticleID: articleID,
				Requester: requester,
				Kind:      kind,
				CreatedAt: time.Now(),
			}).Error
			if err != nil {
				return err
			}
		}

		likes := tx.Model(&model.Reaction{}).Select("COUNT(*)").
			Where("article_id = ? AND kind = ?", articleID, model.KindLike)
		if err := tx.Model(&model.Article{}).Where("id = ?", articleID).
			UpdateColumn("number_of_likes", likes).Error; err != nil {
			return err
		}

		list := make([]model.Article, 1)
		list[0].ID = articleID
		if err := fillReactions(tx, list); err != nil {
			return err
		}
		result.Likers = list[0].Likers
		result.Unlikers = list[0].Unlikers
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	result.NumberOfLikes = len(result.Likers)
	return &result, active, nil
}

func (r *articleRepository) AddComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// Top 按点赞数倒序
func (r *articleRepository) Top(ctx context.Context, n int) ([]model.Article, error) {
	articles := []model.Article{}
	db := r.db.WithContext(ctx)
	if err := db.Order("number_of_likes desc, created_at desc, id").Limit(n).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, fillReactions(db, articles)
}

// Related 同一分类下的其他文章
func (r *articleRepository) Related(ctx context.Context, article *model.Article, limit int) ([]model.Article, error) {
	articles := []model.Article{}
	db := r.db.WithContext(ctx)
	err := db.Where("category_id = ? AND id <> ?", article.CategoryID, article.ID).
		Order("created_at desc, id").Limit(limit).Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, fillReactions(db, articles)
}

func (r *articleRepository) SetPicture(ctx context.Context, articleID, key string) error {
	res := r.db.WithContext(ctx).Model(&model.Article{}).Where("id = ?", articleID).
		Updates(map[string]interface{}{"picture": key, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(articleEntity, "article %s not found", articleID)
	}
	return nil
}

func (r *articleRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Article{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}
