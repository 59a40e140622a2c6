package repository

import (
	"context"
	"encoding/json"
	"strings"

	"blog_cms/internal/domain/relation"
	"blog_cms/internal/domain/tag/model"
	"blog_cms/pkg/errs"

	"gorm.io/gorm"
)

// TagRepository 接口定义
type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	GetBySlug(ctx context.Context, slug string) (*model.Tag, error)
	List(ctx context.Context, order string) ([]model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) error
	// Delete 和 DeleteAll 返回被修改过标签列表的文章 slug
	Delete(ctx context.Context, tag *model.Tag) ([]string, error)
	DeleteAll(ctx context.Context) ([]string, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Articles(ctx context.Context, tagID string) ([]model.ArticleSummary, error)
}

type tagRepository struct {
	db        *gorm.DB
	relations *relation.Maintainer
}

// NewTagRepository 创建新的仓库实例
func NewTagRepository(db *gorm.DB, relations *relation.Maintainer) TagRepository {
	return &tagRepository{db: db, relations: relations}
}

// articleTags 只读写文章的正向标签列表
type articleTags struct {
	ID   string
	Slug string
	Tags []string `gorm:"serializer:json"`
}

func (articleTags) TableName() string {
	return "articles"
}

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return errs.FromDB(err, "tag", tag.Slug)
	}
	tag.Articles = []string{}
	return nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	var tag model.Tag
	db := r.db.WithContext(ctx)
	if err := db.Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, errs.FromDB(err, "tag", slug)
	}
	ids, err := r.relations.ArticleIDs(db, relation.TableTag, tag.ID)
	if err != nil {
		return nil, err
	}
	tag.Articles = ids
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context, order string) ([]model.Tag, error) {
	tags := []model.Tag{}
	db := r.db.WithContext(ctx)
	if err := db.Order(order).Find(&tags).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(tags))
	for i := range tags {
		ids[i] = tags[i].ID
	}
	articles, err := r.relations.ArticleIDsByOwners(db, relation.TableTag, ids)
	if err != nil {
		return nil, err
	}
	for i := range tags {
		tags[i].Articles = articles[tags[i].ID]
	}
	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) error {
	err := r.db.WithContext(ctx).Model(tag).Select("name", "slug", "updated_at").Updates(tag).Error
	return errs.FromDB(err, "tag", tag.Slug)
}

// Delete 删除标签，同时从文章的标签列表中移除
func (r *tagRepository) Delete(ctx context.Context, tag *model.Tag) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		slugs, err = r.deleteTx(tx, []string{tag.ID})
		return err
	})
	return slugs, err
}

func (r *tagRepository) DeleteAll(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Tag{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		var err error
		slugs, err = r.deleteTx(tx, ids)
		return err
	})
	return slugs, err
}

// taggedArticles 按正向标签列表和反向引用表两处查找，反向引用缺行时也能找到
func taggedArticles(tx *gorm.DB, ids []string) ([]articleTags, error) {
	conds := []string{"id IN (SELECT article_id FROM " + relation.TableTag + " WHERE owner_id IN ?)"}
	args := []interface{}{ids}
	for _, id := range ids {
		conds = append(conds, "tags LIKE ?")
		args = append(args, `%"`+id+`"%`)
	}

	var rows []articleTags
	err := tx.Select("id, slug, tags").Where(strings.Join(conds, " OR "), args...).Find(&rows).Error
	return rows, err
}

func (r *tagRepository) deleteTx(tx *gorm.DB, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}

	rows, err := taggedArticles(tx, ids)
	if err != nil {
		return nil, err
	}
	var slugs []string
	for _, row := range rows {
		kept := make([]string, 0, len(row.Tags))
		for _, t := range row.Tags {
			if !removed[t] {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(row.Tags) {
			continue
		}
		encoded, err := json.Marshal(kept)
		if err != nil {
			return nil, err
		}
		if err := tx.Model(&articleTags{ID: row.ID}).UpdateColumn("tags", string(encoded)).Error; err != nil {
			return nil, err
		}
		slugs = append(slugs, row.Slug)
	}

	for _, id := range ids {
		if err := r.relations.DetachOwner(tx, relation.TableTag, id); err != nil {
			return nil, err
		}
	}
	return slugs, tx.Where("id IN ?", ids).Delete(&model.Tag{}).Error
}

func (r *tagRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Tag{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *tagRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Tag{}).Where("name = ? AND id <> ?", name, excludeID).Count(&n).Error
	return n > 0, err
}

// Articles 按加入顺序返回标签下的文章
func (r *tagRepository) Articles(ctx context.Context, tagID string) ([]model.ArticleSummary, error) {
	list := []model.ArticleSummary{}
	err := r.db.WithContext(ctx).Table("articles").
		Select("articles.id, articles.title, articles.slug, articles.created_at").
		Joins("JOIN "+relation.TableTag+" ref ON ref.article_id = articles.id").
		Where("ref.owner_id = ?", tagID).
		Order("ref.created_at, ref.article_id").
		Scan(&list).Error
	return list, err
}
