package repository

import (
	"context"

	"blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	"blog_cms/pkg/errs"

	"gorm.io/gorm"
)

// SubCategoryRepository 接口定义
type SubCategoryRepository interface {
	Create(ctx context.Context, sub *model.SubCategory) error
	GetBySlug(ctx context.Context, slug string) (*model.SubCategory, error)
	List(ctx context.Context, order string) ([]model.SubCategory, error)
	Update(ctx context.Context, sub *model.SubCategory) error
	// Delete 和 DeleteAll 返回被清空子分类的文章 slug
	Delete(ctx context.Context, sub *model.SubCategory) ([]string, error)
	DeleteAll(ctx context.Context) ([]string, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	CategoryExists(ctx context.Context, id string) (bool, error)
	CountArticles(ctx context.Context, subID string) (int64, error)
	Articles(ctx context.Context, subID string) ([]model.ArticleSummary, error)
}

type subCategoryRepository struct {
	db        *gorm.DB
	relations *relation.Maintainer
}

func NewSubCategoryRepository(db *gorm.DB, relations *relation.Maintainer) SubCategoryRepository {
	return &subCategoryRepository{db: db, relations: relations}
}

func (r *subCategoryRepository) Create(ctx context.Context, sub *model.SubCategory) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return errs.FromDB(err, "sub-category", sub.Slug)
	}
	sub.Articles = []string{}
	return nil
}

func (r *subCategoryRepository) GetBySlug(ctx context.Context, slug string) (*model.SubCategory, error) {
	var sub model.SubCategory
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&sub).Error; err != nil {
		return nil, errs.FromDB(err, "sub-category", slug)
	}
	list := []model.SubCategory{sub}
	if err := fillSubCategories(r.db.WithContext(ctx), r.relations, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *subCategoryRepository) List(ctx context.Context, order string) ([]model.SubCategory, error) {
	subs := []model.SubCategory{}
	if err := r.db.WithContext(ctx).Order(order).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, fillSubCategories(r.db.WithContext(ctx), r.relations, subs)
}

func fillSubCategories(db *gorm.DB, relations *relation.Maintainer, subs []model.SubCategory) error {
	ids := make([]string, len(subs))
	for i := range subs {
		ids[i] = subs[i].ID
	}
	articles, err := relations.ArticleIDsByOwners(db, relation.TableSubCategory, ids)
	if err != nil {
		return err
	}
	for i := range subs {
		subs[i].Articles = articles[subs[i].ID]
	}
	return nil
}

func (r *subCategoryRepository) Update(ctx context.Context, sub *model.SubCategory) error {
	err := r.db.WithContext(ctx).Model(sub).Select("name", "slug", "parent_category_id", "updated_at").Updates(sub).Error
	return errs.FromDB(err, "sub-category", sub.Slug)
}

// Delete 删除子分类：清空引用它的文章的 sub_category_id，并删除反向引用
func (r *subCategoryRepository) Delete(ctx context.Context, sub *model.SubCategory) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		slugs, err = r.deleteTx(tx, []string{sub.ID})
		return err
	})
	return slugs, err
}

func (r *subCategoryRepository) DeleteAll(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.SubCategory{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		var err error
		slugs, err = r.deleteTx(tx, ids)
		return err
	})
	return slugs, err
}

func (r *subCategoryRepository) deleteTx(tx *gorm.DB, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var slugs []string
	if err := tx.Table("articles").Where("sub_category_id IN ?", ids).Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	if err := tx.Table("articles").Where("sub_category_id IN ?", ids).
		UpdateColumn("sub_category_id", nil).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := r.relations.DetachOwner(tx, relation.TableSubCategory, id); err != nil {
			return nil, err
		}
	}
	return slugs, tx.Where("id IN ?", ids).Delete(&model.SubCategory{}).Error
}

func (r *subCategoryRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SubCategory{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *subCategoryRepository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *subCategoryRepository) CountArticles(ctx context.Context, subID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("articles").Where("sub_category_id = ?", subID).Count(&n).Error
	return n, err
}

func (r *subCategoryRepository) Articles(ctx context.Context, subID string) ([]model.ArticleSummary, error) {
	list := []model.ArticleSummary{}
	err := r.db.WithContext(ctx).Table("articles").
		Select("articles.id, articles.title, articles.slug, articles.created_at").
		Joins("JOIN "+relation.TableSubCategory+" ref ON ref.article_id = articles.id").
		Where("ref.owner_id = ?", subID).
		Order("ref.created_at, ref.article_id").
		Scan(&list).Error
	return list, err
}
