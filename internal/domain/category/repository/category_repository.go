package repository

import (
	"context"

	"blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	"blog_cms/pkg/errs"

	"gorm.io/gorm"
)

// CategoryRepository 接口定义
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context, order string) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, category *model.Category) error
	DeleteAll(ctx context.Context) error
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Articles(ctx context.Context, categoryID string) ([]model.ArticleSummary, error)
	SubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error)
}

type categoryRepository struct {
	db        *gorm.DB
	relations *relation.Maintainer
}

// NewCategoryRepository 创建新的仓库实例
func NewCategoryRepository(db *gorm.DB, relations *relation.Maintainer) CategoryRepository {
	return &categoryRepository{db: db, relations: relations}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return errs.FromDB(err, "category", category.Slug)
	}
	category.SubCategories = []string{}
	category.Articles = []string{}
	return nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, errs.FromDB(err, "category", slug)
	}
	list := []model.Category{category}
	if err := r.fill(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *categoryRepository) List(ctx context.Context, order string) ([]model.Category, error) {
	categories := []model.Category{}
	if err := r.db.WithContext(ctx).Order(order).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, r.fill(ctx, categories)
}

// fill 填充 subCategories 与 articles 反向引用
func (r *categoryRepository) fill(ctx context.Context, categories []model.Category) error {
	ids := make([]string, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}

	articles, err := r.relations.ArticleIDsByOwners(r.db.WithContext(ctx), relation.TableCategory, ids)
	if err != nil {
		return err
	}

	var subs []model.SubCategory
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("parent_category_id IN ?", ids).
			Order("created_at, id").Find(&subs).Error; err != nil {
			return err
		}
	}
	children := make(map[string][]string, len(ids))
	for _, sub := range subs {
		children[sub.ParentCategoryID] = append(children[sub.ParentCategoryID], sub.ID)
	}

	for i := range categories {
		categories[i].Articles = articles[categories[i].ID]
		categories[i].SubCategories = children[categories[i].ID]
		if categories[i].SubCategories == nil {
			categories[i].SubCategories = []string{}
		}
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	err := r.db.WithContext(ctx).Model(category).Select("name", "slug", "updated_at").Updates(category).Error
	return errs.FromDB(err, "category", category.Slug)
}

// Delete 删除分类及其子分类；仍被文章引用时拒绝删除
func (r *categoryRepository) Delete(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.deleteTx(tx, []string{category.ID})
	})
}

func (r *categoryRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Category{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		return r.deleteTx(tx, ids)
	})
}

func (r *categoryRepository) deleteTx(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var inUse int64
	if err := tx.Table("articles").Where("category_id IN ?", ids).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return errs.InUse("category", "category is still referenced by %d article(s)", inUse)
	}

	var subIDs []string
	if err := tx.Model(&model.SubCategory{}).Where("parent_category_id IN ?", ids).Pluck("id", &subIDs).Error; err != nil {
		return err
	}
	for _, id := range subIDs {
		if err := r.relations.DetachOwner(tx, relation.TableSubCategory, id); err != nil {
			return err
		}
	}
	if len(subIDs) > 0 {
		if err := tx.Where("id IN ?", subIDs).Delete(&model.SubCategory{}).Error; err != nil {
			return err
		}
	}

	for _, id := range ids {
		if err := r.relations.DetachOwner(tx, relation.TableCategory, id); err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&model.Category{}).Error
}

func (r *categoryRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *categoryRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("name = ? AND id <> ?", name, excludeID).Count(&n).Error
	return n > 0, err
}

// Articles 按加入顺序返回分类下的文章
func (r *categoryRepository) Articles(ctx context.Context, categoryID string) ([]model.ArticleSummary, error) {
	list := []model.ArticleSummary{}
	err := r.db.WithContext(ctx).Table("articles").
		Select("articles.id, articles.title, articles.slug, articles.created_at").
		Joins("JOIN "+relation.TableCategory+" ref ON ref.article_id = articles.id").
		Where("ref.owner_id = ?", categoryID).
		Order("ref.created_at, ref.article_id").
		Scan(&list).Error
	return list, err
}

func (r *categoryRepository) SubCategories(ctx context.Context, categoryID string) ([]model.SubCategory, error) {
	subs := []model.SubCategory{}
	if err := r.db.WithContext(ctx).Where("parent_category_id = ?", categoryID).
		Order("created_at, id").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, fillSubCategories(r.db.WithContext(ctx), r.relations, subs)
}
