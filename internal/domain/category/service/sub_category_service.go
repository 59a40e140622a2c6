package service

import (
	"context"

	"blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/category/repository"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/utils"
)

// SubCategoryInput 创建/更新子分类的输入
type SubCategoryInput struct {
	Name           string
	ParentCategory string // 父分类 id，更新时为空表示不变
}

// SubCategoryService 子分类服务接口
type SubCategoryService interface {
	Create(ctx context.Context, in SubCategoryInput) (*model.SubCategory, error)
	Get(ctx context.Context, slug string) (*model.SubCategory, error)
	List(ctx context.Context, sort string) ([]model.SubCategory, error)
	Update(ctx context.Context, slug string, in SubCategoryInput) (*model.SubCategory, error)
	Delete(ctx context.Context, slug string) error
	DeleteAll(ctx context.Context) error
	Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error)
}

// ArticleEvictor 删除文章缓存，由 article 模块提供
type ArticleEvictor interface {
	Evict(ctx context.Context, slugs []string)
}

type subCategoryService struct {
	repo     repository.SubCategoryRepository
	articles ArticleEvictor
}

func NewSubCategoryService(repo repository.SubCategoryRepository, articles ArticleEvictor) SubCategoryService {
	return &subCategoryService{repo: repo, articles: articles}
}

// evict 被删除子分类的文章缓存已过期
func (s *subCategoryService) evict(ctx context.Context, slugs []string) {
	if s.articles != nil && len(slugs) > 0 {
		s.articles.Evict(ctx, slugs)
	}
}

func (s *subCategoryService) prepare(ctx context.Context, name, excludeID string) (string, string, error) {
	name, err := utils.NormalizeName(subCategoryEntity, name, 2, maxNameLength)
	if err != nil {
		return "", "", err
	}
	slug, err := utils.SlugFor(subCategoryEntity, name)
	if err != nil {
		return "", "", err
	}
	taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", errs.Conflict(subCategoryEntity, "sub-category with slug %q already exists", slug)
	}
	return name, slug, nil
}

func (s *subCategoryService) checkParent(ctx context.Context, id string) error {
	if id == "" {
		return errs.Validation(subCategoryEntity, "parentCategory is required")
	}
	ok, err := s.repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound(categoryEntity, "category %s not found", id)
	}
	return nil
}

// Create 创建子分类，父分类必须存在
func (s *subCategoryService) Create(ctx context.Context, in SubCategoryInput) (*model.SubCategory, error) {
	if err := s.checkParent(ctx, in.ParentCategory); err != nil {
		return nil, err
	}
	name, slug, err := s.prepare(ctx, in.Name, "")
	if err != nil {
		return nil, err
	}
	sub := &model.SubCategory{Name: name, Slug: slug, ParentCategoryID: in.ParentCategory}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subCategoryService) Get(ctx context.Context, slug string) (*model.SubCategory, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *subCategoryService) List(ctx context.Context, sort string) ([]model.SubCategory, error) {
	p := utils.Pagination{Sort: sort}
	return s.repo.List(ctx, p.OrderBy())
}

// Update 重命名或移动到其他父分类；被文章引用的子分类不能更换父分类
func (s *subCategoryService) Update(ctx context.Context, slug string, in SubCategoryInput) (*model.SubCategory, error) {
	sub, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		sub.Name, sub.Slug, err = s.prepare(ctx, in.Name, sub.ID)
		if err != nil {
			return nil, err
		}
	}

	if in.ParentCategory != "" && in.ParentCategory != sub.ParentCategoryID {
		if err := s.checkParent(ctx, in.ParentCategory); err != nil {
			return nil, err
		}
		n, err := s.repo.CountArticles(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, errs.Validation(subCategoryEntity, "sub-category is used by %d article(s) and cannot change its parent", n)
		}
		sub.ParentCategoryID = in.ParentCategory
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subCategoryService) Delete(ctx context.Context, slug string) error {
	sub, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	slugs, err := s.repo.Delete(ctx, sub)
	if err != nil {
		return err
	}
	s.evict(ctx, slugs)
	return nil
}

func (s *subCategoryService) DeleteAll(ctx context.Context) error {
	slugs, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return err
	}
	s.evict(ctx, slugs)
	return nil
}

func (s *subCategoryService) Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error) {
	sub, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Articles(ctx, sub.ID)
}
