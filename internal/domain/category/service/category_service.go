package service

import (
	"context"

	"blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/category/repository"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/utils"
)

const (
	categoryEntity    = "category"
	subCategoryEntity = "sub-category"
	maxNameLength     = 32
)

// CategoryService 分类服务接口
type CategoryService interface {
	Create(ctx context.Context, name string) (*model.Category, error)
	Get(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context, sort string) ([]model.Category, error)
	Update(ctx context.Context, slug, name string) (*model.Category, error)
	Delete(ctx context.Context, slug string) error
	DeleteAll(ctx context.Context) error
	Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error)
	SubCategories(ctx context.Context, slug string) ([]model.SubCategory, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// prepare 校验名称并生成 slug，检查名称与 slug 唯一
func (s *categoryService) prepare(ctx context.Context, name, excludeID string) (string, string, error) {
	name, err := utils.NormalizeName(categoryEntity, name, 1, maxNameLength)
	if err != nil {
		return "", "", err
	}
	slug, err := utils.SlugFor(categoryEntity, name)
	if err != nil {
		return "", "", err
	}

	taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", errs.Conflict(categoryEntity, "category with slug %q already exists", slug)
	}
	taken, err = s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", errs.Conflict(categoryEntity, "category %q already exists", name)
	}
	return name, slug, nil
}

func (s *categoryService) Create(ctx context.Context, name string) (*model.Category, error) {
	name, slug, err := s.prepare(ctx, name, "")
	if err != nil {
		return nil, err
	}
	category := &model.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, slug string) (*model.Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *categoryService) List(ctx context.Context, sort string) ([]model.Category, error) {
	p := utils.Pagination{Sort: sort}
	return s.repo.List(ctx, p.OrderBy())
}

// Update 重命名分类，slug 随名称重新生成
func (s *categoryService) Update(ctx context.Context, slug, name string) (*model.Category, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	category.Name, category.Slug, err = s.prepare(ctx, name, category.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, category)
}

func (s *categoryService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *categoryService) Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Articles(ctx, category.ID)
}

func (s *categoryService) SubCategories(ctx context.Context, slug string) ([]model.SubCategory, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.SubCategories(ctx, category.ID)
}
