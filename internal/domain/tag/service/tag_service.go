package service

import (
	"context"

	"blog_cms/internal/domain/tag/model"
	"blog_cms/internal/domain/tag/repository"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/utils"
)

const (
	tagEntity     = "tag"
	maxNameLength = 32
)

// TagService 标签服务接口
type TagService interface {
	Create(ctx context.Context, name string) (*model.Tag, error)
	Get(ctx context.Context, slug string) (*model.Tag, error)
	List(ctx context.Context, sort string) ([]model.Tag, error)
	Update(ctx context.Context, slug, name string) (*model.Tag, error)
	Delete(ctx context.Context, slug string) error
	DeleteAll(ctx context.Context) error
	Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error)
}

// ArticleEvictor 删除文章缓存，由 article 模块提供
type ArticleEvictor interface {
	Evict(ctx context.Context, slugs []string)
}

type tagService struct {
	repo     repository.TagRepository
	articles ArticleEvictor
}

// NewTagService articles 为 nil 时不清理文章缓存
func NewTagService(repo repository.TagRepository, articles ArticleEvictor) TagService {
	return &tagService{repo: repo, articles: articles}
}

func (s *tagService) evict(ctx context.Context, slugs []string) {
	if s.articles != nil && len(slugs) > 0 {
		s.articles.Evict(ctx, slugs)
	}
}

func (s *tagService) prepare(ctx context.Context, name, excludeID string) (string, string, error) {
	name, err := utils.NormalizeName(tagEntity, name, 1, maxNameLength)
	if err != nil {
		return "", "", err
	}
	slug, err := utils.SlugFor(tagEntity, name)
	if err != nil {
		return "", "", err
	}

	if taken, err := s.repo.SlugTaken(ctx, slug, excludeID); err != nil {
		return "", "", err
	} else if taken {
		return "", "", errs.Conflict(tagEntity, "tag with slug %q already exists", slug)
	}
	if taken, err := s.repo.NameTaken(ctx, name, excludeID); err != nil {
		return "", "", err
	} else if taken {
		return "", "", errs.Conflict(tagEntity, "tag %q already exists", name)
	}
	return name, slug, nil
}

func (s *tagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	name, slug, err := s.prepare(ctx, name, "")
	if err != nil {
		return nil, err
	}
	tag := &model.Tag{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *tagService) Get(ctx context.Context, slug string) (*model.Tag, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *tagService) List(ctx context.Context, sort string) ([]model.Tag, error) {
	p := utils.Pagination{Sort: sort}
	return s.repo.List(ctx, p.OrderBy())
}

func (s *tagService) Update(ctx context.Context, slug, name string) (*model.Tag, error) {
	tag, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	tag.Name, tag.Slug, err = s.prepare(ctx, name, tag.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete 删除标签；引用它的文章只移除该标签，不受其他影响
func (s *tagService) Delete(ctx context.Context, slug string) error {
	tag, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	slugs, err := s.repo.Delete(ctx, tag)
	if err != nil {
		return err
	}
	s.evict(ctx, slugs)
	return nil
}

func (s *tagService) DeleteAll(ctx context.Context) error {
	slugs, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return err
	}
	s.evict(ctx, slugs)
	return nil
}

func (s *tagService) Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error) {
	tag, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Articles(ctx, tag.ID)
}
