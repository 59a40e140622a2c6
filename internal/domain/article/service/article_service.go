package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"blog_cms/internal/domain/article/model"
	"blog_cms/internal/domain/article/repository"
	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/metrics"
	"blog_cms/pkg/security"
	"blog_cms/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 缓存键常量
const (
	ArticleCacheKeyPrefix = "article:"
	ArticleCacheTTL       = 10 * time.Minute

	articleEntity   = "article"
	maxTitleLength  = 160
	DefaultTopLimit = 5
	MaxTopLimit     = 50
	relatedLimit    = 3
)

// CreateInput 创建文章
type CreateInput struct {
	Title       string
	Body        string
	Category    string
	SubCategory *string
	Tags        []string
}

// UpdateInput 更新文章，nil 字段保持不变
//
// SubCategory 为 nil 时保持原值；若分类发生变化则清空。空字符串表示清空。
type UpdateInput struct {
	Title       *string
	Body        *string
	Category    *string
	SubCategory *string
	Tags        *[]string
}

// ArticleService 文章服务接口
type ArticleService interface {
	Create(ctx context.Context, p *security.Principal, in CreateInput) (*model.Article, error)
	Get(ctx context.Context, slug string) (*model.Article, error)
	List(ctx context.Context, page utils.Pagination) (*utils.PageResult, error)
	Update(ctx context.Context, p *security.Principal, slug string, in UpdateInput) (*model.Article, error)
	Delete(ctx context.Context, p *security.Principal, slug string) error
	DeleteAll(ctx context.Context) error
	ToggleLike(ctx context.Context, slug, requester string) (*model.Reactions, error)
	ToggleUnlike(ctx context.Context, slug, requester string) (*model.Reactions, error)
	AddComment(ctx context.Context, slug, name, text string) (*model.Comment, error)
	Top(ctx context.Context, n int) ([]model.Article, error)
	Related(ctx context.Context, slug string) ([]model.Article, error)
	SetPicture(ctx context.Context, p *security.Principal, slug string, file *multipart.FileHeader) (*model.Article, error)
	OpenPicture(ctx context.Context, slug string) (io.ReadCloser, string, error)

	// DeleteByAuthor 和 Evict 供删除用户时级联使用
	DeleteByAuthor(tx *gorm.DB, userID string) ([]string, error)
	Evict(ctx context.Context, slugs []string)
}

type articleService struct {
	repo     repository.ArticleRepository
	cache    cache.CacheService
	uploader uploader.Uploader
	metrics  *metrics.MetricsCollector
}

// NewArticleService 创建带缓存的文章服务
func NewArticleService(repo repository.ArticleRepository, cache cache.CacheService, up uploader.Uploader, m *metrics.MetricsCollector) ArticleService {
	return &articleService{
		repo:     repo,
		cache:    cache,
		uploader: up,
		metrics:  m,
	}
}

func (s *articleService) cacheKey(slug string) string {
	return fmt.Sprintf("%s%s", ArticleCacheKeyPrefix, slug)
}

// Evict 删除文章缓存，失败只记录日志
func (s *articleService) Evict(ctx context.Context, slugs []string) {
	if len(slugs) == 0 {
		return
	}
	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = s.cacheKey(slug)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Failed to invalidate article cache", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

// prepareTitle 校验标题并生成唯一 slug
func (s *articleService) prepareTitle(ctx context.Context, title, excludeID string) (string, string, error) {
	title, err := utils.NormalizeName(articleEntity, title, 1, maxTitleLength)
	if err != nil {
		return "", "", err
	}
	slug, err := utils.SlugFor(articleEntity, title)
	if err != nil {
		return "", "", err
	}
	taken, err := s.repo.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", errs.Conflict(articleEntity, "article with slug %q already exists", slug)
	}
	return title, slug, nil
}

func normalizeSubCategory(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

func (s *articleService) Create(ctx context.Context, p *security.Principal, in CreateInput) (*model.Article, error) {
	if p == nil {
		return nil, errs.Unauthorized("authentication required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, errs.Validation("category", "category is required")
	}
	title, slug, err := s.prepareTitle(ctx, in.Title, "")
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:         title,
		Slug:          slug,
		Body:          in.Body,
		CategoryID:    strings.TrimSpace(in.Category),
		SubCategoryID: normalizeSubCategory(in.SubCategory),
		Tags:          in.Tags,
		UserID:        p.UserID,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	s.metrics.RecordArticleOp("create")
	logger.Log.Info("Article created", zap.String("slug", article.Slug), zap.String("user", p.UserID))
	return article, nil
}

// Get 按 slug 读取文章，优先读缓存
func (s *articleService) Get(ctx context.Context, slug string) (*model.Article, error) {
	var article model.Article
	err := s.cache.Get(ctx, s.cacheKey(slug), &article)
	if err == nil {
		s.metrics.RecordCacheLookup(ArticleCacheKeyPrefix, true)
		return &article, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("Article cache read failed", zap.String("slug", slug), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(ArticleCacheKeyPrefix, false)

	found, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.cacheKey(slug), found, ArticleCacheTTL); err != nil {
		logger.Log.Warn("Article cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	return found, nil
}

func (s *articleService) List(ctx context.Context, page utils.Pagination) (*utils.PageResult, error) {
	offset, limit := page.GetPageOffset()
	articles, total, err := s.repo.List(ctx, page.OrderBy(), offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{
		List:  articles,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	}, nil
}

// Update 作者或管理员可修改；分类、子分类、标签变化时迁移反向引用
func (s *articleService) Update(ctx context.Context, p *security.Principal, slug string, in UpdateInput) (*model.Article, error) {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := security.CheckResourceOwnership(p, article); err != nil {
		return nil, err
	}
	old := repository.RefsOf(article)
	oldSlug := article.Slug

	if in.Title != nil {
		article.Title, article.Slug, err = s.prepareTitle(ctx, *in.Title, article.ID)
		if err != nil {
			return nil, err
		}
	}
	if in.Body != nil {
		article.Body = *in.Body
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return nil, errs.Validation("category", "category is required")
		}
		if category != article.CategoryID && in.SubCategory == nil {
			article.SubCategoryID = nil
		}
		article.CategoryID = category
	}
	if in.SubCategory != nil {
		article.SubCategoryID = normalizeSubCategory(in.SubCategory)
	}
	if in.Tags != nil {
		article.Tags = *in.Tags
	}

	if err := s.repo.Update(ctx, article, old); err != nil {
		return nil, err
	}
	s.Evict(ctx, []string{oldSlug, article.Slug})
	s.metrics.RecordArticleOp("update")
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, p *security.Principal, slug string) error {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := security.CheckResourceOwnership(p, article); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, article); err != nil {
		return err
	}
	s.Evict(ctx, []string{slug})
	s.metrics.RecordArticleOp("delete")
	logger.Log.Info("Article deleted", zap.String("slug", slug), zap.String("by", p.UserID))
	return nil
}

func (s *articleService) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.cache.InvalidatePattern(ctx, ArticleCacheKeyPrefix+"*"); err != nil {
		logger.Log.Warn("Failed to invalidate article cache", zap.Error(err))
	}
	s.metrics.RecordArticleOp("delete_all")
	return nil
}

func (s *articleService) DeleteByAuthor(tx *gorm.DB, userID string) ([]string, error) {
	slugs, err := s.repo.DeleteByAuthor(tx, userID)
	if err != nil {
		return nil, err
	}
	for range slugs {
		s.metrics.RecordArticleOp("delete")
	}
	return slugs, nil
}

func (s *articleService) ToggleLike(ctx context.Context, slug, requester string) (*model.Reactions, error) {
	return s.toggle(ctx, slug, requester, model.KindLike)
}

func (s *articleService) ToggleUnlike(ctx context.Context, slug, requester string) (*model.Reactions, error) {
	return s.toggle(ctx, slug, requester, model.KindUnlike)
}

func (s *articleService) toggle(ctx context.Context, slug, requester, kind string) (*model.Reactions, error) {
	if requester == "" {
		return nil, errs.Validation("requester", "requester address is unknown")
	}
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	reactions, active, err := s.repo.ToggleReaction(ctx, article.ID, requester, kind)
	if err != nil {
		return nil, err
	}
	s.Evict(ctx, []string{slug})
	s.metrics.RecordReaction(kind, active)
	return reactions, nil
}

// AddComment 追加评论，name 与 text 必填
func (s *articleService) AddComment(ctx context.Context, slug, name, text string) (*model.Comment, error) {
	name, err := security.Check(security.CommentNameRule, "name", name)
	if err != nil {
		return nil, err
	}
	text, err = security.Check(security.CommentTextRule, "text", text)
	if err != nil {
		return nil, err
	}

	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	comment := &model.Comment{ArticleID: article.ID, Name: name, Text: text}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	s.Evict(ctx, []string{slug})
	return comment, nil
}

func (s *articleService) Top(ctx context.Context, n int) ([]model.Article, error) {
	if n <= 0 {
		n = DefaultTopLimit
	}
	if n > MaxTopLimit {
		n = MaxTopLimit
	}
	return s.repo.Top(ctx, n)
}

func (s *articleService) Related(ctx context.Context, slug string) ([]model.Article, error) {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Related(ctx, article, relatedLimit)
}

// SetPicture 上传图片，仅保存对象 key
func (s *articleService) SetPicture(ctx context.Context, p *security.Principal, slug string, file *multipart.FileHeader) (*model.Article, error) {
	article, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := security.CheckResourceOwnership(p, article); err != nil {
		return nil, err
	}

	key, err := s.uploader.Upload(ctx, file)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPicture(ctx, article.ID, key); err != nil {
		return nil, err
	}
	article.Picture = key
	s.Evict(ctx, []string{slug})
	return article, nil
}

// OpenPicture 返回图片内容及其 Content-Type
func (s *articleService) OpenPicture(ctx context.Context, slug string) (io.ReadCloser, string, error) {
	article, err := s.Get(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	if article.Picture == "" {
		return nil, "", errs.NotFound("picture", "article %s has no picture", slug)
	}
	body, err := s.uploader.Open(ctx, article.Picture)
	if errors.Is(err, uploader.ErrObjectNotFound) {
		return nil, "", errs.NotFound("picture", "picture %s not found", article.Picture)
	}
	if err != nil {
		return nil, "", err
	}
	return body, uploader.ContentType(article.Picture), nil
}
