package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"blog_cms/internal/domain/user/model"
	"blog_cms/internal/domain/user/repository"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/metrics"
	"blog_cms/pkg/security"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = 30 * time.Minute
)

// CachedUserService 带缓存的用户服务
//
// 只缓存用户行本身，articles 列表每次从反向引用表读取，
// 文章的增删不需要清理用户缓存。
type CachedUserService struct {
	UserService
	repo    repository.UserRepository
	cache   cache.CacheService
	metrics *metrics.MetricsCollector
}

// NewCachedUserService 创建带缓存的用户服务
func NewCachedUserService(inner UserService, repo repository.UserRepository, c cache.CacheService, m *metrics.MetricsCollector) UserService {
	return &CachedUserService{
		UserService: inner,
		repo:        repo,
		cache:       c,
		metrics:     m,
	}
}

// getUserCacheKey 获取用户缓存键
func (s *CachedUserService) getUserCacheKey(slug string) string {
	return fmt.Sprintf("%s%s", UserCacheKeyPrefix, slug)
}

// invalidate 清除用户缓存，失败只记录日志
func (s *CachedUserService) invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		keys = append(keys, s.getUserCacheKey(slug))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Failed to invalidate user cache", zap.Strings("slugs", slugs), zap.Error(err))
	}
}

// Get 先读缓存，命中后仍做权限检查并刷新 articles
func (s *CachedUserService) Get(ctx context.Context, p *security.Principal, slug string) (*model.User, error) {
	var cached model.User
	err := s.cache.Get(ctx, s.getUserCacheKey(slug), &cached)
	if err == nil {
		s.metrics.RecordCacheLookup(UserCacheKeyPrefix, true)
		if err := security.CheckResourceOwnership(p, &cached); err != nil {
			return nil, err
		}
		ids, err := s.repo.ArticleIDs(ctx, cached.ID)
		if err != nil {
			return nil, err
		}
		cached.Articles = ids
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("User cache read failed", zap.String("slug", slug), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(UserCacheKeyPrefix, false)

	user, err := s.UserService.Get(ctx, p, slug)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, s.getUserCacheKey(slug), user, UserCacheTTL); err != nil {
		logger.Log.Warn("User cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	return user, nil
}

func (s *CachedUserService) Update(ctx context.Context, p *security.Principal, slug string, in UpdateUserInput) (*model.User, error) {
	user, err := s.UserService.Update(ctx, p, slug, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, slug, user.Slug)
	return user, nil
}

func (s *CachedUserService) Delete(ctx context.Context, p *security.Principal, slug string) error {
	if err := s.UserService.Delete(ctx, p, slug); err != nil {
		return err
	}
	s.invalidate(ctx, slug)
	return nil
}

func (s *CachedUserService) DeleteAll(ctx context.Context) error {
	if err := s.UserService.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.cache.InvalidatePattern(ctx, UserCacheKeyPrefix+"*"); err != nil {
		logger.Log.Warn("Failed to invalidate user cache", zap.Error(err))
	}
	return nil
}

func (s *CachedUserService) SetRole(ctx context.Context, slug, role string) (*model.User, error) {
	user, err := s.UserService.SetRole(ctx, slug, role)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, slug)
	return user, nil
}

func (s *CachedUserService) SetPicture(ctx context.Context, p *security.Principal, slug string, file *multipart.FileHeader) (*model.User, error) {
	user, err := s.UserService.SetPicture(ctx, p, slug, file)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, slug)
	return user, nil
}
