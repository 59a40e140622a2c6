package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"blog_cms/internal/domain/user/model"
	"blog_cms/internal/domain/user/repository"
	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/logger"
	"blog_cms/pkg/security"
	"blog_cms/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userEntity = "user"

// ArticleCascade 删除用户时删除其文章，由 article 模块提供
type ArticleCascade interface {
	DeleteByAuthor(tx *gorm.DB, userID string) ([]string, error)
	Evict(ctx context.Context, slugs []string)
}

// CreateUserInput 管理员/版主创建用户
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput 更新用户资料，nil 字段保持不变
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

// UserService 用户服务接口
type UserService interface {
	Create(ctx context.Context, p *security.Principal, in CreateUserInput) (*model.User, error)
	Get(ctx context.Context, p *security.Principal, slug string) (*model.User, error)
	List(ctx context.Context, page utils.Pagination) (*utils.PageResult, error)
	Update(ctx context.Context, p *security.Principal, slug string, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, p *security.Principal, slug string) error
	DeleteAll(ctx context.Context) error
	SetRole(ctx context.Context, slug, role string) (*model.User, error)
	SetPicture(ctx context.Context, p *security.Principal, slug string, file *multipart.FileHeader) (*model.User, error)
	OpenPicture(ctx context.Context, slug string) (io.ReadCloser, string, error)
	Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error)
}

// userService 实现
type userService struct {
	repo     repository.UserRepository
	articles ArticleCascade
	uploader uploader.Uploader
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, articles ArticleCascade, up uploader.Uploader) UserService {
	return &userService{repo: repo, articles: articles, uploader: up}
}

// prepareIdentity 校验用户名与邮箱，生成 slug 并检查唯一性
func prepareIdentity(ctx context.Context, repo repository.UserRepository, username, email, excludeID string) (string, string, string, error) {
	username, err := security.Check(security.UsernameRule, "username", username)
	if err != nil {
		return "", "", "", err
	}
	email, err = security.Check(security.EmailRule, "email", email)
	if err != nil {
		return "", "", "", err
	}
	slug, err := utils.SlugFor(userEntity, username)
	if err != nil {
		return "", "", "", err
	}

	if taken, err := repo.EmailTaken(ctx, email, excludeID); err != nil {
		return "", "", "", err
	} else if taken {
		return "", "", "", errs.Conflict(userEntity, "email is taken")
	}
	if taken, err := repo.SlugTaken(ctx, slug, excludeID); err != nil {
		return "", "", "", err
	} else if taken {
		return "", "", "", errs.Conflict(userEntity, "username %q is taken", username)
	}
	return username, email, slug, nil
}

func hashPassword(password string) (string, error) {
	// 密码不做清理，原样参与哈希
	if err := security.PasswordRule.Validate("password", password); err != nil {
		return "", err
	}
	return utils.HashPassword(password)
}

func (s *userService) Create(ctx context.Context, p *security.Principal, in CreateUserInput) (*model.User, error) {
	role := security.RoleUser
	if in.Role != "" {
		r, ok := security.ParseRole(in.Role)
		if !ok {
			return nil, errs.Validation("role", "unknown role %q", in.Role)
		}
		role = r
	}
	// 只有管理员可以创建管理员
	if role == security.RoleAdmin && !p.IsAdmin() {
		return nil, errs.Forbidden("only admins can create admins")
	}

	username, email, slug, err := prepareIdentity(ctx, s.repo, in.Username, in.Email, "")
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, Email: email, Password: hash, Slug: slug, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get 本人或管理员可查看
func (s *userService) Get(ctx context.Context, p *security.Principal, slug string) (*model.User, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := security.CheckResourceOwnership(p, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List 获取用户列表（分页）
func (s *userService) List(ctx context.Context, page utils.Pagination) (*utils.PageResult, error) {
	offset, limit := page.GetPageOffset()
	users, total, err := s.repo.List(ctx, page.OrderBy(), offset, limit)
	if err != nil {
		return nil, err
	}
	return &utils.PageResult{List: users, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Update 更新用户名、邮箱或密码；用户名变化时 slug 随之变化
func (s *userService) Update(ctx context.Context, p *security.Principal, slug string, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := security.CheckResourceOwnership(p, user); err != nil {
		return nil, err
	}

	if in.Username != nil || in.Email != nil {
		username, email := user.Username, user.Email
		if in.Username != nil {
			username = *in.Username
		}
		if in.Email != nil {
			email = *in.Email
		}
		user.Username, user.Email, user.Slug, err = prepareIdentity(ctx, s.repo, username, email, user.ID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Delete 删除用户及其全部文章
func (s *userService) Delete(ctx context.Context, p *security.Principal, slug string) error {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := security.CheckResourceOwnership(p, user); err != nil {
		return err
	}

	var removed []string
	err = s.repo.Delete(ctx, user, func(tx *gorm.DB, userID string) error {
		slugs, err := s.articles.DeleteByAuthor(tx, userID)
		removed = append(removed, slugs...)
		return err
	})
	if err != nil {
		return err
	}
	s.articles.Evict(ctx, removed)
	logger.Log.Info("User deleted", zap.String("slug", slug), zap.Int("articles", len(removed)))
	return nil
}

func (s *userService) DeleteAll(ctx context.Context) error {
	var removed []string
	err := s.repo.DeleteAll(ctx, func(tx *gorm.DB, userID string) error {
		slugs, err := s.articles.DeleteByAuthor(tx, userID)
		removed = append(removed, slugs...)
		return err
	})
	if err != nil {
		return err
	}
	s.articles.Evict(ctx, removed)
	return nil
}

// SetRole 修改角色 (管理员)
func (s *userService) SetRole(ctx context.Context, slug, role string) (*model.User, error) {
	r, ok := security.ParseRole(role)
	if !ok {
		return nil, errs.Validation("role", "unknown role %q", role)
	}
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRole(ctx, user.ID, r); err != nil {
		return nil, err
	}
	user.Role = r
	return user, nil
}

func (s *userService) SetPicture(ctx context.Context, p *security.Principal, slug string, file *multipart.FileHeader) (*model.User, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := security.CheckResourceOwnership(p, user); err != nil {
		return nil, err
	}
	key, err := s.uploader.Upload(ctx, file)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPicture(ctx, user.ID, key); err != nil {
		return nil, err
	}
	user.Picture = key
	return user, nil
}

// OpenPicture 头像公开可读
func (s *userService) OpenPicture(ctx context.Context, slug string) (io.ReadCloser, string, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	if user.Picture == "" {
		return nil, "", errs.NotFound("picture", "user %s has no picture", slug)
	}
	body, err := s.uploader.Open(ctx, user.Picture)
	if errors.Is(err, uploader.ErrObjectNotFound) {
		return nil, "", errs.NotFound("picture", "picture %s not found", user.Picture)
	}
	if err != nil {
		return nil, "", err
	}
	return body, uploader.ContentType(user.Picture), nil
}

func (s *userService) Articles(ctx context.Context, slug string) ([]model.ArticleSummary, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.Articles(ctx, user.ID)
}
