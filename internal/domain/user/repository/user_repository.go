package repository

import (
	"context"

	"blog_cms/internal/domain/relation"
	"blog_cms/internal/domain/user/model"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/security"

	"gorm.io/gorm"
)

const userEntity = "user"

// BeforeDelete 在删除用户的事务中、删除用户行之前执行（文章级联）
type BeforeDelete func(tx *gorm.DB, userID string) error

// UserRepository 接口定义
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetBySlug(ctx context.Context, slug string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, order string, offset, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	SetResetLink(ctx context.Context, userID, token string) error
	SetRole(ctx context.Context, userID string, role security.Role) error
	SetPicture(ctx context.Context, userID, key string) error
	Delete(ctx context.Context, user *model.User, before BeforeDelete) error
	DeleteAll(ctx context.Context, before BeforeDelete) error
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	ArticleIDs(ctx context.Context, userID string) ([]string, error)
	Articles(ctx context.Context, userID string) ([]model.ArticleSummary, error)
}

// userRepository 实现
type userRepository struct {
	db        *gorm.DB
	relations *relation.Maintainer
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB, relations *relation.Maintainer) UserRepository {
	return &userRepository{db: db, relations: relations}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return errs.FromDB(err, userEntity, user.Email)
	}
	user.Articles = []string{}
	return nil
}

func (r *userRepository) first(ctx context.Context, key, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		return nil, errs.FromDB(err, userEntity, key)
	}
	ids, err := r.relations.ArticleIDs(db, relation.TableUser, user.ID)
	if err != nil {
		return nil, err
	}
	user.Articles = ids
	return &user, nil
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

func (r *userRepository) GetBySlug(ctx context.Context, slug string) (*model.User, error) {
	return r.first(ctx, slug, "slug = ?", slug)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, email, "email = ?", email)
}

// List 获取用户列表（分页），limit 为 0 时返回全部
func (r *userRepository) List(ctx context.Context, order string, offset, limit int) ([]model.User, int64, error) {
	var total int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []model.User{}
	query := db.Order(order)
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	articles, err := r.relations.ArticleIDsByOwners(db, relation.TableUser, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].Articles = articles[users[i].ID]
	}
	return users, total, nil
}

// Update 更新用户资料 (用户名、slug、邮箱)
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Model(user).Select("username", "slug", "email", "updated_at").Updates(user).Error
	return errs.FromDB(err, userEntity, user.Slug)
}

// UpdatePassword 更新密码并清除重置令牌
func (r *userRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{
		"password":            hash,
		"reset_password_link": "",
	})
}

func (r *userRepository) SetResetLink(ctx context.Context, userID, token string) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{"reset_password_link": token})
}

func (r *userRepository) SetRole(ctx context.Context, userID string, role security.Role) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{"role": role})
}

func (r *userRepository) SetPicture(ctx context.Context, userID, key string) error {
	return r.updateColumns(ctx, userID, map[string]interface{}{"picture": key})
}

func (r *userRepository) updateColumns(ctx context.Context, userID string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(userEntity, "user %s not found", userID)
	}
	return nil
}

// Delete 删除用户；before 在同一事务中先删除其文章
func (r *userRepository) Delete(ctx context.Context, user *model.User, before BeforeDelete) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.deleteTx(tx, []string{user.ID}, before)
	})
}

func (r *userRepository) DeleteAll(ctx context.Context, before BeforeDelete) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.User{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		return r.deleteTx(tx, ids, before)
	})
}

func (r *userRepository) deleteTx(tx *gorm.DB, ids []string, before BeforeDelete) error {
	for _, id := range ids {
		if before != nil {
			if err := before(tx, id); err != nil {
				return err
			}
		}
		if err := r.relations.DetachOwner(tx, relation.TableUser, id); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&model.User{}).Error
}

func (r *userRepository) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *userRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ? AND id <> ?", email, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *userRepository) ArticleIDs(ctx context.Context, userID string) ([]string, error) {
	return r.relations.ArticleIDs(r.db.WithContext(ctx), relation.TableUser, userID)
}

// Articles 用户发布的文章，按发布顺序
func (r *userRepository) Articles(ctx context.Context, userID string) ([]model.ArticleSummary, error) {
	list := []model.ArticleSummary{}
	err := r.db.WithContext(ctx).Table("articles").
		Select("articles.id, articles.title, articles.slug, articles.created_at").
		Joins("JOIN "+relation.TableUser+" ref ON ref.article_id = articles.id").
		Where("ref.owner_id = ?", userID).
		Order("ref.created_at, ref.article_id").
		Scan(&list).Error
	return list, err
}
