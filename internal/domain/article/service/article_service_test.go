package service

import (
	"context"
	"io"
	"testing"

	"blog_cms/internal/domain/article/repository"
	categoryModel "blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	userModel "blog_cms/internal/domain/user/model"
	"blog_cms/internal/pkg/testutil"
	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/metrics"
	"blog_cms/pkg/security"
	"blog_cms/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       ArticleService
	cache     cache.CacheService
	relations *relation.Maintainer
	tech      *categoryModel.Category
	alice     *security.Principal
	bob       *security.Principal
	admin     *security.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	relations := relation.NewMaintainer()
	memCache := cache.NewMemoryCache()
	svc := NewArticleService(
		repository.NewArticleRepository(db, relations),
		memCache,
		uploader.NewLocalUploader(t.TempDir(), 5),
		metrics.NewMetricsCollector(prometheus.NewRegistry()),
	)

	tech := &categoryModel.Category{Name: "Tech", Slug: "tech"}
	require.NoError(t, db.Create(tech).Error)

	principal := func(name string, role security.Role) *security.Principal {
		u := &userModel.User{Username: name, Email: name + "@x.com", Password: "hash", Slug: name, Role: role}
		require.NoError(t, db.Create(u).Error)
		return &security.Principal{UserID: u.ID, Username: name, Slug: name, Role: role}
	}

	return &fixture{
		db:        db,
		svc:       svc,
		cache:     memCache,
		relations: relations,
		tech:      tech,
		alice:     principal("alice", security.RoleUser),
		bob:       principal("bob", security.RoleUser),
		admin:     principal("root", security.RoleAdmin),
	}
}

func (f *fixture) backRefs(t *testing.T, table, owner string) []string {
	ids, err := f.relations.ArticleIDs(f.db, table, owner)
	require.NoError(t, err)
	return ids
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateArticleAttachesBackReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	article, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", article.Slug)
	assert.Equal(t, []string{article.ID}, f.backRefs(t, relation.TableCategory, f.tech.ID))
	assert.Equal(t, []string{article.ID}, f.backRefs(t, relation.TableUser, f.alice.UserID))

	t.Run("duplicate title conflicts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "hello world!", Category: f.tech.ID})
		assert.True(t, errs.Is(err, errs.KindConflict))
	})

	t.Run("missing category fails without writes", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Orphan", Category: "nope"})
		assert.True(t, errs.Is(err, errs.KindNotFound))
		assert.Equal(t, "category", errs.EntityOf(err))

		_, err = f.svc.Get(ctx, "orphan")
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})

	t.Run("unknown tags are dropped", func(t *testing.T) {
		require.NoError(t, f.db.Table("tags").Create(map[string]interface{}{"id": "t1", "name": "go", "slug": "go"}).Error)

		tagged, err := f.svc.Create(ctx, f.alice, CreateInput{
			Title: "Tagged", Category: f.tech.ID, Tags: []string{"t1", "ghost", "t1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, tagged.Tags)
		assert.Equal(t, []string{tagged.ID}, f.backRefs(t, relation.TableTag, "t1"))
	})

	t.Run("anonymous create is rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, nil, CreateInput{Title: "Anon", Category: f.tech.ID})
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
	})
}

func TestToggleLikeScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID})
	require.NoError(t, err)

	// 先读一次，写入缓存
	_, err = f.svc.Get(ctx, "hello-world")
	require.NoError(t, err)

	r, err := f.svc.ToggleLike(ctx, "hello-world", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4"}, r.Likers)
	assert.Equal(t, 1, r.NumberOfLikes)

	// 切换后缓存已失效
	got, err := f.svc.Get(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumberOfLikes)

	r, err = f.svc.ToggleLike(ctx, "hello-world", "1.2.3.4")
	require.NoError(t, err)
	assert.Empty(t, r.Likers)
	assert.Equal(t, 0, r.NumberOfLikes)

	_, err = f.svc.ToggleUnlike(ctx, "missing", "1.2.3.4")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestUpdateRetargetsCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	life := &categoryModel.Category{Name: "Life", Slug: "life"}
	require.NoError(t, f.db.Create(life).Error)
	sub := &categoryModel.SubCategory{Name: "Backend", Slug: "backend", ParentCategoryID: f.tech.ID}
	require.NoError(t, f.db.Create(sub).Error)

	article, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID, SubCategory: &sub.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{article.ID}, f.backRefs(t, relation.TableSubCategory, sub.ID))

	t.Run("sub-category from another category is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.alice, "hello-world", UpdateInput{Category: &life.ID, SubCategory: &sub.ID})
		assert.True(t, errs.Is(err, errs.KindValidation))
		assert.Equal(t, []string{article.ID}, f.backRefs(t, relation.TableCategory, f.tech.ID))
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.bob, "hello-world", UpdateInput{Category: &life.ID})
		assert.True(t, errs.Is(err, errs.KindForbidden))
	})

	t.Run("unknown slug is 404 before ownership", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.bob, "nope", UpdateInput{Category: &life.ID})
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})

	updated, err := f.svc.Update(ctx, f.alice, "hello-world", UpdateInput{Category: &life.ID})
	require.NoError(t, err)
	assert.Nil(t, updated.SubCategoryID, "changing category clears the sub-category")
	assert.Empty(t, f.backRefs(t, relation.TableCategory, f.tech.ID))
	assert.Equal(t, []string{article.ID}, f.backRefs(t, relation.TableCategory, life.ID))
	assert.Empty(t, f.backRefs(t, relation.TableSubCategory, sub.ID))

	t.Run("rename recomputes slug", func(t *testing.T) {
		renamed, err := f.svc.Update(ctx, f.admin, "hello-world", UpdateInput{Title: ptr("Hello Again")})
		require.NoError(t, err)
		assert.Equal(t, "hello-again", renamed.Slug)

		_, err = f.svc.Get(ctx, "hello-world")
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})
}

func TestDeleteArticle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	article, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.bob, "hello-world")
	assert.True(t, errs.Is(err, errs.KindForbidden))

	require.NoError(t, f.svc.Delete(ctx, f.alice, "hello-world"))
	assert.Empty(t, f.backRefs(t, relation.TableCategory, f.tech.ID))
	assert.Empty(t, f.backRefs(t, relation.TableUser, f.alice.UserID))

	var n int64
	require.NoError(t, f.db.Table("articles").Where("id = ?", article.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDeleteByAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, title := range []string{"One", "Two"} {
		_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: title, Category: f.tech.ID})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.bob, CreateInput{Title: "Three", Category: f.tech.ID})
	require.NoError(t, err)

	var slugs []string
	err = f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		slugs, err = f.svc.DeleteByAuthor(tx, f.alice.UserID)
		return err
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, slugs)
	f.svc.Evict(ctx, slugs)

	assert.Len(t, f.backRefs(t, relation.TableCategory, f.tech.ID), 1)
	assert.Empty(t, f.backRefs(t, relation.TableUser, f.alice.UserID))
}

func TestCommentsTopAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID})
	require.NoError(t, err)

	_, err = f.svc.AddComment(ctx, "hello-world", "", "text")
	assert.True(t, errs.Is(err, errs.KindValidation))

	comment, err := f.svc.AddComment(ctx, "hello-world", "bob", "nice post")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	got, err := f.svc.Get(ctx, "hello-world")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice post", got.Comments[0].Text)

	top, err := f.svc.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	page, err := f.svc.List(ctx, utils.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestPicture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello World", Category: f.tech.ID})
	require.NoError(t, err)

	_, _, err = f.svc.OpenPicture(ctx, "hello-world")
	assert.True(t, errs.Is(err, errs.KindNotFound))

	file, err := uploader.NewFileHeader("picture", "cover.png", uploader.PNGHeader)
	require.NoError(t, err)

	_, err = f.svc.SetPicture(ctx, f.bob, "hello-world", file)
	assert.True(t, errs.Is(err, errs.KindForbidden))

	article, err := f.svc.SetPicture(ctx, f.alice, "hello-world", file)
	require.NoError(t, err)
	assert.NotEmpty(t, article.Picture)

	body, contentType, err := f.svc.OpenPicture(ctx, "hello-world")
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "image/png", contentType)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, uploader.PNGHeader, data)
}
