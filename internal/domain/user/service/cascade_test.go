package service

import (
	"context"
	"testing"

	articleRepo "blog_cms/internal/domain/article/repository"
	articleService "blog_cms/internal/domain/article/service"
	categoryModel "blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	tagModel "blog_cms/internal/domain/tag/model"
	"blog_cms/internal/domain/user/model"
	"blog_cms/internal/domain/user/repository"
	"blog_cms/internal/pkg/testutil"
	"blog_cms/internal/pkg/uploader"
	"blog_cms/pkg/cache"
	"blog_cms/pkg/errs"
	"blog_cms/pkg/metrics"
	"blog_cms/pkg/security"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteUserRemovesAuthoredArticles(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	relations := relation.NewMaintainer()
	memCache := cache.NewMemoryCache()
	collector := metrics.NewMetricsCollector(prometheus.NewRegistry())
	up := uploader.NewLocalUploader(t.TempDir(), 5)

	articles := articleService.NewArticleService(articleRepo.NewArticleRepository(db, relations), memCache, up, collector)
	userRepo := repository.NewUserRepository(db, relations)
	users := NewCachedUserService(NewUserService(userRepo, articles, up), userRepo, memCache, collector)

	tech := &categoryModel.Category{Name: "Tech", Slug: "tech"}
	require.NoError(t, db.Create(tech).Error)
	golang := &tagModel.Tag{Name: "go", Slug: "go"}
	require.NoError(t, db.Create(golang).Error)

	newUser := func(name string) *security.Principal {
		u := &model.User{Username: name, Email: name + "@example.com", Password: "hash", Slug: name, Role: security.RoleUser}
		require.NoError(t, db.Create(u).Error)
		return &security.Principal{UserID: u.ID, Username: name, Slug: name, Role: security.RoleUser}
	}
	alice, bob := newUser("alice"), newUser("bob")

	a1, err := articles.Create(ctx, alice, articleService.CreateInput{Title: "First", Category: tech.ID, Tags: []string{golang.ID}})
	require.NoError(t, err)
	a2, err := articles.Create(ctx, alice, articleService.CreateInput{Title: "Second", Category: tech.ID})
	require.NoError(t, err)
	b1, err := articles.Create(ctx, bob, articleService.CreateInput{Title: "Third", Category: tech.ID, Tags: []string{golang.ID}})
	require.NoError(t, err)

	// 预热缓存
	_, err = articles.Get(ctx, a1.Slug)
	require.NoError(t, err)
	cached, err := users.Get(ctx, alice, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, cached.Articles)

	t.Run("Others cannot delete", func(t *testing.T) {
		err := users.Delete(ctx, bob, "alice")
		assert.True(t, errs.Is(err, errs.KindForbidden))
	})

	require.NoError(t, users.Delete(ctx, alice, "alice"))

	for _, slug := range []string{a1.Slug, a2.Slug} {
		_, err := articles.Get(ctx, slug)
		assert.True(t, errs.Is(err, errs.KindNotFound), slug)
	}
	_, err = articles.Get(ctx, b1.Slug)
	assert.NoError(t, err)

	ids, err := relations.ArticleIDs(db, relation.TableCategory, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b1.ID}, ids)
	ids, err = relations.ArticleIDs(db, relation.TableTag, golang.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b1.ID}, ids)
	ids, err = relations.ArticleIDs(db, relation.TableUser, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = users.Get(ctx, &security.Principal{UserID: "root", Role: security.RoleAdmin}, "alice")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestCachedUserServiceInvalidatesOnUpdate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	relations := relation.NewMaintainer()
	userRepo := repository.NewUserRepository(db, relations)
	users := NewCachedUserService(NewUserService(userRepo, nil, nil), userRepo, cache.NewMemoryCache(),
		metrics.NewMetricsCollector(prometheus.NewRegistry()))

	u := &model.User{Username: "carol", Email: "carol@example.com", Password: "hash", Slug: "carol", Role: security.RoleUser}
	require.NoError(t, db.Create(u).Error)
	carol := &security.Principal{UserID: u.ID, Slug: "carol", Role: security.RoleUser}

	_, err := users.Get(ctx, carol, "carol")
	require.NoError(t, err)

	email := "carol@example.org"
	_, err = users.Update(ctx, carol, "carol", UpdateUserInput{Email: &email})
	require.NoError(t, err)

	got, err := users.Get(ctx, carol, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.org", got.Email)

	// 缓存命中时仍然校验权限
	_, err = users.Get(ctx, &security.Principal{UserID: "eve", Role: security.RoleUser}, "carol")
	assert.True(t, errs.Is(err, errs.KindForbidden))
}
