package service

import (
	"context"
	"testing"

	categoryRepo "blog_cms/internal/domain/category/repository"
	categoryService "blog_cms/internal/domain/category/service"
	tagRepo "blog_cms/internal/domain/tag/repository"
	tagService "blog_cms/internal/domain/tag/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagAndSubCategoryDeleteEvictCachedArticle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tags := tagService.NewTagService(tagRepo.NewTagRepository(f.db, f.relations), f.svc)
	subs := categoryService.NewSubCategoryService(categoryRepo.NewSubCategoryRepository(f.db, f.relations), f.svc)

	golang, err := tags.Create(ctx, "Go")
	require.NoError(t, err)
	backend, err := subs.Create(ctx, categoryService.SubCategoryInput{Name: "Backend", ParentCategory: f.tech.ID})
	require.NoError(t, err)

	a, err := f.svc.Create(ctx, f.alice, CreateInput{
		Title:       "Hello",
		Category:    f.tech.ID,
		SubCategory: ptr(backend.ID),
		Tags:        []string{golang.ID},
	})
	require.NoError(t, err)

	// 预热缓存
	cached, err := f.svc.Get(ctx, a.Slug)
	require.NoError(t, err)
	require.Equal(t, []string{golang.ID}, cached.Tags)
	require.NotNil(t, cached.SubCategoryID)

	t.Run("Tag delete", func(t *testing.T) {
		require.NoError(t, tags.Delete(ctx, golang.Slug))

		got, err := f.svc.Get(ctx, a.Slug)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("Sub-category delete", func(t *testing.T) {
		require.NoError(t, subs.Delete(ctx, backend.Slug))

		got, err := f.svc.Get(ctx, a.Slug)
		require.NoError(t, err)
		assert.Nil(t, got.SubCategoryID)
	})
}

func TestDeleteAllTagsEvictsCachedArticles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tags := tagService.NewTagService(tagRepo.NewTagRepository(f.db, f.relations), f.svc)

	golang, err := tags.Create(ctx, "Go")
	require.NoError(t, err)
	a, err := f.svc.Create(ctx, f.alice, CreateInput{Title: "Hello", Category: f.tech.ID, Tags: []string{golang.ID}})
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, a.Slug)
	require.NoError(t, err)

	require.NoError(t, tags.DeleteAll(ctx))

	got, err := f.svc.Get(ctx, a.Slug)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}
