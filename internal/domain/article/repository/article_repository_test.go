package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"blog_cms/internal/domain/article/model"
	categoryModel "blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	userModel "blog_cms/internal/domain/user/model"
	"blog_cms/internal/pkg/testutil"
	"blog_cms/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, ArticleRepository, *model.Article) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := NewArticleRepository(db, relation.NewMaintainer())

	category := &categoryModel.Category{Name: "Tech", Slug: "tech"}
	require.NoError(t, db.Create(category).Error)
	user := &userModel.User{Username: "alice", Email: "alice@x.com", Password: "hash", Slug: "alice", Role: "user"}
	require.NoError(t, db.Create(user).Error)

	article := &model.Article{Title: "Hello World", Slug: "hello-world", CategoryID: category.ID, UserID: user.ID}
	require.NoError(t, repo.Create(context.Background(), article))
	return db, repo, article
}

func TestToggleReaction(t *testing.T) {
	ctx := context.Background()
	db, repo, article := seed(t)

	t.Run("like twice restores the original state", func(t *testing.T) {
		r, active, err := repo.ToggleReaction(ctx, article.ID, "1.2.3.4", model.KindLike)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, []string{"1.2.3.4"}, r.Likers)
		assert.Equal(t, 1, r.NumberOfLikes)

		r, active, err = repo.ToggleReaction(ctx, article.ID, "1.2.3.4", model.KindLike)
		require.NoError(t, err)
		assert.False(t, active)
		assert.Empty(t, r.Likers)
		assert.Equal(t, 0, r.NumberOfLikes)
	})

	t.Run("like and unlike are mutually exclusive", func(t *testing.T) {
		_, _, err := repo.ToggleReaction(ctx, article.ID, "5.6.7.8", model.KindLike)
		require.NoError(t, err)

		r, active, err := repo.ToggleReaction(ctx, article.ID, "5.6.7.8", model.KindUnlike)
		require.NoError(t, err)
		assert.True(t, active)
		assert.Empty(t, r.Likers)
		assert.Equal(t, []string{"5.6.7.8"}, r.Unlikers)
		assert.Equal(t, 0, r.NumberOfLikes)

		r, _, err = repo.ToggleReaction(ctx, article.ID, "5.6.7.8", model.KindLike)
		require.NoError(t, err)
		assert.Equal(t, []string{"5.6.7.8"}, r.Likers)
		assert.Empty(t, r.Unlikers)
	})

	t.Run("stored counter matches likers", func(t *testing.T) {
		got, err := repo.GetBySlug(ctx, "hello-world")
		require.NoError(t, err)
		assert.Equal(t, len(got.Likers), got.NumberOfLikes)
	})

	t.Run("missing article", func(t *testing.T) {
		_, _, err := repo.ToggleReaction(ctx, "missing", "1.1.1.1", model.KindLike)
		assert.True(t, errs.Is(err, errs.KindNotFound))

		var n int64
		require.NoError(t, db.Model(&model.Reaction{}).Where("article_id = ?", "missing").Count(&n).Error)
		assert.Zero(t, n)
	})
}

func TestToggleReactionConcurrent(t *testing.T) {
	ctx := context.Background()
	_, repo, article := seed(t)

	const requesters = 20
	var wg sync.WaitGroup
	errCh := make(chan error, requesters*3)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", i)
			// 奇数请求者点赞三次（最终为赞），偶数点赞一次
			times := 1
			if i%2 == 1 {
				times = 3
			}
			for j := 0; j < times; j++ {
				if _, _, err := repo.ToggleReaction(ctx, article.ID, ip, model.KindLike); err != nil {
					errCh <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := repo.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Len(t, got.Likers, requesters)
	assert.Equal(t, requesters, got.NumberOfLikes)

	seen := make(map[string]bool)
	for _, ip := range got.Likers {
		assert.False(t, seen[ip], "duplicate liker %s", ip)
		seen[ip] = true
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	ctx := context.Background()
	db, repo, article := seed(t)

	_, _, err := repo.ToggleReaction(ctx, article.ID, "1.2.3.4", model.KindLike)
	require.NoError(t, err)
	require.NoError(t, repo.AddComment(ctx, &model.Comment{ArticleID: article.ID, Name: "bob", Text: "nice"}))

	got, err := repo.GetBySlug(ctx, "hello-world")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)

	require.NoError(t, repo.Delete(ctx, got))

	_, err = repo.GetBySlug(ctx, "hello-world")
	assert.True(t, errs.Is(err, errs.KindNotFound))

	for _, table := range relation.Tables {
		var n int64
		require.NoError(t, db.Table(table).Where("article_id = ?", article.ID).Count(&n).Error)
		assert.Zero(t, n, table)
	}
	var n int64
	require.NoError(t, db.Model(&model.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.Reaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestTopAndRelated(t *testing.T) {
	ctx := context.Background()
	db, repo, first := seed(t)

	second := &model.Article{Title: "Second", Slug: "second", CategoryID: first.CategoryID, UserID: first.UserID}
	require.NoError(t, repo.Create(ctx, second))

	other := &categoryModel.Category{Name: "Life", Slug: "life"}
	require.NoError(t, db.Create(other).Error)
	third := &model.Article{Title: "Third", Slug: "third", CategoryID: other.ID, UserID: first.UserID}
	require.NoError(t, repo.Create(ctx, third))

	_, _, err := repo.ToggleReaction(ctx, second.ID, "1.1.1.1", model.KindLike)
	require.NoError(t, err)

	top, err := repo.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "second", top[0].Slug)

	related, err := repo.Related(ctx, first, 3)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "second", related[0].Slug)
}
