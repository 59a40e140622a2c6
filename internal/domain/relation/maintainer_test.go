package relation_test

import (
	"context"
	"testing"

	articleModel "blog_cms/internal/domain/article/model"
	categoryModel "blog_cms/internal/domain/category/model"
	"blog_cms/internal/domain/relation"
	tagModel "blog_cms/internal/domain/tag/model"
	userModel "blog_cms/internal/domain/user/model"
	"blog_cms/internal/pkg/testutil"
	"blog_cms/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	m    *relation.Maintainer
	tech *categoryModel.Category
	life *categoryModel.Category
	sub  *categoryModel.SubCategory
	go_  *tagModel.Tag
	db_  *tagModel.Tag
	user *userModel.User
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	f := &fixture{
		db:   db,
		m:    relation.NewMaintainer(),
		tech: &categoryModel.Category{Name: "Tech", Slug: "tech"},
		life: &categoryModel.Category{Name: "Life", Slug: "life"},
		go_:  &tagModel.Tag{Name: "Go", Slug: "go"},
		db_:  &tagModel.Tag{Name: "Databases", Slug: "databases"},
		user: &userModel.User{Username: "alice", Email: "alice@x.com", Password: "x", Slug: "alice", Role: "user"},
	}
	require.NoError(t, db.Create(f.tech).Error)
	require.NoError(t, db.Create(f.life).Error)
	require.NoError(t, db.Create(f.go_).Error)
	require.NoError(t, db.Create(f.db_).Error)
	require.NoError(t, db.Create(f.user).Error)
	f.sub = &categoryModel.SubCategory{Name: "Backend", Slug: "backend", ParentCategoryID: f.tech.ID}
	require.NoError(t, db.Create(f.sub).Error)
	return f
}

func (f *fixture) ids(t *testing.T, table, owner string) []string {
	ids, err := f.m.ArticleIDs(f.db, table, owner)
	require.NoError(t, err)
	return ids
}

func (f *fixture) refs(articleID string) relation.Refs {
	return relation.Refs{
		ArticleID:     articleID,
		CategoryID:    f.tech.ID,
		SubCategoryID: &f.sub.ID,
		TagIDs:        []string{f.go_.ID, f.db_.ID},
		UserID:        f.user.ID,
	}
}

func TestAttachDetachSymmetry(t *testing.T) {
	f := setup(t)
	refs := f.refs("article-1")

	require.NoError(t, f.m.Attach(f.db, refs))
	// 重复 attach 不产生重复项
	require.NoError(t, f.m.Attach(f.db, refs))

	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableCategory, f.tech.ID))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableSubCategory, f.sub.ID))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableTag, f.go_.ID))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableTag, f.db_.ID))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableUser, f.user.ID))

	require.NoError(t, f.m.Detach(f.db, refs))
	for _, owner := range []struct{ table, id string }{
		{relation.TableCategory, f.tech.ID},
		{relation.TableSubCategory, f.sub.ID},
		{relation.TableTag, f.go_.ID},
		{relation.TableTag, f.db_.ID},
		{relation.TableUser, f.user.ID},
	} {
		assert.Empty(t, f.ids(t, owner.table, owner.id), owner.table)
	}
}

func TestAttachDuplicateTagIDs(t *testing.T) {
	f := setup(t)
	refs := f.refs("article-1")
	refs.TagIDs = []string{f.go_.ID, f.go_.ID}

	require.NoError(t, f.m.Attach(f.db, refs))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableTag, f.go_.ID))
}

func TestAttachMissingOwners(t *testing.T) {
	f := setup(t)

	t.Run("category", func(t *testing.T) {
		refs := f.refs("article-1")
		refs.CategoryID = "missing"
		err := f.m.Attach(f.db, refs)
		assert.True(t, errs.Is(err, errs.KindNotFound))
		assert.Equal(t, "category", errs.EntityOf(err))
		// 校验失败前不写入任何反向引用
		assert.Empty(t, f.ids(t, relation.TableUser, f.user.ID))
		assert.Empty(t, f.ids(t, relation.TableTag, f.go_.ID))
	})

	t.Run("user", func(t *testing.T) {
		refs := f.refs("article-1")
		refs.UserID = "missing"
		err := f.m.Attach(f.db, refs)
		assert.True(t, errs.Is(err, errs.KindNotFound))
		assert.Equal(t, "user", errs.EntityOf(err))
		assert.Empty(t, f.ids(t, relation.TableCategory, f.tech.ID))
	})

	t.Run("sub-category", func(t *testing.T) {
		refs := f.refs("article-1")
		missing := "missing"
		refs.SubCategoryID = &missing
		err := f.m.Attach(f.db, refs)
		assert.Equal(t, "sub-category", errs.EntityOf(err))
	})

	t.Run("sub-category of another category", func(t *testing.T) {
		refs := f.refs("article-1")
		refs.CategoryID = f.life.ID
		err := f.m.Attach(f.db, refs)
		assert.True(t, errs.Is(err, errs.KindValidation))
	})

	t.Run("unknown tags are skipped", func(t *testing.T) {
		refs := f.refs("article-2")
		refs.TagIDs = []string{"nope", f.go_.ID}
		resolved, err := f.m.Resolve(f.db, refs)
		require.NoError(t, err)
		assert.Equal(t, []string{f.go_.ID}, resolved.TagIDs)

		require.NoError(t, f.m.Attach(f.db, refs))
		assert.Equal(t, []string{"article-2"}, f.ids(t, relation.TableTag, f.go_.ID))
	})
}

func TestRetarget(t *testing.T) {
	f := setup(t)
	old := f.refs("article-1")
	require.NoError(t, f.m.Attach(f.db, old))
	require.NoError(t, f.m.Attach(f.db, f.refs("article-0")))

	next := relation.Refs{
		CategoryID: f.life.ID,
		TagIDs:     []string{f.db_.ID},
		UserID:     f.user.ID,
	}
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return f.m.Retarget(tx, old, next)
	}))

	assert.Equal(t, []string{"article-0"}, f.ids(t, relation.TableCategory, f.tech.ID))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableCategory, f.life.ID))
	assert.Equal(t, []string{"article-0"}, f.ids(t, relation.TableSubCategory, f.sub.ID))
	assert.Equal(t, []string{"article-0"}, f.ids(t, relation.TableTag, f.go_.ID))
	// 未变化的引用保留原来的顺序
	assert.Equal(t, []string{"article-1", "article-0"}, f.ids(t, relation.TableTag, f.db_.ID))
	assert.Equal(t, []string{"article-1", "article-0"}, f.ids(t, relation.TableUser, f.user.ID))
}

func TestRetargetFailureRollsBack(t *testing.T) {
	f := setup(t)
	old := f.refs("article-1")
	require.NoError(t, f.m.Attach(f.db, old))

	next := old
	next.CategoryID = "missing"
	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.m.Retarget(tx, old, next)
	})
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.Equal(t, []string{"article-1"}, f.ids(t, relation.TableCategory, f.tech.ID))
}

func TestDetachArticle(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.m.Attach(f.db, f.refs("article-1")))
	require.NoError(t, f.m.DetachArticle(f.db, "article-1"))

	for _, table := range relation.Tables {
		var n int64
		require.NoError(t, f.db.Table(table).Count(&n).Error)
		assert.Zero(t, n, table)
	}
}

func TestArticleIDsByOwners(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.m.Attach(f.db, f.refs("a1")))
	require.NoError(t, f.m.Attach(f.db, f.refs("a2")))

	got, err := f.m.ArticleIDsByOwners(f.db, relation.TableCategory, []string{f.tech.ID, f.life.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, got[f.tech.ID])
	assert.Equal(t, []string{}, got[f.life.ID])
}

func TestReconcile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := &articleModel.Article{
		Title: "Hello World", Slug: "hello-world",
		CategoryID: f.tech.ID, SubCategoryID: &f.sub.ID,
		Tags: []string{f.go_.ID, "deleted-tag"}, UserID: f.user.ID,
	}
	require.NoError(t, f.db.Create(a).Error)

	// 模拟部分写入失败：只写入了 category 反向引用，另有一条指向已删除文章的脏数据
	require.NoError(t, f.db.Table(relation.TableCategory).Create(&relation.BackRef{OwnerID: f.tech.ID, ArticleID: a.ID}).Error)
	require.NoError(t, f.db.Table(relation.TableTag).Create(&relation.BackRef{OwnerID: f.db_.ID, ArticleID: "gone"}).Error)

	reports, err := f.m.Reconcile(ctx, f.db)
	require.NoError(t, err)

	byTable := map[string]relation.Report{}
	for _, r := range reports {
		byTable[r.Table] = r
	}
	assert.Equal(t, relation.Report{Table: relation.TableCategory}, byTable[relation.TableCategory])
	assert.Equal(t, 1, byTable[relation.TableSubCategory].Added)
	assert.Equal(t, 1, byTable[relation.TableTag].Added)
	assert.Equal(t, 1, byTable[relation.TableTag].Removed)
	assert.Equal(t, 1, byTable[relation.TableUser].Added)

	assert.Equal(t, []string{a.ID}, f.ids(t, relation.TableSubCategory, f.sub.ID))
	assert.Equal(t, []string{a.ID}, f.ids(t, relation.TableTag, f.go_.ID))
	assert.Empty(t, f.ids(t, relation.TableTag, f.db_.ID))
	assert.Equal(t, []string{a.ID}, f.ids(t, relation.TableUser, f.user.ID))

	// 第二次执行无需修复
	reports, err = f.m.Reconcile(ctx, f.db)
	require.NoError(t, err)
	for _, r := range reports {
		assert.Zero(t, r.Added+r.Removed, r.Table)
	}
}
