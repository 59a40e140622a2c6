// Package relation 维护文章与分类、子分类、标签、用户之间的反向引用
//
// 文章上保存正向引用 (category_id, sub_category_id, tags, user_id)，
// 反向引用保存在四张关联表中。所有写操作都接收调用方的事务 tx，
// 与文章行的写入在同一个事务中提交。
package relation

import (
	"blog_cms/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Refs 文章的正向引用
type Refs struct {
	ArticleID     string
	CategoryID    string
	SubCategoryID *string
	TagIDs        []string
	UserID        string
}

// owners 按表列出 Refs 指向的 owner
func (r Refs) owners() map[string][]string {
	m := map[string][]string{
		TableCategory: nonEmpty(r.CategoryID),
		TableUser:     nonEmpty(r.UserID),
		TableTag:      dedupe(r.TagIDs),
	}
	if r.SubCategoryID != nil {
		m[TableSubCategory] = nonEmpty(*r.SubCategoryID)
	} else {
		m[TableSubCategory] = nil
	}
	return m
}

type Maintainer struct{}

func NewMaintainer() *Maintainer {
	return &Maintainer{}
}

func exists(tx *gorm.DB, table, id string) (bool, error) {
	var n int64
	if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// resolve 校验 category/user 存在（不存在直接失败），过滤掉不存在的标签
func (m *Maintainer) resolve(tx *gorm.DB, refs Refs) (Refs, error) {
	if refs.CategoryID == "" {
		return refs, errs.Validation("category", "category is required")
	}
	if refs.UserID == "" {
		return refs, errs.Validation("user", "user is required")
	}

	ok, err := exists(tx, "categories", refs.CategoryID)
	if err != nil {
		return refs, err
	}
	if !ok {
		return refs, errs.NotFound("category", "category %s not found", refs.CategoryID)
	}

	ok, err = exists(tx, "users", refs.UserID)
	if err != nil {
		return refs, err
	}
	if !ok {
		return refs, errs.NotFound("user", "user %s not found", refs.UserID)
	}

	if refs.SubCategoryID != nil {
		var parent []string
		if err := tx.Table("sub_categories").Where("id = ?", *refs.SubCategoryID).
			Pluck("parent_category_id", &parent).Error; err != nil {
			return refs, err
		}
		if len(parent) == 0 {
			return refs, errs.NotFound("sub-category", "sub-category %s not found", *refs.SubCategoryID)
		}
		if parent[0] != refs.CategoryID {
			return refs, errs.Validation("sub-category", "sub-category does not belong to the article's category")
		}
	}

	// 标签为可选元数据：不存在的标签跳过，不影响文章创建
	tags := dedupe(refs.TagIDs)
	if len(tags) > 0 {
		var found []string
		if err := tx.Table("tags").Where("id IN ?", tags).Pluck("id", &found).Error; err != nil {
			return refs, err
		}
		known := make(map[string]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		resolved := tags[:0]
		for _, id := range tags {
			if known[id] {
				resolved = append(resolved, id)
			}
		}
		tags = resolved
	}
	refs.TagIDs = tags
	return refs, nil
}

// Resolve 校验引用并返回过滤后的 Refs（去重、去掉不存在的标签），不做任何写入
func (m *Maintainer) Resolve(tx *gorm.DB, refs Refs) (Refs, error) {
	return m.resolve(tx, refs)
}

// Attach 把文章加入 category/sub-category/tags/user 的反向引用
// 先校验存在性再写入，重复调用不会产生重复项
func (m *Maintainer) Attach(tx *gorm.DB, refs Refs) error {
	resolved, err := m.resolve(tx, refs)
	if err != nil {
		return err
	}
	for table, owners := range resolved.owners() {
		if err := push(tx, table, owners, refs.ArticleID); err != nil {
			return err
		}
	}
	return nil
}

// Detach 从 refs 指向的四类反向引用中移除文章
func (m *Maintainer) Detach(tx *gorm.DB, refs Refs) error {
	for table, owners := range refs.owners() {
		if err := pull(tx, table, owners, refs.ArticleID); err != nil {
			return err
		}
	}
	return nil
}

// Retarget 等价于 Detach(old) 后 Attach(new)；只改动发生变化的 owner，
// 未变化的引用保留原有顺序
func (m *Maintainer) Retarget(tx *gorm.DB, old, new Refs) error {
	new.ArticleID = old.ArticleID
	resolved, err := m.resolve(tx, new)
	if err != nil {
		return err
	}

	oldOwners := old.owners()
	for table, owners := range resolved.owners() {
		added, removed := diff(oldOwners[table], owners)
		if err := pull(tx, table, removed, old.ArticleID); err != nil {
			return err
		}
		// 未变化的 owner 也重新 push，修复可能缺失的行；ON CONFLICT 保证幂等
		if err := push(tx, table, append(added, intersect(oldOwners[table], owners)...), old.ArticleID); err != nil {
			return err
		}
	}
	return nil
}

// DetachArticle 从所有反向引用表中移除文章，不依赖记录的正向引用
func (m *Maintainer) DetachArticle(tx *gorm.DB, articleID string) error {
	for _, table := range Tables {
		if err := tx.Table(table).Where("article_id = ?", articleID).Delete(&BackRef{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// DetachOwner 删除 owner 的全部反向引用（删除分类/子分类/标签/用户时使用）
func (m *Maintainer) DetachOwner(tx *gorm.DB, table, ownerID string) error {
	return tx.Table(table).Where("owner_id = ?", ownerID).Delete(&BackRef{}).Error
}

// ArticleIDs 按加入顺序返回 owner 的文章 id
func (m *Maintainer) ArticleIDs(db *gorm.DB, table, ownerID string) ([]string, error) {
	ids := []string{}
	err := db.Table(table).Where("owner_id = ?", ownerID).
		Order("created_at, article_id").Pluck("article_id", &ids).Error
	return ids, err
}

// ArticleIDsByOwners 批量读取多个 owner 的文章 id
func (m *Maintainer) ArticleIDsByOwners(db *gorm.DB, table string, ownerIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ownerIDs))
	for _, id := range ownerIDs {
		result[id] = []string{}
	}
	if len(ownerIDs) == 0 {
		return result, nil
	}

	var rows []BackRef
	if err := db.Table(table).Where("owner_id IN ?", ownerIDs).
		Order("created_at, article_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], row.ArticleID)
	}
	return result, nil
}

func push(tx *gorm.DB, table string, owners []string, articleID string) error {
	if len(owners) == 0 {
		return nil
	}
	rows := make([]BackRef, len(owners))
	for i, owner := range owners {
		rows[i] = BackRef{OwnerID: owner, ArticleID: articleID}
	}
	return tx.Table(table).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func pull(tx *gorm.DB, table string, owners []string, articleID string) error {
	if len(owners) == 0 {
		return nil
	}
	return tx.Table(table).Where("owner_id IN ? AND article_id = ?", owners, articleID).Delete(&BackRef{}).Error
}

func nonEmpty(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// diff 返回 next 中新增的与 prev 中被移除的 id
func diff(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, id := range next {
		inNext[id] = true
		if !inPrev[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !inNext[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func intersect(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, id := range a {
		inA[id] = true
	}
	var out []string
	for _, id := range b {
		if inA[id] {
			out = append(out, id)
		}
	}
	return out
}
