package relation

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Report 一张反向引用表的修复结果
type Report struct {
	Table   string `json:"table"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// articleRefs articles 表上的正向引用投影
type articleRefs struct {
	ID            string
	CategoryID    string
	SubCategoryID *string
	Tags          []string `gorm:"serializer:json"`
	UserID        string
	CreatedAt     time.Time
}

type pair struct {
	owner   string
	article string
}

// Reconcile 以 articles 上的正向引用为准重建四张反向引用表：
// 补齐缺失的行，删除指向已删除文章、已删除 owner 或已变更引用的行
func (m *Maintainer) Reconcile(ctx context.Context, db *gorm.DB) ([]Report, error) {
	db = db.WithContext(ctx)

	expected := map[string]map[pair]time.Time{}
	for _, table := range Tables {
		expected[table] = map[pair]time.Time{}
	}

	owners := map[string]map[string]bool{}
	for table, source := range map[string]string{
		TableCategory:    "categories",
		TableSubCategory: "sub_categories",
		TableTag:         "tags",
		TableUser:        "users",
	} {
		var ids []string
		if err := db.Table(source).Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		owners[table] = make(map[string]bool, len(ids))
		for _, id := range ids {
			owners[table][id] = true
		}
	}

	var batch []articleRefs
	err := db.Table("articles").Select("id, category_id, sub_category_id, tags, user_id, created_at").
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, a := range batch {
				refs := Refs{ArticleID: a.ID, CategoryID: a.CategoryID, SubCategoryID: a.SubCategoryID, TagIDs: a.Tags, UserID: a.UserID}
				for table, ids := range refs.owners() {
					for _, owner := range ids {
						if owners[table][owner] {
							expected[table][pair{owner, a.ID}] = a.CreatedAt
						}
					}
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(Tables))
	for _, table := range Tables {
		report, err := m.reconcileTable(db, table, expected[table])
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (m *Maintainer) reconcileTable(db *gorm.DB, table string, expected map[pair]time.Time) (Report, error) {
	report := Report{Table: table}

	var rows []BackRef
	if err := db.Table(table).Find(&rows).Error; err != nil {
		return report, err
	}

	present := make(map[pair]bool, len(rows))
	var dangling []BackRef
	for _, row := range rows {
		p := pair{row.OwnerID, row.ArticleID}
		present[p] = true
		if _, ok := expected[p]; !ok {
			dangling = append(dangling, row)
		}
	}

	var missing []BackRef
	for p, createdAt := range expected {
		if !present[p] {
			missing = append(missing, BackRef{OwnerID: p.owner, ArticleID: p.article, CreatedAt: createdAt})
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, row := range dangling {
			if err := tx.Table(table).Where("owner_id = ? AND article_id = ?", row.OwnerID, row.ArticleID).
				Delete(&BackRef{}).Error; err != nil {
				return err
			}
		}
		if len(missing) > 0 {
			if err := tx.Table(table).Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(&missing, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	report.Added = len(missing)
	report.Removed = len(dangling)
	return report, nil
}
