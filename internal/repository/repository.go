package repository

import (
	"strings"

	"melodist/internal/database"

	"gorm.io/gorm"
)

// ListFilter is the common admin list query: optional status and free-text search,
// 1-based page, page size.
type ListFilter struct {
	Status string
	Search string
	UserID uint
	Page   int
	Limit  int
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	f.Status = strings.TrimSpace(f.Status)
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func paginate(q *gorm.DB, f ListFilter) *gorm.DB {
	return q.Limit(f.Limit).Offset((f.Page - 1) * f.Limit)
}

// listPage counts and fetches one page from q. Both queries run on cloned sessions so
// the count does not leak into the page query.
func listPage[T any](q *gorm.DB, f ListFilter, order string) ([]T, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []T
	err := paginate(q.Session(&gorm.Session{}), f).Order(order).Find(&list).Error
	return list, total, err
}

func like(s string) string {
	return "%" + s + "%"
}

// first loads a single row and maps not-found onto domain.ErrNotFound.
func first[T any](q *gorm.DB) (*T, error) {
	var row T
	if err := q.First(&row).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &row, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
