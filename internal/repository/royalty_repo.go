package repository

import (
	"context"

	"melodist/internal/models"

	"gorm.io/gorm"
)

type RoyaltyRepository struct {
	db *gorm.DB
}

func NewRoyaltyRepository(db *gorm.DB) *RoyaltyRepository {
	return &RoyaltyRepository{db: db}
}

func (r *RoyaltyRepository) WithTx(tx *gorm.DB) *RoyaltyRepository {
	return &RoyaltyRepository{db: tx}
}

func (r *RoyaltyRepository) Create(ctx context.Context, rep *models.RoyaltyReport) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *RoyaltyRepository) List(ctx context.Context, f ListFilter) ([]models.RoyaltyReport, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.RoyaltyReport{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Search != "" {
		q = q.Where("period LIKE ?", like(f.Search))
	}
	return listPage[models.RoyaltyReport](q, f, "period DESC, id DESC")
}
