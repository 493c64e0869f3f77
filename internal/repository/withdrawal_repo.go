package repository

import (
	"context"

	"melodist/internal/database"
	"melodist/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(w).Error)
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	return first[models.WithdrawalRequest](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *WithdrawalRepository) List(ctx context.Context, f ListFilter) ([]models.WithdrawalRequest, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("upi_id LIKE ? OR account_holder_name LIKE ? OR bank_name LIKE ?", like(f.Search), like(f.Search), like(f.Search))
	}
	return listPage[models.WithdrawalRequest](q, f, "created_at DESC")
}
