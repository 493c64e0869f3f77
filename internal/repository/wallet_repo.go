package repository

import (
	"context"
	"errors"

	"melodist/internal/database"
	"melodist/internal/domain"
	"melodist/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return first[models.Wallet](r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	w, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if currency == "" {
		currency = "INR"
	}
	w = &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: currency}
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return r.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return w, nil
}

// Credit adds amount to the user's balance, creating the wallet when missing.
func (r *WalletRepository) Credit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	if _, err := r.GetOrCreate(ctx, userID, ""); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// Debit subtracts amount only when the balance covers it.
func (r *WalletRepository) Debit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByUserID(ctx, userID); err != nil {
			return err
		}
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (r *WalletRepository) AddTransaction(ctx context.Context, t *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *WalletRepository) Transactions(ctx context.Context, f ListFilter) ([]models.WalletTransaction, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.WalletTransaction{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("type = ?", f.Status)
	}
	return listPage[models.WalletTransaction](q, f, "created_at DESC, id DESC")
}
