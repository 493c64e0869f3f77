package repository

import (
	"context"

	"melodist/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *AuditLogRepository) List(ctx context.Context, f ListFilter) ([]models.AuditLog, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Search != "" {
		q = q.Where("action LIKE ?", like(f.Search))
	}
	return listPage[models.AuditLog](q, f, "created_at DESC, id DESC")
}
