package repository

import (
	"context"

	"melodist/internal/database"
	"melodist/internal/models"

	"gorm.io/gorm"
)

type TakedownRepository struct {
	db *gorm.DB
}

func NewTakedownRepository(db *gorm.DB) *TakedownRepository {
	return &TakedownRepository{db: db}
}

func (r *TakedownRepository) Create(ctx context.Context, t *models.TakedownRequest) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *TakedownRepository) GetByID(ctx context.Context, id uint) (*models.TakedownRequest, error) {
	return first[models.TakedownRequest](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *TakedownRepository) List(ctx context.Context, f ListFilter) ([]models.TakedownRequest, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.TakedownRequest{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("youtube_url LIKE ?", like(f.Search))
	}
	return listPage[models.TakedownRequest](q, f, "created_at DESC")
}

type OACRepository struct {
	db *gorm.DB
}

func NewOACRepository(db *gorm.DB) *OACRepository {
	return &OACRepository{db: db}
}

func (r *OACRepository) Create(ctx context.Context, o *models.OACRequest) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *OACRepository) GetByID(ctx context.Context, id uint) (*models.OACRequest, error) {
	return first[models.OACRequest](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *OACRepository) List(ctx context.Context, f ListFilter) ([]models.OACRequest, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.OACRequest{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("topic_channel_url LIKE ? OR artist_channel_url LIKE ?", like(f.Search), like(f.Search))
	}
	return listPage[models.OACRequest](q, f, "created_at DESC")
}
