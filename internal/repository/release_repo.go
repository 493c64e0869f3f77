package repository

import (
	"context"

	"melodist/internal/database"
	"melodist/internal/models"

	"gorm.io/gorm"
)

type ReleaseRepository struct {
	db *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

func (r *ReleaseRepository) Create(ctx context.Context, rel *models.Release) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(rel).Error)
}

func (r *ReleaseRepository) GetByID(ctx context.Context, id uint) (*models.Release, error) {
	return first[models.Release](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *ReleaseRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Release, error) {
	return first[models.Release](r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *ReleaseRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Release, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Release
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// List serves both the customer view (UserID set) and the admin view (UserID zero).
func (r *ReleaseRepository) List(ctx context.Context, f ListFilter) ([]models.Release, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.Release{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("song_name LIKE ? OR copyright LIKE ?", like(f.Search), like(f.Search))
	}
	return listPage[models.Release](q, f, "created_at DESC")
}

func (r *ReleaseRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Release{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}
