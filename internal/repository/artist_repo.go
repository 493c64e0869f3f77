package repository

import (
	"context"

	"melodist/internal/database"
	"melodist/internal/models"

	"gorm.io/gorm"
)

type ArtistRepository struct {
	db *gorm.DB
}

func NewArtistRepository(db *gorm.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

func (r *ArtistRepository) Create(ctx context.Context, a *models.Artist) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *ArtistRepository) Save(ctx context.Context, a *models.Artist) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ArtistRepository) GetByID(ctx context.Context, id uint) (*models.Artist, error) {
	return first[models.Artist](r.db.WithContext(ctx).Where("id = ?", id))
}

// GetOwned returns the artist only when it belongs to userID.
func (r *ArtistRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Artist, error) {
	return first[models.Artist](r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *ArtistRepository) ListByUser(ctx context.Context, userID uint) ([]models.Artist, error) {
	var list []models.Artist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *ArtistRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Artist, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Artist
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *ArtistRepository) List(ctx context.Context, f ListFilter) ([]models.Artist, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.Artist{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", like(f.Search), like(f.Search))
	}
	return listPage[models.Artist](q, f, "created_at DESC")
}

func (r *ArtistRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Artist{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}

type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) Create(ctx context.Context, l *models.Label) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(l).Error)
}

func (r *LabelRepository) Save(ctx context.Context, l *models.Label) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LabelRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Label, error) {
	return first[models.Label](r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *LabelRepository) ListByUser(ctx context.Context, userID uint) ([]models.Label, error) {
	var list []models.Label
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *LabelRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Label, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Label
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *LabelRepository) List(ctx context.Context, f ListFilter) ([]models.Label, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.Label{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", like(f.Search), like(f.Search))
	}
	return listPage[models.Label](q, f, "created_at DESC")
}

func (r *LabelRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Label{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}
