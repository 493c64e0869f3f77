package repository

import (
	"context"
	"time"

	"melodist/internal/database"
	"melodist/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user, its profile and an empty wallet together.
func (r *UserRepository) CreateWithProfile(ctx context.Context, u *models.User, p *models.Profile, currency string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return database.TranslateError(err)
		}
		p.UserID = u.ID
		if p.Email == "" {
			p.Email = u.Email
		}
		if err := tx.Create(p).Error; err != nil {
			return database.TranslateError(err)
		}
		u.Profile = p
		return tx.Create(&models.Wallet{UserID: u.ID, Currency: currency}).Error
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](r.db.WithContext(ctx).Preload("Profile").Where("email = ?", email))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return first[models.User](r.db.WithContext(ctx).Preload("Profile").Where("google_id = ?", googleID))
}

// LinkGoogle attaches a Google identity whose email Google has verified. The email counts
// as verified from then on. A password set before verification is dropped because nothing
// proves its author owned the address.
func (r *UserRepository) LinkGoogle(ctx context.Context, u *models.User, googleID string, at time.Time) error {
	updates := map[string]any{"google_id": googleID}
	if u.EmailVerifiedAt == nil {
		updates["email_verified_at"] = at
		updates["password_hash"] = ""
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		return database.TranslateError(err)
	}
	u.GoogleID = &googleID
	if u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &at
		u.PasswordHash = ""
	}
	return nil
}

// MarkEmailVerified sets the verification time once. Later calls keep the first time.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, u *models.User, at time.Time) error {
	if u.EmailVerifiedAt != nil {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", u.ID).
		Update("email_verified_at", at).Error
	if err != nil {
		return err
	}
	u.EmailVerifiedAt = &at
	return nil
}

func (r *UserRepository) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return first[models.Profile](r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *ProfileRepository) Update(ctx context.Context, userID uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// ListByUserIDs returns profiles for the given users; missing users are simply absent.
func (r *ProfileRepository) ListByUserIDs(ctx context.Context, userIDs []uint) ([]models.Profile, error) {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Profile
	err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *ProfileRepository) List(ctx context.Context, f ListFilter) ([]models.Profile, int64, error) {
	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&models.Profile{})
	if f.Search != "" {
		q = q.Where("full_name LIKE ? OR email LIKE ?", like(f.Search), like(f.Search))
	}
	return listPage[models.Profile](q, f, "created_at DESC")
}
