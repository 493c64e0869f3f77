package repository

import (
	"context"
	"time"

	"melodist/internal/domain"
	"melodist/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers        int64                       `json:"total_users"`
	TotalArtists      int64                       `json:"total_artists"`
	TotalLabels       int64                       `json:"total_labels"`
	TotalWalletFunds  decimal.Decimal             `json:"total_wallet_funds"`
	TotalRoyalties    decimal.Decimal             `json:"total_royalties"`
	StatusCounts      map[string]map[string]int64 `json:"status_counts"`
	RecentSignupsWeek int64                       `json:"recent_signups_week"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AdminRepository struct {
	db     *gorm.DB
	status *StatusRepository
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db, status: NewStatusRepository(db)}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	s := DashboardStats{StatusCounts: make(map[string]map[string]int64, len(domain.Entities))}
	if err := db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Artist{}).Count(&s.TotalArtists).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Label{}).Count(&s.TotalLabels).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("created_at >= ?", time.Now().AddDate(0, 0, -7)).Count(&s.RecentSignupsWeek).Error; err != nil {
		return nil, err
	}

	var sum struct{ Total decimal.NullDecimal }
	if err := db.Model(&models.Wallet{}).Select("SUM(balance) AS total").Scan(&sum).Error; err != nil {
		return nil, err
	}
	s.TotalWalletFunds = sum.Total.Decimal
	sum.Total = decimal.NullDecimal{}
	if err := db.Model(&models.RoyaltyReport{}).Select("SUM(amount) AS total").Scan(&sum).Error; err != nil {
		return nil, err
	}
	s.TotalRoyalties = sum.Total.Decimal

	for _, e := range domain.Entities {
		counts, err := r.status.CountByStatus(ctx, e)
		if err != nil {
			return nil, err
		}
		// every enum member is present so the console can render zeroes
		full := make(map[string]int64, len(counts))
		for _, st := range domain.Options(e) {
			full[string(st)] = counts[string(st)]
		}
		s.StatusCounts[string(e)] = full
	}
	return &s, nil
}

// SignupsByDay returns daily signup counts for the last N days.
func (r *AdminRepository) SignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// ReleasesByDay returns daily release submission counts for the last N days.
func (r *AdminRepository) ReleasesByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.Release{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
