package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoyaltyReport struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Period    string          `gorm:"size:16;not null;index" json:"period"` // YYYY-MM
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReportURL string          `gorm:"size:512" json:"report_url"`
	Note      string          `gorm:"type:text" json:"note"`
	CreatedBy uint            `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

func (RoyaltyReport) TableName() string {
	return "royalty_reports"
}
