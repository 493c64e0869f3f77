package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PayoutMethod      string          `gorm:"size:10;not null" json:"payout_method"` // upi | bank
	UPIID             string          `gorm:"column:upi_id;size:128" json:"upi_id,omitempty"`
	AccountHolderName string          `gorm:"size:255" json:"account_holder_name,omitempty"`
	AccountNumber     string          `gorm:"size:64" json:"account_number,omitempty"`
	IFSCCode          string          `gorm:"column:ifsc_code;size:16" json:"ifsc_code,omitempty"`
	BankName          string          `gorm:"size:255" json:"bank_name,omitempty"`
	Status            string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNotes        string          `gorm:"type:text" json:"admin_notes"`
	Version           uint            `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
