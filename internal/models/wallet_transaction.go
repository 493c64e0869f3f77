package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransaction is an append-only ledger row: positive amounts credit, negative debit.
type WalletTransaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type      string          `gorm:"size:30;not null;index" json:"type"` // royalty, withdrawal, refund
	Reference string          `gorm:"size:128" json:"reference"`          // e.g. withdrawal:12, royalty_report:4
	Note      string          `gorm:"type:text" json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
