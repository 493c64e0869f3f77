package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/validate"

	"github.com/shopspring/decimal"
)

type WithdrawalInput struct {
	Amount decimal.Decimal
	Payout validate.Payout
}

type WithdrawalService struct {
	wallets     *repository.WalletRepository
	withdrawals *repository.WithdrawalRepository
	logger      *slog.Logger
}

func NewWithdrawalService(wallets *repository.WalletRepository, withdrawals *repository.WithdrawalRepository, logger *slog.Logger) *WithdrawalService {
	return &WithdrawalService{wallets: wallets, withdrawals: withdrawals, logger: logging.Component(logger, "withdrawals")}
}

// Create files a pending withdrawal. The wallet is only debited when an admin approves,
// but a request larger than the current balance is refused up front.
func (s *WithdrawalService) Create(ctx context.Context, userID uint, in WithdrawalInput) (*models.WithdrawalRequest, error) {
	if err := validate.Withdrawal(in.Amount, in.Payout); err != nil {
		return nil, err
	}
	wallet, err := s.wallets.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if in.Amount.GreaterThan(wallet.Balance) {
		return nil, fmt.Errorf("%w: requested %s, available %s", domain.ErrInsufficientBalance,
			in.Amount.StringFixed(2), wallet.Balance.StringFixed(2))
	}
	p := in.Payout
	w := &models.WithdrawalRequest{
		UserID:       userID,
		Amount:       in.Amount.Round(2),
		PayoutMethod: p.Method,
		Status:       string(domain.StatusPending),
		Version:      1,
	}
	if p.Method == domain.PayoutMethodUPI {
		w.UPIID = strings.TrimSpace(p.UPIID)
	} else {
		w.AccountHolderName = strings.TrimSpace(p.AccountHolderName)
		w.AccountNumber = strings.TrimSpace(p.AccountNumber)
		w.IFSCCode = strings.ToUpper(strings.TrimSpace(p.IFSCCode))
		w.BankName = strings.TrimSpace(p.BankName)
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal requested",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("withdrawal_id", uint64(w.ID)),
		slog.String("amount", w.Amount.StringFixed(2)),
		slog.String("method", w.PayoutMethod),
	)
	return w, nil
}

func (s *WithdrawalService) List(ctx context.Context, f repository.ListFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawals.List(ctx, f)
}
