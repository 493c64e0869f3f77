package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type RoyaltyCredit struct {
	UserID    uint
	Amount    decimal.Decimal
	Period    string // YYYY-MM
	ReportURL string
	Note      string
}

type RoyaltyService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	wallets  *repository.WalletRepository
	reports  *repository.RoyaltyRepository
	notifier *NotificationService
	logger   *slog.Logger
}

func NewRoyaltyService(db *gorm.DB, notifier *NotificationService, logger *slog.Logger) *RoyaltyService {
	return &RoyaltyService{
		db:       db,
		users:    repository.NewUserRepository(db),
		wallets:  repository.NewWalletRepository(db),
		reports:  repository.NewRoyaltyRepository(db),
		notifier: notifier,
		logger:   logging.Component(logger, "royalties"),
	}
}

// Credit adds royalties to a wallet, records the ledger row and the statement together.
func (s *RoyaltyService) Credit(ctx context.Context, actor Actor, in RoyaltyCredit) (*models.RoyaltyReport, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Invalid("amount", "must be greater than zero")
	}
	in.Period = strings.TrimSpace(in.Period)
	if !periodPattern.MatchString(in.Period) {
		return nil, domain.Invalid("period", "must be YYYY-MM")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	amount := in.Amount.Round(2)
	report := &models.RoyaltyReport{
		UserID:    in.UserID,
		Period:    in.Period,
		Amount:    amount,
		ReportURL: strings.TrimSpace(in.ReportURL),
		Note:      strings.TrimSpace(in.Note),
		CreatedBy: actor.ID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.reports.WithTx(tx).Create(ctx, report); err != nil {
			return err
		}
		wallets := s.wallets.WithTx(tx)
		if err := wallets.Credit(ctx, in.UserID, amount); err != nil {
			return err
		}
		return wallets.AddTransaction(ctx, &models.WalletTransaction{
			UserID:    in.UserID,
			Amount:    amount,
			Type:      domain.LedgerRoyalty,
			Reference: "royalty_report:" + strconv.FormatUint(uint64(report.ID), 10),
			Note:      report.Note,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("royalties credited",
		slog.Uint64("user_id", uint64(in.UserID)),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("period", in.Period),
		slog.String("actor", actor.Email),
	)
	if s.notifier != nil {
		s.notifier.NotifyWalletCredit(ctx, in.UserID, amount, in.Period)
	}
	return report, nil
}

func (s *RoyaltyService) List(ctx context.Context, f repository.ListFilter) ([]models.RoyaltyReport, int64, error) {
	return s.reports.List(ctx, f)
}
