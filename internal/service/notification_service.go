package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/repository"

	"github.com/shopspring/decimal"
)

type NotificationService struct {
	repo   *repository.NotificationRepository
	logger *slog.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logging.Component(logger, "notifications")}
}

func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

var entityTitles = map[domain.Entity]string{
	domain.EntityRelease:    "Release",
	domain.EntityWithdrawal: "Withdrawal request",
	domain.EntityTakedown:   "Takedown request",
	domain.EntityOAC:        "OAC request",
}

func humanStatus(s domain.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// NotifyStatusChanged tells the record owner about an admin decision. Failures are logged
// and swallowed; the status change itself has already committed.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, userID uint, e domain.Entity, recordID uint, from, to domain.Status, note string) {
	title := fmt.Sprintf("%s %s", entityTitles[e], humanStatus(to))
	body := fmt.Sprintf("Your %s #%d moved from %s to %s.", strings.ToLower(entityTitles[e]), recordID, humanStatus(from), humanStatus(to))
	if note != "" {
		body += " Note: " + note
	}
	err := s.Notify(ctx, userID, domain.NotificationStatusChanged, title, body, map[string]interface{}{
		"entity":    string(e),
		"record_id": recordID,
		"from":      string(from),
		"to":        string(to),
	})
	if err != nil {
		s.logger.Warn("status notification failed", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
	}
}

func (s *NotificationService) NotifyWalletCredit(ctx context.Context, userID uint, amount decimal.Decimal, period string) {
	err := s.Notify(ctx, userID, domain.NotificationWalletCredit, "Royalties credited",
		fmt.Sprintf("%s was added to your wallet for %s.", amount.StringFixed(2), period),
		map[string]interface{}{"amount": amount.StringFixed(2), "period": period})
	if err != nil {
		s.logger.Warn("credit notification failed", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) ([]models.Notification, int64, error) {
	return s.repo.List(ctx, repository.ListFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
