package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/metrics"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/validate"
	"melodist/internal/ws"

	"gorm.io/gorm"
)

// Actor identifies who performed an admin action.
type Actor struct {
	ID    uint
	Email string
}

// Broadcaster pushes events to live admin consoles.
type Broadcaster interface {
	Broadcast(payload interface{})
}

type TransitionRequest struct {
	Entity          domain.Entity
	ID              uint
	To              string
	Note            string
	ExpectedVersion *uint
}

type TransitionResult struct {
	Entity  domain.Entity `json:"entity"`
	ID      uint          `json:"id"`
	From    domain.Status `json:"from"`
	To      domain.Status `json:"to"`
	Version uint          `json:"version"`
	Note    string        `json:"note,omitempty"`
	At      time.Time     `json:"at"`
}

// StatusOptions is what an admin selector needs for one entity.
type StatusOptions struct {
	Entity      domain.Entity                     `json:"entity"`
	Statuses    []domain.Status                   `json:"statuses"`
	Transitions map[domain.Status][]domain.Status `json:"transitions"`
}

type StatusService struct {
	db       *gorm.DB
	status   *repository.StatusRepository
	wallets  *repository.WalletRepository
	notifier *NotificationService
	hub      Broadcaster
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewStatusService(
	db *gorm.DB,
	notifier *NotificationService,
	hub Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StatusService {
	return &StatusService{
		db:       db,
		status:   repository.NewStatusRepository(db),
		wallets:  repository.NewWalletRepository(db),
		notifier: notifier,
		hub:      hub,
		metrics:  m,
		logger:   logging.Component(logger, "status"),
		now:      time.Now,
	}
}

// Apply moves one record to a new status. The status update, the wallet side effects and
// the history row commit together; notification and broadcast follow the commit.
func (s *StatusService) Apply(ctx context.Context, actor Actor, req TransitionRequest) (*TransitionResult, error) {
	to, err := domain.ParseStatus(req.Entity, req.To)
	if err != nil {
		return nil, err
	}
	note, err := validate.Note(to, req.Note)
	if err != nil {
		return nil, err
	}

	var (
		result *TransitionResult
		owner  uint
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		statusRepo := s.status.WithTx(tx)
		rec, err := statusRepo.Load(ctx, req.Entity, req.ID)
		if err != nil {
			return err
		}
		from, err := domain.ParseStatus(req.Entity, rec.Status)
		if err != nil {
			return fmt.Errorf("stored status %q: %w", rec.Status, err)
		}
		if !domain.CanTransition(req.Entity, from, to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != rec.Version {
			return fmt.Errorf("%w: expected version %d, found %d", domain.ErrConflict, *req.ExpectedVersion, rec.Version)
		}

		now := s.now()
		extra := map[string]any{}
		if req.Entity == domain.EntityRelease && to == domain.StatusApproved {
			extra["approved_at"] = now
		}
		err = statusRepo.CompareAndSwap(ctx, req.Entity, repository.StatusUpdate{
			ID:      rec.ID,
			From:    domain.Status(rec.Status),
			To:      to,
			Version: rec.Version,
			Note:    note,
			Extra:   extra,
		})
		if err != nil {
			return err
		}
		if req.Entity == domain.EntityWithdrawal {
			if err := s.settleWithdrawal(ctx, tx, rec, from, to); err != nil {
				return err
			}
		}
		err = statusRepo.AppendChange(ctx, &models.StatusChange{
			Entity:     string(req.Entity),
			RecordID:   rec.ID,
			FromStatus: string(from),
			ToStatus:   string(to),
			Note:       note,
			ActorID:    actor.ID,
			ActorEmail: actor.Email,
			Version:    rec.Version + 1,
		})
		if err != nil {
			return err
		}
		owner = rec.UserID
		result = &TransitionResult{
			Entity:  req.Entity,
			ID:      rec.ID,
			From:    from,
			To:      to,
			Version: rec.Version + 1,
			Note:    note,
			At:      now,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.metrics.ObserveConflict(string(req.Entity))
		}
		return nil, err
	}

	s.metrics.ObserveTransition(string(result.Entity), string(result.To))
	s.logger.Info("status changed",
		slog.String("entity", string(result.Entity)),
		slog.Uint64("record_id", uint64(result.ID)),
		slog.String("from", string(result.From)),
		slog.String("to", string(result.To)),
		slog.Uint64("version", uint64(result.Version)),
		slog.String("actor", actor.Email),
	)
	if s.notifier != nil {
		s.notifier.NotifyStatusChanged(ctx, owner, result.Entity, result.ID, result.From, result.To, result.Note)
	}
	if s.hub != nil {
		s.hub.Broadcast(ws.Event{
			Type:     ws.EventStatusChanged,
			Entity:   string(result.Entity),
			RecordID: result.ID,
			From:     string(result.From),
			To:       string(result.To),
			Version:  result.Version,
			ActorID:  actor.ID,
			At:       result.At,
		})
	}
	return result, nil
}

// settleWithdrawal debits the wallet on approval and refunds it when an approved
// withdrawal is rejected.
func (s *StatusService) settleWithdrawal(ctx context.Context, tx *gorm.DB, rec *repository.StatusRecord, from, to domain.Status) error {
	wallets := s.wallets.WithTx(tx)
	ref := "withdrawal:" + strconv.FormatUint(uint64(rec.ID), 10)
	switch {
	case to == domain.StatusApproved:
		if err := wallets.Debit(ctx, rec.UserID, rec.Amount); err != nil {
			return err
		}
		return wallets.AddTransaction(ctx, &models.WalletTransaction{
			UserID:    rec.UserID,
			Amount:    rec.Amount.Neg(),
			Type:      domain.LedgerWithdrawal,
			Reference: ref,
		})
	case from == domain.StatusApproved && to == domain.StatusRejected:
		if err := wallets.Credit(ctx, rec.UserID, rec.Amount); err != nil {
			return err
		}
		return wallets.AddTransaction(ctx, &models.WalletTransaction{
			UserID:    rec.UserID,
			Amount:    rec.Amount,
			Type:      domain.LedgerRefund,
			Reference: ref,
		})
	}
	return nil
}

// History lists a record's status changes, newest first.
func (s *StatusService) History(ctx context.Context, e domain.Entity, id uint) ([]models.StatusChange, error) {
	if _, err := s.status.Load(ctx, e, id); err != nil {
		return nil, err
	}
	return s.status.History(ctx, e, id)
}

// Queue lists the oldest records waiting in a status.
func (s *StatusService) Queue(ctx context.Context, e domain.Entity, st domain.Status, limit int) ([]repository.StatusRecord, error) {
	return s.status.ListByStatus(ctx, e, st, limit)
}

func Options(e domain.Entity) StatusOptions {
	opts := StatusOptions{Entity: e, Statuses: domain.Options(e), Transitions: map[domain.Status][]domain.Status{}}
	for _, st := range opts.Statuses {
		if next := domain.AllowedFrom(e, st); len(next) > 0 {
			opts.Transitions[st] = next
		}
	}
	return opts
}

// AllOptions returns selector options for every entity.
func AllOptions() []StatusOptions {
	out := make([]StatusOptions, 0, len(domain.Entities))
	for _, e := range domain.Entities {
		out = append(out, Options(e))
	}
	return out
}
