package repository

import (
	"context"
	"time"

	"melodist/internal/database"
	"melodist/internal/domain"
	"melodist/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var entityTables = map[domain.Entity]string{
	domain.EntityRelease:    "releases",
	domain.EntityWithdrawal: "withdrawal_requests",
	domain.EntityTakedown:   "takedown_requests",
	domain.EntityOAC:        "oac_requests",
}

// TableFor returns the table backing a status-bearing entity.
func TableFor(e domain.Entity) (string, error) {
	t, ok := entityTables[e]
	if !ok {
		return "", domain.ErrInvalidEntity
	}
	return t, nil
}

// StatusRecord is the slice of a status-bearing row the transition logic needs.
// Amount is only loaded for withdrawals.
type StatusRecord struct {
	ID        uint
	UserID    uint
	Status    string
	Version   uint
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// StatusUpdate is one compare-and-swap on a status row.
type StatusUpdate struct {
	ID      uint
	From    domain.Status
	To      domain.Status
	Version uint
	Note    string
	Extra   map[string]any
}

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) WithTx(tx *gorm.DB) *StatusRepository {
	return &StatusRepository{db: tx}
}

func columnsFor(e domain.Entity) string {
	if e == domain.EntityWithdrawal {
		return "id, user_id, status, version, amount, created_at"
	}
	return "id, user_id, status, version, created_at"
}

func (r *StatusRepository) Load(ctx context.Context, e domain.Entity, id uint) (*StatusRecord, error) {
	table, err := TableFor(e)
	if err != nil {
		return nil, err
	}
	var rec StatusRecord
	err = r.db.WithContext(ctx).Table(table).Select(columnsFor(e)).Where("id = ?", id).Take(&rec).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &rec, nil
}

// CompareAndSwap moves the row from u.From to u.To only if nobody changed it since
// version u.Version was read. A lost race returns domain.ErrConflict.
func (r *StatusRepository) CompareAndSwap(ctx context.Context, e domain.Entity, u StatusUpdate) error {
	table, err := TableFor(e)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"status":     string(u.To),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if u.Note != "" {
		updates["admin_notes"] = u.Note
	}
	for k, v := range u.Extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND status = ? AND version = ?", u.ID, string(u.From), u.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *StatusRepository) AppendChange(ctx context.Context, c *models.StatusChange) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// History lists a record's status changes, newest first.
func (r *StatusRepository) History(ctx context.Context, e domain.Entity, id uint) ([]models.StatusChange, error) {
	var list []models.StatusChange
	err := r.db.WithContext(ctx).
		Where("entity = ? AND record_id = ?", string(e), id).
		Order("id DESC").
		Find(&list).Error
	return list, err
}

// ListByStatus returns the oldest rows in a status, for review queues.
func (r *StatusRepository) ListByStatus(ctx context.Context, e domain.Entity, st domain.Status, limit int) ([]StatusRecord, error) {
	table, err := TableFor(e)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 50
	}
	var list []StatusRecord
	err = r.db.WithContext(ctx).Table(table).Select(columnsFor(e)).
		Where("status = ?", string(st)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// CountByStatus groups an entity's rows by status.
func (r *StatusRepository) CountByStatus(ctx context.Context, e domain.Entity) (map[string]int64, error) {
	table, err := TableFor(e)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string
		Count  int64
	}
	err = r.db.WithContext(ctx).Table(table).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
