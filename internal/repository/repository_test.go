package repository

import (
	"context"
	"errors"
	"testing"

	"melodist/internal/database/testdb"
	"melodist/internal/domain"
	"melodist/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email}
	if err := NewUserRepository(db).CreateWithProfile(context.Background(), u, &models.Profile{FullName: "Test " + email}, "INR"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateWithProfileCreatesWallet(t *testing.T) {
	db := testdb.Open(t)
	u := seedUser(t, db, "a@example.com")

	w, err := NewWalletRepository(db).GetByUserID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("expected wallet, got %v", err)
	}
	if !w.Balance.IsZero() || w.Currency != "INR" {
		t.Fatalf("expected empty INR wallet, got %s %s", w.Balance, w.Currency)
	}
	got, err := NewUserRepository(db).GetByEmail(context.Background(), "a@example.com")
	if err != nil || got.Profile == nil || got.Profile.Email != "a@example.com" {
		t.Fatalf("expected preloaded profile, got %+v %v", got, err)
	}
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	db := testdb.Open(t)
	seedUser(t, db, "dup@example.com")
	err := NewUserRepository(db).CreateWithProfile(context.Background(), &models.User{Email: "dup@example.com"}, &models.Profile{}, "INR")
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestWalletDebitIsConditional(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "w@example.com")
	repo := NewWalletRepository(db)

	if err := repo.Credit(ctx, u.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := repo.Debit(ctx, u.ID, decimal.NewFromInt(600)); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := repo.Debit(ctx, u.ID, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("debit: %v", err)
	}
	w, _ := repo.GetByUserID(ctx, u.ID)
	if !w.Balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected balance 300, got %s", w.Balance)
	}
	if err := repo.Debit(ctx, 9999, decimal.NewFromInt(1)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing wallet, got %v", err)
	}
}

func TestListFilterScopesAndPaginates(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	repo := NewTakedownRepository(db)
	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &models.TakedownRequest{UserID: a.ID, ReleaseID: 1, LabelID: 1, YouTubeURL: "https://youtube.com/watch?v=a", Status: "pending", Version: 1}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.Create(ctx, &models.TakedownRequest{UserID: b.ID, ReleaseID: 2, LabelID: 2, YouTubeURL: "https://youtu.be/b", Status: "rejected", Version: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, total, err := repo.List(ctx, ListFilter{UserID: a.ID, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("expected total 3 and page of 2, got %d/%d", total, len(list))
	}
	_, total, _ = repo.List(ctx, ListFilter{Status: "rejected"})
	if total != 1 {
		t.Fatalf("expected 1 rejected, got %d", total)
	}
	_, total, _ = repo.List(ctx, ListFilter{Search: "youtu.be"})
	if total != 1 {
		t.Fatalf("expected search to match 1, got %d", total)
	}
}

func TestStatusCompareAndSwap(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "s@example.com")
	rel := &models.Release{UserID: u.ID, ReleaseType: "single", SongName: "Song", ArtistID: 1, AudioFile: "a.mp3", Status: "pending", Version: 1}
	if err := NewReleaseRepository(db).Create(ctx, rel); err != nil {
		t.Fatalf("create release: %v", err)
	}
	repo := NewStatusRepository(db)

	rec, err := repo.Load(ctx, domain.EntityRelease, rel.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Status != "pending" || rec.Version != 1 || rec.UserID != u.ID {
		t.Fatalf("unexpected record %+v", rec)
	}

	upd := StatusUpdate{ID: rel.ID, From: domain.StatusPending, To: domain.StatusApproved, Version: 1, Note: "ok"}
	if err := repo.CompareAndSwap(ctx, domain.EntityRelease, upd); err != nil {
		t.Fatalf("cas: %v", err)
	}
	if err := repo.CompareAndSwap(ctx, domain.EntityRelease, upd); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}

	got, _ := NewReleaseRepository(db).GetByID(ctx, rel.ID)
	if got.Status != "approved" || got.Version != 2 || got.AdminNotes != "ok" {
		t.Fatalf("unexpected release after cas: %+v", got)
	}
	if got.SongName != "Song" || got.ArtistID != 1 || got.AudioFile != "a.mp3" {
		t.Fatalf("cas touched unrelated columns: %+v", got)
	}

	if _, err := repo.Load(ctx, domain.EntityRelease, 4242); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Load(ctx, domain.Entity("invoice"), 1); !errors.Is(err, domain.ErrInvalidEntity) {
		t.Fatalf("expected ErrInvalidEntity, got %v", err)
	}
}

func TestStatusHistoryNewestFirst(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewStatusRepository(db)
	for _, to := range []string{"in_process", "completed"} {
		if err := repo.AppendChange(ctx, &models.StatusChange{Entity: "takedown", RecordID: 7, FromStatus: "pending", ToStatus: to, Version: 2}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	list, err := repo.History(ctx, domain.EntityTakedown, 7)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(list) != 2 || list[0].ToStatus != "completed" {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestDashboardStatsFillsEveryStatus(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	u := seedUser(t, db, "d@example.com")
	if err := NewWithdrawalRepository(db).Create(ctx, &models.WithdrawalRequest{UserID: u.ID, Amount: decimal.NewFromInt(10), PayoutMethod: "upi", UPIID: "x@upi", Status: "pending", Version: 1}); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	stats, err := NewAdminRepository(db).GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 1 {
		t.Fatalf("expected 1 user, got %d", stats.TotalUsers)
	}
	w := stats.StatusCounts["withdrawal"]
	if w["pending"] != 1 || w["paid"] != 0 || len(w) != 4 {
		t.Fatalf("unexpected withdrawal counts %v", w)
	}
	if len(stats.StatusCounts["release"]) != 6 {
		t.Fatalf("expected all release statuses, got %v", stats.StatusCounts["release"])
	}
}

func TestNotificationMarkReadIsOwnerScoped(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)
	n := &models.Notification{UserID: 1, Type: domain.NotificationStatusChanged, Title: "t"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.MarkRead(ctx, n.ID, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if err := repo.MarkRead(ctx, n.ID, 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if c, _ := repo.UnreadCount(ctx, 1); c != 0 {
		t.Fatalf("expected 0 unread, got %d", c)
	}
}
