package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"melodist/config"
	"melodist/internal/auth"
	"melodist/internal/database/testdb"
	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/metrics"
	"melodist/internal/models"
	"melodist/internal/policy"
	"melodist/internal/repository"
	"melodist/pkg/catalog"
	"melodist/pkg/cloudinary"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeStorage struct {
	mu        sync.Mutex
	uploads   []string
	destroyed []string
	failCover bool
}

func (f *fakeStorage) UploadAudio(_ context.Context, r io.Reader, userID uint, name string) (*cloudinary.Object, error) {
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := cloudinary.Folder("melodist", userID, cloudinary.KindAudio) + "/" + name
	f.uploads = append(f.uploads, id)
	return &cloudinary.Object{URL: "https://cdn.test/" + id, PublicID: id, ResourceType: cloudinary.ResourceVideo}, nil
}

func (f *fakeStorage) UploadCover(_ context.Context, r io.Reader, userID uint, name string) (*cloudinary.Object, error) {
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCover {
		return nil, errors.New("cover upload failed")
	}
	id := cloudinary.Folder("melodist", userID, cloudinary.KindCovers) + "/" + name
	f.uploads = append(f.uploads, id)
	return &cloudinary.Object{URL: "https://cdn.test/" + id, PublicID: id, ResourceType: cloudinary.ResourceImage}, nil
}

func (f *fakeStorage) Destroy(_ context.Context, publicID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type fakeSearcher struct {
	title, artist string
}

func (f *fakeSearcher) SearchTrack(_ context.Context, title, artist string) ([]catalog.Match, error) {
	f.title, f.artist = title, artist
	return []catalog.Match{{TrackID: "t1", Title: title, Artists: []string{artist}, Exact: true}}, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []interface{}
}

func (h *recordingHub) Broadcast(payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, payload)
}

type env struct {
	db       *gorm.DB
	status   *StatusService
	hub      *recordingHub
	notifier *NotificationService
	storage  *fakeStorage
	searcher *fakeSearcher
	releases *ReleaseService
	requests *RequestService
	wallets  *repository.WalletRepository
	dir      *Directory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	logger := logging.Discard()
	e := &env{db: db, hub: &recordingHub{}, storage: &fakeStorage{}, searcher: &fakeSearcher{}}
	e.notifier = NewNotificationService(repository.NewNotificationRepository(db), logger)
	e.status = NewStatusService(db, e.notifier, e.hub, metrics.New(), logger)
	e.wallets = repository.NewWalletRepository(db)
	artists := repository.NewArtistRepository(db)
	labels := repository.NewLabelRepository(db)
	releases := repository.NewReleaseRepository(db)
	e.releases = NewReleaseService(releases, artists, labels, e.storage, e.searcher, logger)
	e.requests = NewRequestService(releases, artists, labels, repository.NewTakedownRepository(db), repository.NewOACRepository(db), logger)
	e.dir = NewDirectory(artists, labels, repository.NewProfileRepository(db), releases)
	return e
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email}
	if err := repository.NewUserRepository(e.db).CreateWithProfile(context.Background(), u, &models.Profile{FullName: "Owner " + email}, "INR"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *env) artist(t *testing.T, userID uint, name string) *models.Artist {
	t.Helper()
	a := &models.Artist{UserID: userID, Name: name}
	if err := repository.NewArtistRepository(e.db).Create(context.Background(), a); err != nil {
		t.Fatalf("create artist: %v", err)
	}
	return a
}

func (e *env) label(t *testing.T, userID uint, name string) *models.Label {
	t.Helper()
	l := &models.Label{UserID: userID, Name: name}
	if err := repository.NewLabelRepository(e.db).Create(context.Background(), l); err != nil {
		t.Fatalf("create label: %v", err)
	}
	return l
}

func (e *env) release(t *testing.T, userID, artistID uint, status string) *models.Release {
	t.Helper()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r := &models.Release{
		UserID: userID, ReleaseType: "single", SongName: "Night Drive", ArtistID: artistID,
		AudioFile: "https://cdn.test/a.mp3", ReleaseDate: &date, Status: status, Version: 1,
	}
	if err := repository.NewReleaseRepository(e.db).Create(context.Background(), r); err != nil {
		t.Fatalf("create release: %v", err)
	}
	return r
}

func (e *env) withdrawal(t *testing.T, userID uint, amount int64, status string) *models.WithdrawalRequest {
	t.Helper()
	w := &models.WithdrawalRequest{UserID: userID, Amount: decimal.NewFromInt(amount), PayoutMethod: "upi", UPIID: "a@upi", Status: status, Version: 1}
	if err := repository.NewWithdrawalRepository(e.db).Create(context.Background(), w); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	return w
}

func (e *env) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	w, err := e.wallets.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	return w.Balance
}

var admin = Actor{ID: 99, Email: "ops@melodist.io"}

func TestApproveReleaseTouchesOnlyStatusColumns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	rel := e.release(t, u.ID, a.ID, "pending")

	res, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "approved"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.From != domain.StatusPending || res.To != domain.StatusApproved || res.Version != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	got, _ := repository.NewReleaseRepository(e.db).GetByID(ctx, rel.ID)
	if got.Status != "approved" || got.ApprovedAt == nil {
		t.Fatalf("expected approved with approved_at, got %+v", got)
	}
	if got.SongName != rel.SongName || got.ArtistID != rel.ArtistID || got.AudioFile != rel.AudioFile {
		t.Fatalf("approval changed release metadata: %+v", got)
	}
	if got.ReleaseDate == nil || !got.ReleaseDate.Equal(*rel.ReleaseDate) {
		t.Fatalf("approval must not touch release_date, got %v", got.ReleaseDate)
	}

	hist, err := e.status.History(ctx, domain.EntityRelease, rel.ID)
	if err != nil || len(hist) != 1 || hist[0].ActorEmail != admin.Email || hist[0].ToStatus != "approved" {
		t.Fatalf("expected one history row, got %+v %v", hist, err)
	}
	notes, total, _ := e.notifier.List(ctx, u.ID, 1, 10)
	if total != 1 || notes[0].Type != domain.NotificationStatusChanged {
		t.Fatalf("expected owner notification, got %+v", notes)
	}
	if len(e.hub.events) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(e.hub.events))
	}
}

func TestRejectRequiresNote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	rel := e.release(t, u.ID, e.artist(t, u.ID, "Aria").ID, "pending")

	_, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "rejected", Note: "  "})
	if !errors.Is(err, domain.ErrNoteRequired) {
		t.Fatalf("expected ErrNoteRequired, got %v", err)
	}
	got, _ := repository.NewReleaseRepository(e.db).GetByID(ctx, rel.ID)
	if got.Status != "pending" || got.Version != 1 {
		t.Fatalf("refused rejection must not change the row, got %+v", got)
	}

	if _, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "rejected", Note: "clipping in audio"}); err != nil {
		t.Fatalf("reject with note: %v", err)
	}
	got, _ = repository.NewReleaseRepository(e.db).GetByID(ctx, rel.ID)
	if got.Status != "rejected" || got.AdminNotes != "clipping in audio" {
		t.Fatalf("unexpected release %+v", got)
	}
}

func TestApplyRefusesBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	rel := e.release(t, u.ID, e.artist(t, u.ID, "Aria").ID, "pending")

	cases := []struct {
		name string
		req  TransitionRequest
		want error
	}{
		{"status outside enum", TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "paid"}, domain.ErrInvalidStatus},
		{"skipping a step", TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "live"}, domain.ErrInvalidTransition},
		{"same status", TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "pending"}, domain.ErrInvalidTransition},
		{"missing row", TransitionRequest{Entity: domain.EntityRelease, ID: 4040, To: "approved"}, domain.ErrNotFound},
		{"unknown entity", TransitionRequest{Entity: "invoice", ID: rel.ID, To: "approved"}, domain.ErrInvalidEntity},
	}
	for _, tc := range cases {
		if _, err := e.status.Apply(ctx, admin, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	stale := uint(7)
	_, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "approved", ExpectedVersion: &stale})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale version, got %v", err)
	}
	if len(e.hub.events) != 0 {
		t.Fatalf("refused transitions must not broadcast, got %d", len(e.hub.events))
	}
}

func TestReleaseLifecycleToTakedown(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	rel := e.release(t, u.ID, e.artist(t, u.ID, "Aria").ID, "pending")
	for i, to := range []string{"approved", "live", "takedown_requested", "takedown_completed"} {
		v := uint(i + 1)
		res, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: to, ExpectedVersion: &v})
		if err != nil {
			t.Fatalf("%s: %v", to, err)
		}
		if res.Version != v+1 {
			t.Fatalf("%s: expected version %d, got %d", to, v+1, res.Version)
		}
	}
	if _, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityRelease, ID: rel.ID, To: "live"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("takedown_completed is terminal, got %v", err)
	}
}

func TestWithdrawalApprovalDebitsAndRejectionRefunds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	if err := e.wallets.Credit(ctx, u.ID, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	w := e.withdrawal(t, u.ID, 200, "pending")

	if _, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityWithdrawal, ID: w.ID, To: "approved"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if b := e.balance(t, u.ID); !b.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected 300 after approval, got %s", b)
	}
	if _, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityWithdrawal, ID: w.ID, To: "rejected", Note: "bank details invalid"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if b := e.balance(t, u.ID); !b.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected refund to 500, got %s", b)
	}
	ledger, total, _ := e.wallets.Transactions(ctx, repository.ListFilter{UserID: u.ID})
	if total != 2 || ledger[0].Type != domain.LedgerRefund {
		t.Fatalf("expected withdrawal and refund ledger rows, got %+v", ledger)
	}
}

func TestWithdrawalApprovalRollsBackWhenBalanceShort(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	w := e.withdrawal(t, u.ID, 200, "pending")

	_, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityWithdrawal, ID: w.ID, To: "approved"})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	got, _ := repository.NewWithdrawalRepository(e.db).GetByID(ctx, w.ID)
	if got.Status != "pending" || got.Version != 1 {
		t.Fatalf("failed approval must roll back the status, got %+v", got)
	}
	hist, _ := e.status.History(ctx, domain.EntityWithdrawal, w.ID)
	if len(hist) != 0 {
		t.Fatalf("failed approval must not write history, got %d rows", len(hist))
	}
}

func TestWithdrawalProcessedAliasMeansPaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	_ = e.wallets.Credit(ctx, u.ID, decimal.NewFromInt(100))
	w := e.withdrawal(t, u.ID, 50, "approved")

	res, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityWithdrawal, ID: w.ID, To: "processed"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.To != domain.StatusPaid {
		t.Fatalf("expected paid, got %s", res.To)
	}
	if b := e.balance(t, u.ID); !b.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("paying an approved withdrawal must not debit again, got %s", b)
	}
}

func TestWithdrawalCreateRefusesOverdraftBeforeInsert(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	_ = e.wallets.Credit(ctx, u.ID, decimal.NewFromInt(500))
	withdrawals := repository.NewWithdrawalRepository(e.db)
	svc := NewWithdrawalService(e.wallets, withdrawals, logging.Discard())

	in := WithdrawalInput{Amount: decimal.NewFromInt(600)}
	in.Payout.Method = "upi"
	in.Payout.UPIID = "artist@okaxis"
	if _, err := svc.Create(ctx, u.ID, in); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	_, total, _ := withdrawals.List(ctx, repository.ListFilter{})
	if total != 0 {
		t.Fatalf("expected zero inserted withdrawals, got %d", total)
	}

	in.Amount = decimal.NewFromInt(500)
	w, err := svc.Create(ctx, u.ID, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Status != "pending" || w.Version != 1 {
		t.Fatalf("unexpected withdrawal %+v", w)
	}
	if b := e.balance(t, u.ID); !b.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("filing a withdrawal must not debit, got %s", b)
	}
}

func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, size, size))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func mp3Bytes() []byte {
	return append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 128)...)
}

func TestReleaseCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	l := e.label(t, u.ID, "Moon Records")
	other := e.user(t, "b@example.com")
	foreign := e.artist(t, other.ID, "Not Yours")

	audio := mp3Bytes()
	cover := pngBytes(t, 3000)
	in := ReleaseInput{ReleaseType: "Single", SongName: " Night Drive ", ArtistID: a.ID, LabelID: &l.ID, Platforms: []string{"Spotify", "spotify", "Apple Music"}, ReleaseDate: "2025-07-01"}
	rel, err := e.releases.Create(ctx, u.ID, in,
		FileInput{Name: "night.mp3", Size: int64(len(audio)), Body: bytes.NewReader(audio)},
		FileInput{Name: "cover.png", Size: int64(len(cover)), Body: bytes.NewReader(cover)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rel.Status != "pending" || rel.SongName != "Night Drive" || rel.ReleaseType != "single" || len(rel.Platforms) != 2 {
		t.Fatalf("unexpected release %+v", rel)
	}
	if rel.AudioPublicID == "" || rel.CoverPublicID == "" {
		t.Fatalf("expected object ids, got %+v", rel)
	}

	in.ArtistID = foreign.ID
	_, err = e.releases.Create(ctx, u.ID, in,
		FileInput{Name: "x.mp3", Size: int64(len(audio)), Body: bytes.NewReader(audio)},
		FileInput{Name: "c.png", Size: int64(len(cover)), Body: bytes.NewReader(cover)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for foreign artist, got %v", err)
	}

	in.ArtistID = a.ID
	small := pngBytes(t, 500)
	uploads := len(e.storage.uploads)
	_, err = e.releases.Create(ctx, u.ID, in,
		FileInput{Name: "x.mp3", Size: int64(len(audio)), Body: bytes.NewReader(audio)},
		FileInput{Name: "c.png", Size: int64(len(small)), Body: bytes.NewReader(small)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for small cover, got %v", err)
	}
	if len(e.storage.uploads) != uploads {
		t.Fatal("invalid media must not be uploaded")
	}
}

func TestReleaseCreateCleansUpAfterFailedUpload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	e.storage.failCover = true
	audio, cover := mp3Bytes(), pngBytes(t, 3000)
	_, err := e.releases.Create(ctx, u.ID, ReleaseInput{ReleaseType: "ep", SongName: "x", ArtistID: a.ID, Platforms: []string{"Spotify"}},
		FileInput{Name: "x.mp3", Size: int64(len(audio)), Body: bytes.NewReader(audio)},
		FileInput{Name: "c.png", Size: int64(len(cover)), Body: bytes.NewReader(cover)})
	if err == nil {
		t.Fatal("expected upload error")
	}
	if len(e.storage.destroyed) != 1 {
		t.Fatalf("expected the audio object to be destroyed, got %v", e.storage.destroyed)
	}
}

func TestReleaseDeleteDestroysObjectsAndMatchCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	rel := e.release(t, u.ID, a.ID, "approved")

	matches, err := e.releases.MatchCatalog(ctx, rel.ID)
	if err != nil || len(matches) != 1 {
		t.Fatalf("match: %v %v", matches, err)
	}
	if e.searcher.title != "Night Drive" || e.searcher.artist != "Aria" {
		t.Fatalf("unexpected search %q/%q", e.searcher.title, e.searcher.artist)
	}

	e.db.Model(&models.Release{}).Where("id = ?", rel.ID).Updates(map[string]any{"audio_public_id": "a1", "cover_public_id": "c1"})
	if err := e.releases.Delete(ctx, rel.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(e.storage.destroyed) != 2 {
		t.Fatalf("expected two destroyed objects, got %v", e.storage.destroyed)
	}
	if err := e.releases.Delete(ctx, rel.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRequestsValidateOwnershipAndURLs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	l := e.label(t, u.ID, "Moon")
	rel := e.release(t, u.ID, a.ID, "live")

	if _, err := e.requests.CreateTakedown(ctx, u.ID, TakedownInput{ReleaseID: rel.ID, LabelID: l.ID, YouTubeURL: "http://vimeo.com/123"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected url validation error, got %v", err)
	}
	td, err := e.requests.CreateTakedown(ctx, u.ID, TakedownInput{ReleaseID: rel.ID, LabelID: l.ID, YouTubeURL: "youtube.com/watch?v=abc"})
	if err != nil || td.Status != "pending" {
		t.Fatalf("expected pending takedown, got %+v %v", td, err)
	}
	other := e.user(t, "b@example.com")
	if _, err := e.requests.CreateTakedown(ctx, other.ID, TakedownInput{ReleaseID: rel.ID, LabelID: l.ID, YouTubeURL: "https://youtu.be/x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ownership error, got %v", err)
	}

	o, err := e.requests.CreateOAC(ctx, u.ID, OACInput{ArtistID: a.ID, LabelID: l.ID, TopicChannelURL: "https://youtube.com/channel/UC1", ArtistChannelURL: "https://www.youtube.com/@aria"})
	if err != nil || o.Status != "pending" {
		t.Fatalf("expected pending oac, got %+v %v", o, err)
	}
	res, err := e.status.Apply(ctx, admin, TransitionRequest{Entity: domain.EntityOAC, ID: o.ID, To: "in_process"})
	if err != nil || res.To != domain.StatusInProcess {
		t.Fatalf("expected in_process, got %+v %v", res, err)
	}
}

func TestDirectoryPlaceholders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	a := e.artist(t, u.ID, "Aria")
	missingLabel := uint(555)
	rows := []models.Release{
		{ID: 1, UserID: u.ID, ArtistID: a.ID},
		{ID: 2, UserID: 777, ArtistID: 888, LabelID: &missingLabel},
	}
	views, err := e.dir.Releases(ctx, rows)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if views[0].ArtistName != "Aria" || views[0].LabelName != domain.UnknownLabel || views[0].OwnerName != "Owner a@example.com" {
		t.Fatalf("unexpected first view %+v", views[0])
	}
	if views[1].ArtistName != domain.UnknownArtist || views[1].LabelName != domain.UnknownLabel || views[1].OwnerName != domain.Unknown {
		t.Fatalf("expected placeholders, got %+v", views[1])
	}

	tviews, err := e.dir.Takedowns(ctx, []models.TakedownRequest{{ID: 1, UserID: u.ID, ReleaseID: 999, LabelID: 999}})
	if err != nil || tviews[0].ReleaseName != domain.Unknown || tviews[0].LabelName != domain.UnknownLabel {
		t.Fatalf("unexpected takedown view %+v %v", tviews, err)
	}
	empty, err := e.dir.OACRequests(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty projection, got %v %v", empty, err)
	}
}

func TestRoyaltyCredit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "a@example.com")
	svc := NewRoyaltyService(e.db, e.notifier, logging.Discard())

	if _, err := svc.Credit(ctx, admin, RoyaltyCredit{UserID: u.ID, Amount: decimal.NewFromInt(10), Period: "2025-13"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected period validation error, got %v", err)
	}
	if _, err := svc.Credit(ctx, admin, RoyaltyCredit{UserID: 4242, Amount: decimal.NewFromInt(10), Period: "2025-01"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	rep, err := svc.Credit(ctx, admin, RoyaltyCredit{UserID: u.ID, Amount: decimal.RequireFromString("125.50"), Period: "2025-01"})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if rep.CreatedBy != admin.ID {
		t.Fatalf("expected created_by %d, got %d", admin.ID, rep.CreatedBy)
	}
	if b := e.balance(t, u.ID); !b.Equal(decimal.RequireFromString("125.5")) {
		t.Fatalf("expected balance 125.50, got %s", b)
	}
	if c, _ := e.notifier.UnreadCount(ctx, u.ID); c != 1 {
		t.Fatalf("expected a credit notification, got %d", c)
	}
}

func newAuthService(t *testing.T) (*AuthService, *repository.UserRepository) {
	t.Helper()
	db := testdb.Open(t)
	engine, err := policy.NewEngine(context.Background(), []string{"Ops@Melodist.io"})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	users := repository.NewUserRepository(db)
	return NewAuthService(config.Default(), users, engine, logging.Discard()), users
}

func TestAuthServiceRegisterLoginAndAdminFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	sess, err := svc.Register(ctx, " OPS@melodist.io ", "correct-horse", "Ops")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.IsAdmin || sess.Tokens == nil || sess.User.Email != "ops@melodist.io" {
		t.Fatalf("expected unverified non-admin session, got %+v", sess)
	}
	if _, err := svc.Register(ctx, "ops@melodist.io", "another-pass", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, err := svc.Register(ctx, "short@example.com", "123", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected password validation error, got %v", err)
	}

	tok, err := svc.VerificationToken(ctx, "ops@melodist.io")
	if err != nil {
		t.Fatalf("verification token: %v", err)
	}
	verified, err := svc.VerifyEmail(ctx, tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.IsAdmin || !verified.User.EmailVerified() {
		t.Fatalf("expected verified admin session, got %+v", verified)
	}
	claims, err := auth.ParseAccessToken(&config.Default().JWT, verified.Tokens.AccessToken)
	if err != nil || !claims.EmailVerified {
		t.Fatalf("expected verified access claims, got %+v %v", claims, err)
	}
	p, err := svc.Principal(ctx, verified.User.ID)
	if err != nil || !p.IsAdmin {
		t.Fatalf("expected admin principal, got %+v %v", p, err)
	}
	if _, err := svc.VerifyEmail(ctx, sess.Tokens.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected access token to be refused, got %v", err)
	}

	user, err := svc.Register(ctx, "artist@example.com", "correct-horse", "Artist")
	if err != nil || user.IsAdmin {
		t.Fatalf("expected non-admin session, got %+v %v", user, err)
	}
	if _, err := svc.Login(ctx, "artist@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("expected ErrInvalidCreds, got %v", err)
	}
	logged, err := svc.Login(ctx, "Artist@Example.com", "correct-horse")
	if err != nil || logged.User.ID != user.User.ID {
		t.Fatalf("login: %+v %v", logged, err)
	}
	refreshed, err := svc.Refresh(ctx, logged.Tokens.RefreshToken)
	if err != nil || refreshed.User.ID != user.User.ID {
		t.Fatalf("refresh: %+v %v", refreshed, err)
	}
}

func TestAuthServiceGoogleLinking(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	squatter, err := svc.Register(ctx, "ops@melodist.io", "correct-horse", "Squatter")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err = svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g-1", Email: "ops@melodist.io", EmailVerified: false})
	if !errors.Is(err, ErrEmailUnverified) {
		t.Fatalf("expected ErrEmailUnverified, got %v", err)
	}

	g, created, err := svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g-1", Email: "OPS@melodist.io", Name: "Ops", EmailVerified: true})
	if err != nil || created || g.User.ID != squatter.User.ID {
		t.Fatalf("expected google to link existing account, got %+v %v %v", g, created, err)
	}
	if !g.IsAdmin {
		t.Fatalf("expected verified google identity to grant admin")
	}
	stored, err := users.GetByID(ctx, squatter.User.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.PasswordHash != "" || stored.EmailVerifiedAt == nil {
		t.Fatalf("expected password dropped and email verified, got %+v", stored)
	}
	if _, err := svc.Login(ctx, "ops@melodist.io", "correct-horse"); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("expected pre-link password to stop working, got %v", err)
	}

	fresh, created, err := svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g-2", Email: "new@example.com", Name: "New"})
	if err != nil || !created || fresh.User.EmailVerified() {
		t.Fatalf("expected new unverified google account, got %+v %v %v", fresh, created, err)
	}
	again, _, err := svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g-2", Email: "new@example.com", EmailVerified: true})
	if err != nil || !again.User.EmailVerified() {
		t.Fatalf("expected later verified sign-in to mark the email, got %+v %v", again, err)
	}
}

func TestAuthServiceLogsFailedLoginStamp(t *testing.T) {
	db := testdb.Open(t)
	engine, err := policy.NewEngine(context.Background(), nil)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewAuthService(config.Default(), repository.NewUserRepository(db), engine, log)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()

	sess, err := svc.issue(context.Background(), &models.User{ID: 7, Email: "artist@example.com"})
	if err != nil || sess.Tokens == nil {
		t.Fatalf("expected a session despite the failed stamp, got %+v %v", sess, err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("last login update failed")) || !bytes.Contains(buf.Bytes(), []byte(`"user_id":7`)) {
		t.Fatalf("expected a warning for the failed stamp, got %s", buf.String())
	}
}
