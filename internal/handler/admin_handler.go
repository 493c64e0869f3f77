package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/service"
	"melodist/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminDeps groups what the admin console reads and writes.
type AdminDeps struct {
	AdminRepo   *repository.AdminRepository
	Profiles    *repository.ProfileRepository
	Artists     *repository.ArtistRepository
	Labels      *repository.LabelRepository
	Withdrawals *repository.WithdrawalRepository
	Takedowns   *repository.TakedownRepository
	OAC         *repository.OACRepository
	AuditRepo   *repository.AuditLogRepository
	Status      *service.StatusService
	Directory   *service.Directory
	Releases    *service.ReleaseService
	Requests    *service.RequestService
	Withdrawal  *service.WithdrawalService
	Royalties   *service.RoyaltyService
	Hub         *ws.Hub
}

type AdminHandler struct {
	AdminDeps
	logger *slog.Logger
}

func NewAdminHandler(deps AdminDeps, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{AdminDeps: deps, logger: logging.Component(logger, "admin")}
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.GetUserID(c), Email: middleware.GetEmail(c)}
}

// statusFilter is listFilter with the status query checked against the entity's enum.
func statusFilter(c *gin.Context, e domain.Entity) (repository.ListFilter, bool) {
	f := listFilter(c)
	if f.Status == "" {
		return f, true
	}
	st, err := domain.ParseStatus(e, f.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return f, false
	}
	f.Status = string(st)
	return f, true
}

// Dashboard handles GET /admin/dashboard: totals plus counts per entity and status.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.AdminRepo.GetDashboardStats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "live_consoles": h.Hub.ClientCount()})
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}
	ctx := c.Request.Context()
	signups, err := h.AdminRepo.SignupsByDay(ctx, days)
	if err != nil {
		writeError(c, h.logger, err, "failed to load analytics")
		return
	}
	releases, err := h.AdminRepo.ReleasesByDay(ctx, days)
	if err != nil {
		writeError(c, h.logger, err, "failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signups": signups, "releases": releases, "days": days})
}

// Statuses handles GET /admin/statuses: the selector options for every entity.
func (h *AdminHandler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": service.AllOptions()})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	f := listFilter(c)
	list, total, err := h.Profiles.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list users")
		return
	}
	page(c, list, total, f)
}

func (h *AdminHandler) ListArtists(c *gin.Context) {
	f := listFilter(c)
	list, total, err := h.Artists.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list artists")
		return
	}
	page(c, list, total, f)
}

func (h *AdminHandler) ListLabels(c *gin.Context) {
	f := listFilter(c)
	list, total, err := h.Labels.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list labels")
		return
	}
	page(c, list, total, f)
}

func (h *AdminHandler) ListReleases(c *gin.Context) {
	f, ok := statusFilter(c, domain.EntityRelease)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, total, err := h.Releases.List(ctx, f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list releases")
		return
	}
	views, err := h.Directory.Releases(ctx, rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list releases")
		return
	}
	page(c, views, total, f)
}

func (h *AdminHandler) GetRelease(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rel, err := h.Releases.Find(ctx, id)
	if err != nil {
		writeError(c, h.logger, err, "failed to load release")
		return
	}
	views, err := h.Directory.Releases(ctx, []models.Release{*rel})
	if err != nil {
		writeError(c, h.logger, err, "failed to load release")
		return
	}
	c.JSON(http.StatusOK, views[0])
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	f, ok := statusFilter(c, domain.EntityWithdrawal)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, total, err := h.Withdrawal.List(ctx, f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list withdrawals")
		return
	}
	views, err := h.Directory.Withdrawals(ctx, rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list withdrawals")
		return
	}
	page(c, views, total, f)
}

func (h *AdminHandler) GetWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	w, err := h.Withdrawals.GetByID(ctx, id)
	if err != nil {
		writeError(c, h.logger, err, "failed to load withdrawal")
		return
	}
	views, err := h.Directory.Withdrawals(ctx, []models.WithdrawalRequest{*w})
	if err != nil {
		writeError(c, h.logger, err, "failed to load withdrawal")
		return
	}
	c.JSON(http.StatusOK, views[0])
}

func (h *AdminHandler) ListTakedowns(c *gin.Context) {
	f, ok := statusFilter(c, domain.EntityTakedown)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, total, err := h.Requests.ListTakedowns(ctx, f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list takedown requests")
		return
	}
	views, err := h.Directory.Takedowns(ctx, rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list takedown requests")
		return
	}
	page(c, views, total, f)
}

func (h *AdminHandler) GetTakedown(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	t, err := h.Takedowns.GetByID(ctx, id)
	if err != nil {
		writeError(c, h.logger, err, "failed to load takedown request")
		return
	}
	views, err := h.Directory.Takedowns(ctx, []models.TakedownRequest{*t})
	if err != nil {
		writeError(c, h.logger, err, "failed to load takedown request")
		return
	}
	c.JSON(http.StatusOK, views[0])
}

func (h *AdminHandler) ListOAC(c *gin.Context) {
	f, ok := statusFilter(c, domain.EntityOAC)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rows, total, err := h.Requests.ListOAC(ctx, f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list OAC requests")
		return
	}
	views, err := h.Directory.OACRequests(ctx, rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list OAC requests")
		return
	}
	page(c, views, total, f)
}

func (h *AdminHandler) GetOAC(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	o, err := h.OAC.GetByID(ctx, id)
	if err != nil {
		writeError(c, h.logger, err, "failed to load OAC request")
		return
	}
	views, err := h.Directory.OACRequests(ctx, []models.OACRequest{*o})
	if err != nil {
		writeError(c, h.logger, err, "failed to load OAC request")
		return
	}
	c.JSON(http.StatusOK, views[0])
}

type StatusRequest struct {
	Status          string `json:"status" binding:"required"`
	Note            string `json:"note" binding:"max=2000"`
	ExpectedVersion *uint  `json:"expected_version"`
}

// SetStatus returns the handler for PATCH /admin/<entity>/:id/status.
func (h *AdminHandler) SetStatus(e domain.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := h.Status.Apply(c.Request.Context(), actor(c), service.TransitionRequest{
			Entity:          e,
			ID:              id,
			To:              req.Status,
			Note:            req.Note,
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			writeError(c, h.logger, err, "failed to update status")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// History returns the handler for GET /admin/<entity>/:id/history.
func (h *AdminHandler) History(e domain.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		list, err := h.Status.History(c.Request.Context(), e, id)
		if err != nil {
			writeError(c, h.logger, err, "failed to load history")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

func (h *AdminHandler) DeleteRelease(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Releases.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "delete failed")
		return
	}
	h.audit(c, "delete", "release", id)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) DeleteArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Artists.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "delete failed")
		return
	}
	h.audit(c, "delete", "artist", id)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) DeleteLabel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Labels.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "delete failed")
		return
	}
	h.audit(c, "delete", "label", id)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type RoyaltyCreditRequest struct {
	UserID    uint            `json:"user_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Period    string          `json:"period" binding:"required"`
	ReportURL string          `json:"report_url" binding:"omitempty,url"`
	Note      string          `json:"note" binding:"max=2000"`
}

// CreditRoyalty handles POST /admin/royalties: report, wallet credit and ledger row together.
func (h *AdminHandler) CreditRoyalty(c *gin.Context) {
	var req RoyaltyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := h.Royalties.Credit(c.Request.Context(), actor(c), service.RoyaltyCredit{
		UserID:    req.UserID,
		Amount:    req.Amount,
		Period:    req.Period,
		ReportURL: req.ReportURL,
		Note:      req.Note,
	})
	if err != nil {
		writeError(c, h.logger, err, "royalty credit failed")
		return
	}
	h.audit(c, "royalty_credit", "royalty_report", rep.ID)
	c.JSON(http.StatusCreated, rep)
}

func (h *AdminHandler) ListRoyalties(c *gin.Context) {
	f := listFilter(c)
	if uid, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		f.UserID = uint(uid)
	}
	list, total, err := h.Royalties.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list royalty reports")
		return
	}
	page(c, list, total, f)
}

// CatalogMatch handles GET /admin/releases/:id/catalog: streaming catalog hits for the release.
func (h *AdminHandler) CatalogMatch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	matches, err := h.Releases.MatchCatalog(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, "catalog search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": matches})
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	f := listFilter(c)
	if uid, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		f.UserID = uint(uid)
	}
	list, total, err := h.AuditRepo.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list audit logs")
		return
	}
	page(c, list, total, f)
}

func (h *AdminHandler) audit(c *gin.Context, action, resource string, id uint) {
	recordAudit(c, h.AuditRepo, h.logger, middleware.GetUserID(c), action, resource, strconv.FormatUint(uint64(id), 10))
}
