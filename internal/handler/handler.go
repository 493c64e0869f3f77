package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"melodist/internal/auth"
	"melodist/internal/domain"
	"melodist/internal/middleware"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/service"
	"melodist/pkg/catalog"
	"melodist/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to HTTP responses. Unexpected errors are logged and
// answered with fallback as the message.
func writeError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrNoteRequired),
		errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, service.ErrEmailUnverified):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCreds), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrDisabled), errors.Is(err, cloudinary.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback,
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// listFilter reads status, search and pagination from the query string.
func listFilter(c *gin.Context) repository.ListFilter {
	page, limit := parsePagination(c)
	return repository.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
}

// ownFilter is listFilter scoped to the signed-in user.
func ownFilter(c *gin.Context) repository.ListFilter {
	f := listFilter(c)
	f.UserID = middleware.GetUserID(c)
	return f
}

func page(c *gin.Context, data interface{}, total int64, f repository.ListFilter) {
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": f.Page, "limit": f.Limit})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// recordAudit appends an audit row. A failed write is logged and never fails the request.
func recordAudit(c *gin.Context, repo *repository.AuditLogRepository, logger *slog.Logger, userID uint, action, resource, resourceID string) {
	if repo == nil {
		return
	}
	err := repo.Create(c.Request.Context(), &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		logger.Warn("audit write failed", slog.String("action", action), slog.Any("error", err))
	}
}
