package handler

import (
	"log/slog"
	"net/http"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc    *service.NotificationService
	logger *slog.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logging.Component(logger, "notifications")}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	pg, limit := parsePagination(c)
	list, total, err := h.svc.List(c.Request.Context(), userID, pg, limit)
	if err != nil {
		writeError(c, h.logger, err, "list failed")
		return
	}
	unread, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "unread": unread, "page": pg, "limit": limit})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		writeError(c, h.logger, err, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
