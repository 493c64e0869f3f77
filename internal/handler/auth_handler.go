package handler

import (
	"log/slog"
	"net/http"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/repository"
	"melodist/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc       *service.AuthService
	auditRepo *repository.AuditLogRepository
	logger    *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, auditRepo *repository.AuditLogRepository, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, auditRepo: auditRepo, logger: logging.Component(logger, "auth")}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// home is where the client should land after sign-in.
func home(isAdmin bool) string {
	if isAdmin {
		return "/admin"
	}
	return middleware.DashboardPath
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(c, h.logger, err, "registration failed")
		return
	}
	h.auditLog(c, sess.User.ID, "register")
	c.JSON(http.StatusCreated, gin.H{"session": sess, "redirect": home(sess.IsAdmin)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, "login failed")
		return
	}
	h.auditLog(c, sess.User.ID, "login")
	c.JSON(http.StatusOK, gin.H{"session": sess, "redirect": home(sess.IsAdmin)})
}

// AdminLogin handles POST /admin/login. Valid credentials outside the allow-list get 403
// and are pointed at the customer dashboard.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err, "login failed")
		return
	}
	if !sess.IsAdmin {
		h.auditLog(c, sess.User.ID, "admin_login_denied")
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required", "redirect": middleware.DashboardPath})
		return
	}
	h.auditLog(c, sess.User.ID, "admin_login")
	c.JSON(http.StatusOK, gin.H{"session": sess, "redirect": home(true)})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.logger, err, "refresh failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// VerifyEmail redeems a mailed verification token. The returned session replaces the
// unverified one.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, h.logger, err, "verification failed")
		return
	}
	h.auditLog(c, sess.User.ID, "email_verified")
	c.JSON(http.StatusOK, gin.H{"session": sess, "redirect": home(sess.IsAdmin)})
}

// Logout is stateless; tokens simply expire. It only records the event.
func (h *AuthHandler) Logout(c *gin.Context) {
	if userID := middleware.GetUserID(c); userID != 0 {
		h.auditLog(c, userID, "logout")
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "redirect": middleware.LoginPath})
}

// Me returns the session principal with a freshly evaluated admin flag.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, err := h.svc.Principal(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to load session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "is_admin": sess.IsAdmin, "home": home(sess.IsAdmin)})
}

func (h *AuthHandler) auditLog(c *gin.Context, userID uint, action string) {
	recordAudit(c, h.auditRepo, h.logger, userID, action, "auth", "")
}
