package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/repository"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	profileRepo *repository.ProfileRepository
	logger      *slog.Logger
}

func NewMeHandler(profileRepo *repository.ProfileRepository, logger *slog.Logger) *MeHandler {
	return &MeHandler{profileRepo: profileRepo, logger: logging.Component(logger, "me")}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	p, err := h.profileRepo.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile applies the fields present in the body. Email is owned by the account
// and cannot be changed here.
func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FullName *string `json:"full_name" binding:"omitempty,max=255"`
		Phone    *string `json:"phone" binding:"omitempty,max=32"`
		Country  *string `json:"country" binding:"omitempty,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	if req.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Country != nil {
		fields["country"] = strings.TrimSpace(*req.Country)
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid fields to update"})
		return
	}
	userID := middleware.GetUserID(c)
	if err := h.profileRepo.Update(c.Request.Context(), userID, fields); err != nil {
		writeError(c, h.logger, err, "update failed")
		return
	}
	p, err := h.profileRepo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}
