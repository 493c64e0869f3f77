package handler

import (
	"log/slog"
	"net/http"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestHandler serves customer takedown and OAC requests.
type RequestHandler struct {
	svc    *service.RequestService
	dir    *service.Directory
	logger *slog.Logger
}

func NewRequestHandler(svc *service.RequestService, dir *service.Directory, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, dir: dir, logger: logging.Component(logger, "requests")}
}

type TakedownRequestBody struct {
	ReleaseID  uint   `json:"release_id" binding:"required"`
	LabelID    uint   `json:"label_id" binding:"required"`
	YouTubeURL string `json:"youtube_url" binding:"required,youtube_url"`
}

type OACRequestBody struct {
	ArtistID         uint   `json:"artist_id" binding:"required"`
	LabelID          uint   `json:"label_id" binding:"required"`
	TopicChannelURL  string `json:"topic_channel_url" binding:"required,youtube_url"`
	ArtistChannelURL string `json:"artist_channel_url" binding:"required,youtube_url"`
}

func (h *RequestHandler) CreateTakedown(c *gin.Context) {
	var req TakedownRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.CreateTakedown(c.Request.Context(), middleware.GetUserID(c), service.TakedownInput{
		ReleaseID:  req.ReleaseID,
		LabelID:    req.LabelID,
		YouTubeURL: req.YouTubeURL,
	})
	if err != nil {
		writeError(c, h.logger, err, "failed to create takedown request")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *RequestHandler) ListTakedowns(c *gin.Context) {
	f := ownFilter(c)
	rows, total, err := h.svc.ListTakedowns(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list takedown requests")
		return
	}
	views, err := h.dir.Takedowns(c.Request.Context(), rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list takedown requests")
		return
	}
	page(c, views, total, f)
}

func (h *RequestHandler) CreateOAC(c *gin.Context) {
	var req OACRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.svc.CreateOAC(c.Request.Context(), middleware.GetUserID(c), service.OACInput{
		ArtistID:         req.ArtistID,
		LabelID:          req.LabelID,
		TopicChannelURL:  req.TopicChannelURL,
		ArtistChannelURL: req.ArtistChannelURL,
	})
	if err != nil {
		writeError(c, h.logger, err, "failed to create OAC request")
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *RequestHandler) ListOAC(c *gin.Context) {
	f := ownFilter(c)
	rows, total, err := h.svc.ListOAC(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list OAC requests")
		return
	}
	views, err := h.dir.OACRequests(c.Request.Context(), rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list OAC requests")
		return
	}
	page(c, views, total, f)
}
