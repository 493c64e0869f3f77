package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/models"
	"melodist/internal/repository"

	"github.com/gin-gonic/gin"
)

// ArtistHandler manages the caller's artists and labels.
type ArtistHandler struct {
	artists *repository.ArtistRepository
	labels  *repository.LabelRepository
	logger  *slog.Logger
}

func NewArtistHandler(artists *repository.ArtistRepository, labels *repository.LabelRepository, logger *slog.Logger) *ArtistHandler {
	return &ArtistHandler{artists: artists, labels: labels, logger: logging.Component(logger, "artists")}
}

type ArtistRequest struct {
	Name         string   `json:"name" binding:"required,max=255"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Phone        string   `json:"phone" binding:"max=32"`
	Bio          string   `json:"bio"`
	Country      string   `json:"country" binding:"max=64"`
	SpotifyURL   string   `json:"spotify_url" binding:"omitempty,url"`
	InstagramURL string   `json:"instagram_url" binding:"omitempty,url"`
	YouTubeURL   string   `json:"youtube_url" binding:"omitempty,youtube_url"`
	Genres       []string `json:"genres"`
	Languages    []string `json:"languages"`
}

func (r ArtistRequest) apply(a *models.Artist) {
	a.Name = strings.TrimSpace(r.Name)
	a.Email = strings.TrimSpace(r.Email)
	a.Phone = strings.TrimSpace(r.Phone)
	a.Bio = strings.TrimSpace(r.Bio)
	a.Country = strings.TrimSpace(r.Country)
	a.SpotifyURL = strings.TrimSpace(r.SpotifyURL)
	a.InstagramURL = strings.TrimSpace(r.InstagramURL)
	a.YouTubeURL = strings.TrimSpace(r.YouTubeURL)
	a.Genres = r.Genres
	a.Languages = r.Languages
}

type LabelRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"max=32"`
	Website string `json:"website" binding:"omitempty,url"`
	Country string `json:"country" binding:"max=64"`
}

func (r LabelRequest) apply(l *models.Label) {
	l.Name = strings.TrimSpace(r.Name)
	l.Email = strings.TrimSpace(r.Email)
	l.Phone = strings.TrimSpace(r.Phone)
	l.Website = strings.TrimSpace(r.Website)
	l.Country = strings.TrimSpace(r.Country)
}

func (h *ArtistHandler) ListArtists(c *gin.Context) {
	list, err := h.artists.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to list artists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *ArtistHandler) CreateArtist(c *gin.Context) {
	var req ArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := &models.Artist{UserID: middleware.GetUserID(c)}
	req.apply(a)
	if a.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.artists.Create(c.Request.Context(), a); err != nil {
		writeError(c, h.logger, err, "failed to create artist")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *ArtistHandler) UpdateArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	a, err := h.artists.GetOwned(ctx, id, middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to load artist")
		return
	}
	req.apply(a)
	if err := h.artists.Save(ctx, a); err != nil {
		writeError(c, h.logger, err, "failed to update artist")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ArtistHandler) ListLabels(c *gin.Context) {
	list, err := h.labels.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to list labels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *ArtistHandler) CreateLabel(c *gin.Context) {
	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l := &models.Label{UserID: middleware.GetUserID(c)}
	req.apply(l)
	if l.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.labels.Create(c.Request.Context(), l); err != nil {
		writeError(c, h.logger, err, "failed to create label")
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ArtistHandler) UpdateLabel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	l, err := h.labels.GetOwned(ctx, id, middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err, "failed to load label")
		return
	}
	req.apply(l)
	if err := h.labels.Save(ctx, l); err != nil {
		writeError(c, h.logger, err, "failed to update label")
		return
	}
	c.JSON(http.StatusOK, l)
}
