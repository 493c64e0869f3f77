package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/middleware"
	"melodist/internal/models"
	"melodist/internal/policy"
	"melodist/internal/service"

	"github.com/gin-gonic/gin"
)

type ReleaseHandler struct {
	svc    *service.ReleaseService
	dir    *service.Directory
	policy *policy.Engine
	logger *slog.Logger
}

func NewReleaseHandler(svc *service.ReleaseService, dir *service.Directory, engine *policy.Engine, logger *slog.Logger) *ReleaseHandler {
	return &ReleaseHandler{svc: svc, dir: dir, policy: engine, logger: logging.Component(logger, "releases")}
}

// formList accepts repeated form fields as well as one comma-separated value.
func formList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.PostFormArray(key) {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func formUint(c *gin.Context, key string) (uint, error) {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, domain.Invalid(key, "must be a number")
	}
	return uint(n), nil
}

func openUpload(fh *multipart.FileHeader) (service.FileInput, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileInput{}, func() {}, err
	}
	return service.FileInput{Name: fh.Filename, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
}

// Create handles POST /me/releases as multipart: metadata fields plus audio and cover files.
func (h *ReleaseHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	artistID, err := formUint(c, "artist_id")
	if err != nil {
		writeError(c, h.logger, err, "invalid release")
		return
	}
	labelID, err := formUint(c, "label_id")
	if err != nil {
		writeError(c, h.logger, err, "invalid release")
		return
	}
	in := service.ReleaseInput{
		ReleaseType: c.PostForm("release_type"),
		SongName:    c.PostForm("song_name"),
		ArtistID:    artistID,
		Language:    c.PostForm("language"),
		Genre:       c.PostForm("genre"),
		Copyright:   c.PostForm("copyright"),
		Lyricists:   formList(c, "lyricists"),
		Composers:   formList(c, "composers"),
		Platforms:   formList(c, "platforms"),
		ReleaseDate: c.PostForm("release_date"),
	}
	if labelID != 0 {
		in.LabelID = &labelID
	}

	audioHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required", "field": "audio"})
		return
	}
	coverHeader, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cover file required", "field": "cover"})
		return
	}
	audio, closeAudio, err := openUpload(audioHeader)
	defer closeAudio()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio file"})
		return
	}
	cover, closeCover, err := openUpload(coverHeader)
	defer closeCover()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read cover file"})
		return
	}

	rel, err := h.svc.Create(c.Request.Context(), userID, in, audio, cover)
	if err != nil {
		writeError(c, h.logger, err, "failed to create release")
		return
	}
	c.JSON(http.StatusCreated, rel)
}

func (h *ReleaseHandler) List(c *gin.Context) {
	f := ownFilter(c)
	rows, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.logger, err, "failed to list releases")
		return
	}
	views, err := h.dir.Releases(c.Request.Context(), rows)
	if err != nil {
		writeError(c, h.logger, err, "failed to list releases")
		return
	}
	page(c, views, total, f)
}

func (h *ReleaseHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rel, err := h.svc.Find(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, "failed to load release")
		return
	}
	allowed, err := h.policy.CanRead(c.Request.Context(), middleware.Subject(c), rel.UserID)
	if err != nil {
		writeError(c, h.logger, err, "failed to load release")
		return
	}
	if !allowed {
		writeError(c, h.logger, domain.ErrNotFound, "failed to load release")
		return
	}
	views, err := h.dir.Releases(c.Request.Context(), []models.Release{*rel})
	if err != nil {
		writeError(c, h.logger, err, "failed to load release")
		return
	}
	c.JSON(http.StatusOK, views[0])
}
