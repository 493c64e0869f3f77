package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/validate"
	"melodist/pkg/catalog"
	"melodist/pkg/cloudinary"
)

// FileInput is an uploaded file. Body must support seeking so it can be sniffed
// before it is streamed to storage.
type FileInput struct {
	Name string
	Size int64
	Body io.ReadSeeker
}

type ReleaseInput struct {
	ReleaseType string
	SongName    string
	ArtistID    uint
	LabelID     *uint
	Language    string
	Genre       string
	Copyright   string
	Lyricists   []string
	Composers   []string
	Platforms   []string
	ReleaseDate string
}

type ReleaseService struct {
	releases *repository.ReleaseRepository
	artists  *repository.ArtistRepository
	labels   *repository.LabelRepository
	storage  cloudinary.Storage
	catalog  catalog.Searcher
	logger   *slog.Logger
}

func NewReleaseService(
	releases *repository.ReleaseRepository,
	artists *repository.ArtistRepository,
	labels *repository.LabelRepository,
	storage cloudinary.Storage,
	searcher catalog.Searcher,
	logger *slog.Logger,
) *ReleaseService {
	return &ReleaseService{
		releases: releases,
		artists:  artists,
		labels:   labels,
		storage:  storage,
		catalog:  searcher,
		logger:   logging.Component(logger, "releases"),
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(s)]; ok {
			continue
		}
		seen[strings.ToLower(s)] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (s *ReleaseService) validateInput(ctx context.Context, userID uint, in *ReleaseInput) error {
	in.SongName = strings.TrimSpace(in.SongName)
	if in.SongName == "" {
		return domain.Invalid("song_name", "is required")
	}
	in.ReleaseType = strings.ToLower(strings.TrimSpace(in.ReleaseType))
	if !validate.ReleaseType(in.ReleaseType) {
		return domain.Invalid("release_type", "must be one of single, album, ep")
	}
	in.Platforms = cleanList(in.Platforms)
	if len(in.Platforms) == 0 {
		return domain.Invalid("platforms", "select at least one platform")
	}
	in.Lyricists = cleanList(in.Lyricists)
	in.Composers = cleanList(in.Composers)
	if in.ArtistID == 0 {
		return domain.Invalid("artist_id", "is required")
	}
	if _, err := s.artists.GetOwned(ctx, in.ArtistID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("artist_id", "unknown artist")
		}
		return err
	}
	if in.LabelID != nil && *in.LabelID != 0 {
		if _, err := s.labels.GetOwned(ctx, *in.LabelID, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Invalid("label_id", "unknown label")
			}
			return err
		}
	} else {
		in.LabelID = nil
	}
	return nil
}

// Create validates metadata and media, stores both files and inserts a pending release.
// Uploaded objects are removed again when the insert fails.
func (s *ReleaseService) Create(ctx context.Context, userID uint, in ReleaseInput, audio, cover FileInput) (*models.Release, error) {
	if err := s.validateInput(ctx, userID, &in); err != nil {
		return nil, err
	}
	releaseDate, err := validate.ReleaseDate(in.ReleaseDate)
	if err != nil {
		return nil, err
	}
	if audio.Body == nil {
		return nil, domain.Invalid("audio", "file is required")
	}
	if cover.Body == nil {
		return nil, domain.Invalid("cover", "file is required")
	}
	if _, err := validate.Audio(audio.Body, audio.Size); err != nil {
		return nil, err
	}
	if _, err := audio.Body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	coverData, err := io.ReadAll(io.LimitReader(cover.Body, domain.MaxCoverBytes+1))
	if err != nil {
		return nil, err
	}
	if _, err := validate.Cover(coverData); err != nil {
		return nil, err
	}

	audioObj, err := s.storage.UploadAudio(ctx, audio.Body, userID, audio.Name)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	coverObj, err := s.storage.UploadCover(ctx, bytes.NewReader(coverData), userID, cover.Name)
	if err != nil {
		s.destroy(ctx, audioObj)
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	rel := &models.Release{
		UserID:        userID,
		ReleaseType:   in.ReleaseType,
		SongName:      in.SongName,
		ArtistID:      in.ArtistID,
		LabelID:       in.LabelID,
		Language:      strings.TrimSpace(in.Language),
		Genre:         strings.TrimSpace(in.Genre),
		Copyright:     strings.TrimSpace(in.Copyright),
		Lyricists:     in.Lyricists,
		Composers:     in.Composers,
		Platforms:     in.Platforms,
		AudioFile:     audioObj.URL,
		AudioPublicID: audioObj.PublicID,
		CoverArt:      coverObj.URL,
		CoverPublicID: coverObj.PublicID,
		ReleaseDate:   releaseDate,
		Status:        string(domain.StatusPending),
		Version:       1,
	}
	if err := s.releases.Create(ctx, rel); err != nil {
		s.destroy(ctx, audioObj)
		s.destroy(ctx, coverObj)
		return nil, err
	}
	s.logger.Info("release submitted",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("release_id", uint64(rel.ID)),
		slog.String("type", rel.ReleaseType),
	)
	return rel, nil
}

func (s *ReleaseService) destroy(ctx context.Context, obj *cloudinary.Object) {
	if obj == nil {
		return
	}
	if err := s.storage.Destroy(ctx, obj.PublicID, obj.ResourceType); err != nil {
		s.logger.Warn("object cleanup failed", slog.String("public_id", obj.PublicID), slog.Any("error", err))
	}
}

// Delete removes a release row and then its stored media.
func (s *ReleaseService) Delete(ctx context.Context, id uint) error {
	rel, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.releases.Delete(ctx, id); err != nil {
		return err
	}
	if rel.AudioPublicID != "" {
		s.destroy(ctx, &cloudinary.Object{PublicID: rel.AudioPublicID, ResourceType: cloudinary.ResourceVideo})
	}
	if rel.CoverPublicID != "" {
		s.destroy(ctx, &cloudinary.Object{PublicID: rel.CoverPublicID, ResourceType: cloudinary.ResourceImage})
	}
	s.logger.Info("release deleted", slog.Uint64("release_id", uint64(id)))
	return nil
}

// MatchCatalog searches the streaming catalog for a release so an admin can confirm it
// went live.
func (s *ReleaseService) MatchCatalog(ctx context.Context, id uint) ([]catalog.Match, error) {
	rel, err := s.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	artistName := ""
	if a, err := s.artists.GetByID(ctx, rel.ArtistID); err == nil {
		artistName = a.Name
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.catalog.SearchTrack(ctx, rel.SongName, artistName)
}

// Find loads a release regardless of owner. Callers enforce read access.
func (s *ReleaseService) Find(ctx context.Context, id uint) (*models.Release, error) {
	return s.releases.GetByID(ctx, id)
}

func (s *ReleaseService) List(ctx context.Context, f repository.ListFilter) ([]models.Release, int64, error) {
	return s.releases.List(ctx, f)
}
