package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/repository"
	"melodist/internal/validate"
)

type TakedownInput struct {
	ReleaseID  uint
	LabelID    uint
	YouTubeURL string
}

type OACInput struct {
	ArtistID         uint
	LabelID          uint
	TopicChannelURL  string
	ArtistChannelURL string
}

// RequestService files takedown and OAC requests on behalf of customers.
type RequestService struct {
	releases  *repository.ReleaseRepository
	artists   *repository.ArtistRepository
	labels    *repository.LabelRepository
	takedowns *repository.TakedownRepository
	oac       *repository.OACRepository
	logger    *slog.Logger
}

func NewRequestService(
	releases *repository.ReleaseRepository,
	artists *repository.ArtistRepository,
	labels *repository.LabelRepository,
	takedowns *repository.TakedownRepository,
	oac *repository.OACRepository,
	logger *slog.Logger,
) *RequestService {
	return &RequestService{
		releases:  releases,
		artists:   artists,
		labels:    labels,
		takedowns: takedowns,
		oac:       oac,
		logger:    logging.Component(logger, "requests"),
	}
}

func owned(err error, field, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Invalid(field, msg)
	}
	return err
}

func (s *RequestService) CreateTakedown(ctx context.Context, userID uint, in TakedownInput) (*models.TakedownRequest, error) {
	in.YouTubeURL = strings.TrimSpace(in.YouTubeURL)
	if !validate.YouTubeURL(in.YouTubeURL) {
		return nil, domain.Invalid("youtube_url", "must be a YouTube link")
	}
	if _, err := s.releases.GetOwned(ctx, in.ReleaseID, userID); err != nil {
		return nil, owned(err, "release_id", "unknown release")
	}
	if _, err := s.labels.GetOwned(ctx, in.LabelID, userID); err != nil {
		return nil, owned(err, "label_id", "unknown label")
	}
	t := &models.TakedownRequest{
		UserID:     userID,
		ReleaseID:  in.ReleaseID,
		LabelID:    in.LabelID,
		YouTubeURL: in.YouTubeURL,
		Status:     string(domain.StatusPending),
		Version:    1,
	}
	if err := s.takedowns.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("takedown requested", slog.Uint64("user_id", uint64(userID)), slog.Uint64("takedown_id", uint64(t.ID)))
	return t, nil
}

func (s *RequestService) CreateOAC(ctx context.Context, userID uint, in OACInput) (*models.OACRequest, error) {
	in.TopicChannelURL = strings.TrimSpace(in.TopicChannelURL)
	in.ArtistChannelURL = strings.TrimSpace(in.ArtistChannelURL)
	if !validate.YouTubeURL(in.TopicChannelURL) {
		return nil, domain.Invalid("topic_channel_url", "must be a YouTube link")
	}
	if !validate.YouTubeURL(in.ArtistChannelURL) {
		return nil, domain.Invalid("artist_channel_url", "must be a YouTube link")
	}
	if _, err := s.artists.GetOwned(ctx, in.ArtistID, userID); err != nil {
		return nil, owned(err, "artist_id", "unknown artist")
	}
	if _, err := s.labels.GetOwned(ctx, in.LabelID, userID); err != nil {
		return nil, owned(err, "label_id", "unknown label")
	}
	o := &models.OACRequest{
		UserID:           userID,
		ArtistID:         in.ArtistID,
		LabelID:          in.LabelID,
		TopicChannelURL:  in.TopicChannelURL,
		ArtistChannelURL: in.ArtistChannelURL,
		Status:           string(domain.StatusPending),
		Version:          1,
	}
	if err := s.oac.Create(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("oac requested", slog.Uint64("user_id", uint64(userID)), slog.Uint64("oac_id", uint64(o.ID)))
	return o, nil
}

func (s *RequestService) ListTakedowns(ctx context.Context, f repository.ListFilter) ([]models.TakedownRequest, int64, error) {
	return s.takedowns.List(ctx, f)
}

func (s *RequestService) ListOAC(ctx context.Context, f repository.ListFilter) ([]models.OACRequest, int64, error) {
	return s.oac.List(ctx, f)
}
