package service

import (
	"context"

	"melodist/internal/domain"
	"melodist/internal/models"
	"melodist/internal/repository"

	"golang.org/x/sync/errgroup"
)

type ReleaseView struct {
	models.Release
	ArtistName string `json:"artist_name"`
	LabelName  string `json:"label_name"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

type WithdrawalView struct {
	models.WithdrawalRequest
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

type TakedownView struct {
	models.TakedownRequest
	ReleaseName string `json:"release_name"`
	LabelName   string `json:"label_name"`
	OwnerName   string `json:"owner_name"`
	OwnerEmail  string `json:"owner_email"`
}

type OACView struct {
	models.OACRequest
	ArtistName string `json:"artist_name"`
	LabelName  string `json:"label_name"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

// Directory joins display names onto list rows. Each related table is read with one
// query, the queries run concurrently, and rows are matched through id-keyed maps.
type Directory struct {
	artists  *repository.ArtistRepository
	labels   *repository.LabelRepository
	profiles *repository.ProfileRepository
	releases *repository.ReleaseRepository
}

func NewDirectory(
	artists *repository.ArtistRepository,
	labels *repository.LabelRepository,
	profiles *repository.ProfileRepository,
	releases *repository.ReleaseRepository,
) *Directory {
	return &Directory{artists: artists, labels: labels, profiles: profiles, releases: releases}
}

type nameMaps struct {
	artists  map[uint]string
	labels   map[uint]string
	releases map[uint]string
	profiles map[uint]models.Profile
}

type lookupIDs struct {
	artists, labels, releases, users []uint
}

func (d *Directory) load(ctx context.Context, ids lookupIDs) (*nameMaps, error) {
	m := &nameMaps{
		artists:  map[uint]string{},
		labels:   map[uint]string{},
		releases: map[uint]string{},
		profiles: map[uint]models.Profile{},
	}
	g, gctx := errgroup.WithContext(ctx)
	if len(ids.artists) > 0 {
		g.Go(func() error {
			list, err := d.artists.ListByIDs(gctx, ids.artists)
			for _, a := range list {
				m.artists[a.ID] = a.Name
			}
			return err
		})
	}
	if len(ids.labels) > 0 {
		g.Go(func() error {
			list, err := d.labels.ListByIDs(gctx, ids.labels)
			for _, l := range list {
				m.labels[l.ID] = l.Name
			}
			return err
		})
	}
	if len(ids.releases) > 0 {
		g.Go(func() error {
			list, err := d.releases.ListByIDs(gctx, ids.releases)
			for _, r := range list {
				m.releases[r.ID] = r.SongName
			}
			return err
		})
	}
	if len(ids.users) > 0 {
		g.Go(func() error {
			list, err := d.profiles.ListByUserIDs(gctx, ids.users)
			for _, p := range list {
				m.profiles[p.UserID] = p
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func lookup(m map[uint]string, id uint, placeholder string) string {
	if v, ok := m[id]; ok && v != "" {
		return v
	}
	return placeholder
}

func (m *nameMaps) owner(userID uint) (name, email string) {
	p, ok := m.profiles[userID]
	if !ok {
		return domain.Unknown, ""
	}
	name = p.FullName
	if name == "" {
		name = domain.Unknown
	}
	return name, p.Email
}

func (d *Directory) Releases(ctx context.Context, rows []models.Release) ([]ReleaseView, error) {
	var ids lookupIDs
	for _, r := range rows {
		ids.artists = append(ids.artists, r.ArtistID)
		if r.LabelID != nil {
			ids.labels = append(ids.labels, *r.LabelID)
		}
		ids.users = append(ids.users, r.UserID)
	}
	m, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ReleaseView, len(rows))
	for i, r := range rows {
		v := ReleaseView{Release: r, ArtistName: lookup(m.artists, r.ArtistID, domain.UnknownArtist), LabelName: domain.UnknownLabel}
		if r.LabelID != nil {
			v.LabelName = lookup(m.labels, *r.LabelID, domain.UnknownLabel)
		}
		v.OwnerName, v.OwnerEmail = m.owner(r.UserID)
		out[i] = v
	}
	return out, nil
}

func (d *Directory) Withdrawals(ctx context.Context, rows []models.WithdrawalRequest) ([]WithdrawalView, error) {
	var ids lookupIDs
	for _, w := range rows {
		ids.users = append(ids.users, w.UserID)
	}
	m, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]WithdrawalView, len(rows))
	for i, w := range rows {
		v := WithdrawalView{WithdrawalRequest: w}
		v.OwnerName, v.OwnerEmail = m.owner(w.UserID)
		out[i] = v
	}
	return out, nil
}

func (d *Directory) Takedowns(ctx context.Context, rows []models.TakedownRequest) ([]TakedownView, error) {
	var ids lookupIDs
	for _, t := range rows {
		ids.releases = append(ids.releases, t.ReleaseID)
		ids.labels = append(ids.labels, t.LabelID)
		ids.users = append(ids.users, t.UserID)
	}
	m, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]TakedownView, len(rows))
	for i, t := range rows {
		v := TakedownView{
			TakedownRequest: t,
			ReleaseName:     lookup(m.releases, t.ReleaseID, domain.Unknown),
			LabelName:       lookup(m.labels, t.LabelID, domain.UnknownLabel),
		}
		v.OwnerName, v.OwnerEmail = m.owner(t.UserID)
		out[i] = v
	}
	return out, nil
}

func (d *Directory) OACRequests(ctx context.Context, rows []models.OACRequest) ([]OACView, error) {
	var ids lookupIDs
	for _, o := range rows {
		ids.artists = append(ids.artists, o.ArtistID)
		ids.labels = append(ids.labels, o.LabelID)
		ids.users = append(ids.users, o.UserID)
	}
	m, err := d.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]OACView, len(rows))
	for i, o := range rows {
		v := OACView{
			OACRequest: o,
			ArtistName: lookup(m.artists, o.ArtistID, domain.UnknownArtist),
			LabelName:  lookup(m.labels, o.LabelID, domain.UnknownLabel),
		}
		v.OwnerName, v.OwnerEmail = m.owner(o.UserID)
		out[i] = v
	}
	return out, nil
}
