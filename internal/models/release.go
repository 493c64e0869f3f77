package models

import (
	"time"

	"gorm.io/datatypes"
)

type Release struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UserID        uint                        `gorm:"not null;index" json:"user_id"`
	ReleaseType   string                      `gorm:"size:16;not null" json:"release_type"` // single | album | ep
	SongName      string                      `gorm:"size:255;not null;index" json:"song_name"`
	ArtistID      uint                        `gorm:"not null;index" json:"artist_id"`
	LabelID       *uint                       `gorm:"index" json:"label_id"`
	Language      string                      `gorm:"size:64" json:"language"`
	Genre         string                      `gorm:"size:64" json:"genre"`
	Copyright     string                      `gorm:"size:255" json:"copyright"`
	Lyricists     datatypes.JSONSlice[string] `json:"lyricists"`
	Composers     datatypes.JSONSlice[string] `json:"composers"`
	Platforms     datatypes.JSONSlice[string] `json:"platforms"`
	AudioFile     string                      `gorm:"size:512" json:"audio_file"`
	AudioPublicID string                      `gorm:"size:255" json:"-"`
	CoverArt      string                      `gorm:"size:512" json:"cover_art"`
	CoverPublicID string                      `gorm:"size:255" json:"-"`
	ReleaseDate   *time.Time                  `json:"release_date"`
	Status        string                      `gorm:"size:32;not null;default:'pending';index" json:"status"`
	AdminNotes    string                      `gorm:"type:text" json:"admin_notes"`
	Version       uint                        `gorm:"not null;default:1" json:"version"`
	ApprovedAt    *time.Time                  `json:"approved_at"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (Release) TableName() string {
	return "releases"
}
