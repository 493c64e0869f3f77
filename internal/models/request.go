package models

import "time"

// TakedownRequest asks for removal of an infringing YouTube upload of a release.
type TakedownRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ReleaseID  uint      `gorm:"not null;index" json:"release_id"`
	LabelID    uint      `gorm:"not null;index" json:"label_id"`
	YouTubeURL string    `gorm:"column:youtube_url;size:512;not null" json:"youtube_url"`
	Status     string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNotes string    `gorm:"type:text" json:"admin_notes"`
	Version    uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (TakedownRequest) TableName() string {
	return "takedown_requests"
}

// OACRequest asks for a YouTube Official Artist Channel merge.
type OACRequest struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	ArtistID         uint      `gorm:"not null;index" json:"artist_id"`
	LabelID          uint      `gorm:"not null;index" json:"label_id"`
	TopicChannelURL  string    `gorm:"size:512;not null" json:"topic_channel_url"`
	ArtistChannelURL string    `gorm:"size:512;not null" json:"artist_channel_url"`
	Status           string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNotes       string    `gorm:"type:text" json:"admin_notes"`
	Version          uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (OACRequest) TableName() string {
	return "oac_requests"
}
