package models

import (
	"time"

	"gorm.io/datatypes"
)

type Artist struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	UserID       uint                        `gorm:"not null;index" json:"user_id"`
	Name         string                      `gorm:"size:255;not null;index" json:"name"`
	Email        string                      `gorm:"size:255" json:"email"`
	Phone        string                      `gorm:"size:32" json:"phone"`
	Bio          string                      `gorm:"type:text" json:"bio"`
	Country      string                      `gorm:"size:64" json:"country"`
	SpotifyURL   string                      `gorm:"size:512" json:"spotify_url"`
	InstagramURL string                      `gorm:"size:512" json:"instagram_url"`
	YouTubeURL   string                      `gorm:"column:youtube_url;size:512" json:"youtube_url"`
	Genres       datatypes.JSONSlice[string] `json:"genres"`
	Languages    datatypes.JSONSlice[string] `json:"languages"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (Artist) TableName() string {
	return "artists"
}

type Label struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Website   string    `gorm:"size:512" json:"website"`
	Country   string    `gorm:"size:64" json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Label) TableName() string {
	return "labels"
}
