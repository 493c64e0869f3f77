package models

import "time"

// StatusChange is the append-only history of admin status actions.
type StatusChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Entity     string    `gorm:"size:32;not null;index:idx_status_change_record" json:"entity"`
	RecordID   uint      `gorm:"not null;index:idx_status_change_record" json:"record_id"`
	FromStatus string    `gorm:"size:32;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:32;not null" json:"to_status"`
	Note       string    `gorm:"type:text" json:"note"`
	ActorID    uint      `gorm:"index" json:"actor_id"`
	ActorEmail string    `gorm:"size:255" json:"actor_email"`
	Version    uint      `gorm:"not null" json:"version"` // version after the change
	CreatedAt  time.Time `json:"created_at"`
}

func (StatusChange) TableName() string {
	return "status_changes"
}

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resource_id"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
