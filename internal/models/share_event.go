package models

import "time"

// Share analytics event types
const (
	EventShareSuccess = "share_success"
	EventShareFailure = "share_failure"
)

// ShareEvent is a structured analytics event written for every share attempt.
// Rollup statistics are computed on read; events are never updated.
type ShareEvent struct {
	ID          string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	EventType   string   `gorm:"not null;index" json:"event_type"`
	ActorID     string   `gorm:"not null;index" json:"actor_id"`
	ContentID   string   `gorm:"index" json:"content_id"`
	ShareKind   string   `gorm:"index" json:"share_kind"`
	TargetCount int      `json:"target_count"`
	Category    string   `json:"category"` // failure category, empty on success
	Reason      string   `gorm:"type:text" json:"reason"`
	Metadata    Metadata `gorm:"type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for ShareEvent
func (ShareEvent) TableName() string {
	return "share_events"
}
