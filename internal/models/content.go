package models

import (
	"time"

	"gorm.io/gorm"
)

// Content visibility levels
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// ValidVisibility reports whether v is a recognized visibility level
func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// Content represents a shareable content item: a post or a "moment"
// (short video) from a game, training session, etc.
type Content struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Caption string `gorm:"type:text" json:"caption"`

	// Media
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	MediaType    string `json:"media_type"` // image, video, moment

	// Sports context
	Sport     string `gorm:"index" json:"sport"`
	MatchDate *time.Time `json:"match_date,omitempty"`

	Visibility      string `gorm:"default:public;index" json:"visibility"`
	SharingDisabled bool   `gorm:"default:false" json:"sharing_disabled"`
	IsDeleted       bool   `gorm:"default:false" json:"is_deleted"`

	// Engagement counters (optimistic mirrors; DB triggers are authoritative)
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`
	ShareCount   int `gorm:"default:0" json:"share_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Content
func (Content) TableName() string {
	return "contents"
}

// IsShareable reports whether the content itself permits sharing,
// before any relationship checks
func (c *Content) IsShareable() bool {
	return !c.IsDeleted && !c.SharingDisabled
}
