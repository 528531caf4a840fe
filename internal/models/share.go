package models

import (
	"time"

	"gorm.io/gorm"
)

// Share kinds. The kind determines target-shape rules and notification fan-out.
const (
	ShareKindFriends = "friends"
	ShareKindFeed    = "feed"
	ShareKindGroups  = "groups"
)

// FeedTarget is the single literal target allowed for feed-kind shares
const FeedTarget = "feed"

// ValidShareKind reports whether k is a recognized share kind
func ValidShareKind(k string) bool {
	switch k {
	case ShareKindFriends, ShareKindFeed, ShareKindGroups:
		return true
	}
	return false
}

// Share is a persisted share record. Targets are friend IDs, group IDs,
// or the single literal "feed" depending on ShareKind.
//
// ActorID always comes from the authenticated request context, never from
// the client payload.
type Share struct {
	ID              string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ContentID       string      `gorm:"not null;index" json:"content_id"`
	Content         Content     `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	ActorID         string      `gorm:"not null;index" json:"actor_id"`
	Actor           User        `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	OriginalOwnerID string      `gorm:"not null;index" json:"original_owner_id"`
	ShareKind       string      `gorm:"not null;index" json:"share_kind"`
	Targets         StringArray `gorm:"type:text[];not null" json:"targets"`
	Message         string      `gorm:"type:text" json:"message"`
	Visibility      string      `gorm:"default:friends" json:"visibility"`
	Metadata        Metadata    `gorm:"type:jsonb" json:"metadata"`

	// StreamActivityID is written back after the feed activity is created,
	// so an unshare can remove the activity again
	StreamActivityID string `json:"stream_activity_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Share
func (Share) TableName() string {
	return "shares"
}

// Repost is the side record created by a feed-kind share. Snapshot holds a
// defensive copy of the original content's displayable fields taken at share
// time, so the repost renders even if the original is later edited or deleted.
type Repost struct {
	ID                string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID            string   `gorm:"not null;index" json:"user_id"`
	User              User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OriginalContentID string   `gorm:"not null;index" json:"original_content_id"`
	ShareID           string   `gorm:"not null;index" json:"share_id"`
	Quote             string   `gorm:"type:text" json:"quote"`
	Snapshot          Metadata `gorm:"type:jsonb" json:"snapshot"`
	StreamActivityID  string   `json:"stream_activity_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Repost
func (Repost) TableName() string {
	return "reposts"
}

// SnapshotOf builds the defensive copy of a content's displayable fields
func SnapshotOf(content *Content) Metadata {
	return Metadata{
		"content_id":    content.ID,
		"owner_id":      content.UserID,
		"caption":       content.Caption,
		"media_url":     content.MediaURL,
		"thumbnail_url": content.ThumbnailURL,
		"media_type":    content.MediaType,
		"sport":         content.Sport,
		"created_at":    content.CreatedAt,
	}
}
