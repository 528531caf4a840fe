package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a Huddle athlete account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"` // City/Country

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	AvatarURL      string      `json:"avatar_url"`
	FavoriteSports StringArray `gorm:"type:text[]" json:"favorite_sports"`
	TeamName       string      `json:"team_name"`

	// Sharing preferences and moderation flags.
	// SharingEnabled is the user's own global opt-out; AllowSharesFromFriends
	// controls whether other users may share content *to* them.
	SharingEnabled         bool `gorm:"default:true" json:"sharing_enabled"`
	AllowSharesFromFriends bool `gorm:"default:true" json:"allow_shares_from_friends"`
	IsSuspended            bool `gorm:"default:false" json:"is_suspended"`
	IsBanned               bool `gorm:"default:false" json:"is_banned"`
	IsAdmin                bool `gorm:"default:false" json:"is_admin"`

	// Social stats (cached counters, not source of truth)
	FriendCount int `gorm:"default:0" json:"friend_count"`
	PostCount   int `gorm:"default:0" json:"post_count"`
	ShareCount  int `gorm:"default:0" json:"share_count"`

	// Stream.io integration
	StreamUserID string `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// CanActorShare reports whether this user is currently allowed to initiate
// shares at all (account-level gates, independent of any content).
func (u *User) CanActorShare() bool {
	return u.SharingEnabled && !u.IsBanned && !u.IsSuspended
}

// GetAvatarURL returns the avatar URL or empty string
func (u *User) GetAvatarURL() string {
	return u.AvatarURL
}
