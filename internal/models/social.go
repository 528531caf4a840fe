package models

import (
	"time"

	"gorm.io/gorm"
)

// Friendship statuses
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipBlocked  = "blocked"
)

// Friendship represents the relationship between two users.
// Requester sent the friend request, addressee received it.
type Friendship struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RequesterID string `gorm:"not null;index:idx_friendships_pair" json:"requester_id"`
	AddresseeID string `gorm:"not null;index:idx_friendships_pair" json:"addressee_id"`
	Status      string `gorm:"default:pending;index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Friendship
func (Friendship) TableName() string {
	return "friendships"
}

// Involves reports whether both user IDs are parties to this friendship
func (f *Friendship) Involves(a, b string) bool {
	return (f.RequesterID == a && f.AddresseeID == b) ||
		(f.RequesterID == b && f.AddresseeID == a)
}

// UserBlock represents one user blocking another.
// A block suppresses sharing in both directions regardless of content visibility.
type UserBlock struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BlockerID string `gorm:"not null;index" json:"blocker_id"`
	BlockedID string `gorm:"not null;index" json:"blocked_id"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserBlock
func (UserBlock) TableName() string {
	return "user_blocks"
}

// Group member roles
const (
	GroupRoleMember = "member"
	GroupRoleAdmin  = "admin"
	GroupRoleOwner  = "owner"
)

// Group represents a team, club or community group
type Group struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Sport       string `gorm:"index" json:"sport"`
	OwnerID     string `gorm:"not null;index" json:"owner_id"`
	IsPrivate   bool   `gorm:"default:false" json:"is_private"`
	MemberCount int    `gorm:"default:0" json:"member_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Group
func (Group) TableName() string {
	return "groups"
}

// GroupMember records a user's membership and role within a group
type GroupMember struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	GroupID string `gorm:"not null;index:idx_group_members_pair" json:"group_id"`
	UserID  string `gorm:"not null;index:idx_group_members_pair" json:"user_id"`
	Role    string `gorm:"default:member" json:"role"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GroupMember
func (GroupMember) TableName() string {
	return "group_members"
}
