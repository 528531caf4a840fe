package stream

import "time"

// StreamClientInterface defines the interface for Stream.io client operations.
// This enables mocking for unit tests without requiring a real getstream.io connection.
//
// The interface covers all methods used by the share pipeline for:
// - Share activities (actor feed + global fan-out)
// - Repost activities (feed shares with content snapshot)
// - Share notifications (notify owner / notify recipients)
// - Notification feed reads and mark read/seen
// - User operations (create, tokens)
type StreamClientInterface interface {
	// User operations
	CreateUser(userID, username string) error
	CreateToken(userID string, expiration time.Time) (string, error)

	// Share activity operations
	AddShareActivity(actorID string, activity *ShareActivity) error
	AddRepostActivity(actorID string, activity *RepostActivity) error
	DeleteShareActivity(actorID, activityID string) error

	// Notification operations
	NotifyShare(actorUserID, targetUserID, contentID, shareKind string) error
	GetNotifications(userID string, limit, offset int) (*NotificationResponse, error)
	GetNotificationCounts(userID string) (unseen, unread int, err error)
	MarkNotificationsRead(userID string) error
	MarkNotificationsSeen(userID string) error

	// Feed reads
	GetUserShares(userID string, limit, offset int) ([]*ShareActivity, error)
	GetGlobalShares(limit, offset int) ([]*ShareActivity, error)
}

// Ensure Client implements StreamClientInterface
var _ StreamClientInterface = (*Client)(nil)
