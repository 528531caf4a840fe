package stream

import (
	"context"
	"fmt"
	"os"
	"time"

	chat "github.com/GetStream/stream-chat-go/v5"
	stream "github.com/GetStream/stream-go2/v8"
)

// Feed group names configured in Stream.io dashboard
const (
	FeedGroupUser         = "user"         // Personal feed - user's own shares and posts
	FeedGroupTimeline     = "timeline"     // Aggregated feed from friends
	FeedGroupGlobal       = "global"       // All public shares
	FeedGroupNotification = "notification" // Per-user notification feed
)

// Activity verbs used by the share pipeline
const (
	VerbShare  = "shared"
	VerbRepost = "reposted"
)

// Client wraps the Stream.io clients with Huddle-specific functionality
type Client struct {
	feedsClient *stream.Client
	ChatClient  *chat.Client
}

// ShareActivity represents a share posted to a user feed
type ShareActivity struct {
	ID        string                 `json:"id,omitempty"`
	Actor     string                 `json:"actor"`
	Verb      string                 `json:"verb"`
	Object    string                 `json:"object"`
	ForeignID string                 `json:"foreign_id,omitempty"`
	Time      string                 `json:"time,omitempty"`
	ShareID   string                 `json:"share_id"`
	ContentID string                 `json:"content_id"`
	ShareKind string                 `json:"share_kind"`
	Message   string                 `json:"message,omitempty"`
	Sport     string                 `json:"sport,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// RepostActivity represents a feed share. Snapshot carries the original
// content's displayable fields so the repost renders even if the original
// is edited or deleted later.
type RepostActivity struct {
	ID        string                 `json:"id,omitempty"`
	ShareID   string                 `json:"share_id"`
	ContentID string                 `json:"content_id"`
	Quote     string                 `json:"quote,omitempty"`
	Snapshot  map[string]interface{} `json:"snapshot"`
	Time      string                 `json:"time,omitempty"`
}

// NotificationGroup is one aggregated group in a notification feed
type NotificationGroup struct {
	ID            string           `json:"id"`
	Verb          string           `json:"verb"`
	ActivityCount int              `json:"activity_count"`
	ActorCount    int              `json:"actor_count"`
	IsRead        bool             `json:"is_read"`
	IsSeen        bool             `json:"is_seen"`
	Activities    []*ShareActivity `json:"activities"`
	CreatedAt     string           `json:"created_at,omitempty"`
	UpdatedAt     string           `json:"updated_at,omitempty"`
}

// NotificationResponse is a page of a user's notification feed
type NotificationResponse struct {
	Groups []*NotificationGroup `json:"groups"`
	Unseen int                  `json:"unseen"`
	Unread int                  `json:"unread"`
}

// NewClient creates a new Stream.io client for Huddle
func NewClient() (*Client, error) {
	apiKey := os.Getenv("STREAM_API_KEY")
	apiSecret := os.Getenv("STREAM_API_SECRET")

	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET must be set")
	}

	feedsClient, err := stream.New(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stream.io Feeds client: %w", err)
	}

	// Chat client (separate SDK) handles user upserts and tokens
	chatClient, err := chat.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create Stream.io Chat client: %w", err)
	}

	return &Client{
		feedsClient: feedsClient,
		ChatClient:  chatClient,
	}, nil
}

// FeedsClient returns the underlying feeds client for direct access if needed
func (c *Client) FeedsClient() *stream.Client {
	return c.feedsClient
}

// CreateUser creates a Stream.io user for both feeds and chat
func (c *Client) CreateUser(userID, username string) error {
	ctx := context.Background()

	user := &chat.User{
		ID:   userID,
		Name: username,
	}
	_, err := c.ChatClient.UpsertUser(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create chat user: %w", err)
	}

	// Feeds V2 users are created automatically when they perform actions
	return nil
}

// CreateToken creates a JWT token for client-side Stream authentication
func (c *Client) CreateToken(userID string, expiration time.Time) (string, error) {
	token, err := c.ChatClient.CreateToken(userID, expiration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// AddShareActivity posts a share to the actor's user feed. Public shares
// propagate to the global feed via the "to" field.
func (c *Client) AddShareActivity(actorID string, activity *ShareActivity) error {
	ctx := context.Background()

	userFeed, err := c.feedsClient.FlatFeed(FeedGroupUser, actorID)
	if err != nil {
		return fmt.Errorf("failed to get user feed: %w", err)
	}

	streamActivity := stream.Activity{
		Actor:  fmt.Sprintf("user:%s", actorID),
		Verb:   VerbShare,
		Object: activity.Object,
		Extra: map[string]any{
			"share_id":   activity.ShareID,
			"content_id": activity.ContentID,
			"share_kind": activity.ShareKind,
		},
	}
	if activity.Message != "" {
		streamActivity.Extra["message"] = activity.Message
	}
	if activity.Sport != "" {
		streamActivity.Extra["sport"] = activity.Sport
	}
	for k, v := range activity.Extra {
		streamActivity.Extra[k] = v
	}
	if activity.ForeignID != "" {
		streamActivity.ForeignID = activity.ForeignID
	}

	globalFeed, err := c.feedsClient.FlatFeed(FeedGroupGlobal, "main")
	if err != nil {
		return fmt.Errorf("failed to get global feed: %w", err)
	}
	streamActivity.To = []string{globalFeed.ID()}

	resp, err := userFeed.AddActivity(ctx, streamActivity)
	if err != nil {
		return fmt.Errorf("failed to create Stream.io activity: %w", err)
	}

	activity.ID = resp.ID
	if !resp.Time.IsZero() {
		activity.Time = resp.Time.Format(time.RFC3339)
	}

	fmt.Printf("📤 Stream.io Activity Created: user:%s shared content %s (ID: %s)\n",
		actorID, activity.ContentID, activity.ID)

	return nil
}

// AddRepostActivity posts a feed share to the actor's user feed carrying the
// content snapshot in the activity extras
func (c *Client) AddRepostActivity(actorID string, activity *RepostActivity) error {
	ctx := context.Background()

	userFeed, err := c.feedsClient.FlatFeed(FeedGroupUser, actorID)
	if err != nil {
		return fmt.Errorf("failed to get user feed: %w", err)
	}

	streamActivity := stream.Activity{
		Actor:  fmt.Sprintf("user:%s", actorID),
		Verb:   VerbRepost,
		Object: fmt.Sprintf("content:%s", activity.ContentID),
		Extra: map[string]any{
			"share_id":   activity.ShareID,
			"content_id": activity.ContentID,
			"snapshot":   activity.Snapshot,
		},
	}
	if activity.Quote != "" {
		streamActivity.Extra["quote"] = activity.Quote
	}

	globalFeed, err := c.feedsClient.FlatFeed(FeedGroupGlobal, "main")
	if err != nil {
		return fmt.Errorf("failed to get global feed: %w", err)
	}
	streamActivity.To = []string{globalFeed.ID()}

	resp, err := userFeed.AddActivity(ctx, streamActivity)
	if err != nil {
		return fmt.Errorf("failed to create repost activity: %w", err)
	}

	activity.ID = resp.ID
	if !resp.Time.IsZero() {
		activity.Time = resp.Time.Format(time.RFC3339)
	}

	return nil
}

// DeleteShareActivity removes a share activity from the actor's user feed
func (c *Client) DeleteShareActivity(actorID, activityID string) error {
	ctx := context.Background()

	userFeed, err := c.feedsClient.FlatFeed(FeedGroupUser, actorID)
	if err != nil {
		return fmt.Errorf("failed to get user feed: %w", err)
	}

	_, err = userFeed.RemoveActivityByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("failed to remove activity: %w", err)
	}
	return nil
}

// NotifyShare adds a share notification to the target user's notification feed
func (c *Client) NotifyShare(actorUserID, targetUserID, contentID, shareKind string) error {
	ctx := context.Background()

	notificationFeed, err := c.feedsClient.NotificationFeed(FeedGroupNotification, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to get notification feed: %w", err)
	}

	activity := stream.Activity{
		Actor:  fmt.Sprintf("user:%s", actorUserID),
		Verb:   VerbShare,
		Object: fmt.Sprintf("content:%s", contentID),
		Extra: map[string]any{
			"share_kind": shareKind,
		},
	}

	_, err = notificationFeed.AddActivity(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to add share notification: %w", err)
	}

	fmt.Printf("🔔 %s notified about share of %s by %s\n", targetUserID, contentID, actorUserID)
	return nil
}

// GetNotifications returns a page of the user's notification feed
func (c *Client) GetNotifications(userID string, limit, offset int) (*NotificationResponse, error) {
	ctx := context.Background()

	notificationFeed, err := c.feedsClient.NotificationFeed(FeedGroupNotification, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification feed: %w", err)
	}

	resp, err := notificationFeed.GetActivities(ctx,
		stream.WithActivitiesLimit(limit),
		stream.WithActivitiesOffset(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	return convertNotificationResponse(resp), nil
}

// GetNotificationCounts returns unseen and unread counts without marking anything
func (c *Client) GetNotificationCounts(userID string) (unseen, unread int, err error) {
	ctx := context.Background()

	notificationFeed, err := c.feedsClient.NotificationFeed(FeedGroupNotification, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get notification feed: %w", err)
	}

	resp, err := notificationFeed.GetActivities(ctx, stream.WithActivitiesLimit(1))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query notification counts: %w", err)
	}

	return resp.Unseen, resp.Unread, nil
}

// MarkNotificationsRead marks all of the user's notifications as read
func (c *Client) MarkNotificationsRead(userID string) error {
	ctx := context.Background()

	notificationFeed, err := c.feedsClient.NotificationFeed(FeedGroupNotification, userID)
	if err != nil {
		return fmt.Errorf("failed to get notification feed: %w", err)
	}

	_, err = notificationFeed.GetActivities(ctx,
		stream.WithActivitiesLimit(1),
		stream.WithNotificationsMarkRead(true),
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// MarkNotificationsSeen marks all of the user's notifications as seen
func (c *Client) MarkNotificationsSeen(userID string) error {
	ctx := context.Background()

	notificationFeed, err := c.feedsClient.NotificationFeed(FeedGroupNotification, userID)
	if err != nil {
		return fmt.Errorf("failed to get notification feed: %w", err)
	}

	_, err = notificationFeed.GetActivities(ctx,
		stream.WithActivitiesLimit(1),
		stream.WithNotificationsMarkSeen(true),
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications seen: %w", err)
	}
	return nil
}

// GetUserShares returns share activities from a user's personal feed
func (c *Client) GetUserShares(userID string, limit, offset int) ([]*ShareActivity, error) {
	ctx := context.Background()

	userFeed, err := c.feedsClient.FlatFeed(FeedGroupUser, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user feed: %w", err)
	}

	resp, err := userFeed.GetActivities(ctx,
		stream.WithActivitiesLimit(limit),
		stream.WithActivitiesOffset(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user shares: %w", err)
	}

	activities := make([]*ShareActivity, 0, len(resp.Results))
	for _, act := range resp.Results {
		activities = append(activities, convertStreamActivity(&act))
	}
	return activities, nil
}

// GetGlobalShares returns recent share activities from the global feed
func (c *Client) GetGlobalShares(limit, offset int) ([]*ShareActivity, error) {
	ctx := context.Background()

	globalFeed, err := c.feedsClient.FlatFeed(FeedGroupGlobal, "main")
	if err != nil {
		return nil, fmt.Errorf("failed to get global feed: %w", err)
	}

	resp, err := globalFeed.GetActivities(ctx,
		stream.WithActivitiesLimit(limit),
		stream.WithActivitiesOffset(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query global feed: %w", err)
	}

	activities := make([]*ShareActivity, 0, len(resp.Results))
	for _, act := range resp.Results {
		activities = append(activities, convertStreamActivity(&act))
	}

	fmt.Printf("🌍 Fetched %d activities from global feed\n", len(activities))
	return activities, nil
}

// convertStreamActivity converts a Stream.io Activity to our ShareActivity type
func convertStreamActivity(act *stream.Activity) *ShareActivity {
	activity := &ShareActivity{
		ID:     act.ID,
		Actor:  act.Actor,
		Verb:   act.Verb,
		Object: act.Object,
	}

	if !act.Time.IsZero() {
		activity.Time = act.Time.Format(time.RFC3339)
	}

	if act.Extra != nil {
		if shareID, ok := act.Extra["share_id"].(string); ok {
			activity.ShareID = shareID
		}
		if contentID, ok := act.Extra["content_id"].(string); ok {
			activity.ContentID = contentID
		}
		if kind, ok := act.Extra["share_kind"].(string); ok {
			activity.ShareKind = kind
		}
		if message, ok := act.Extra["message"].(string); ok {
			activity.Message = message
		}
		if sport, ok := act.Extra["sport"].(string); ok {
			activity.Sport = sport
		}
	}

	return activity
}

// convertNotificationResponse converts a Stream.io notification feed page
func convertNotificationResponse(resp *stream.NotificationFeedResponse) *NotificationResponse {
	out := &NotificationResponse{
		Groups: make([]*NotificationGroup, 0, len(resp.Results)),
		Unseen: resp.Unseen,
		Unread: resp.Unread,
	}
	for _, group := range resp.Results {
		g := &NotificationGroup{
			ID:            group.ID,
			Verb:          group.Verb,
			ActivityCount: group.ActivityCount,
			ActorCount:    group.ActorCount,
			IsRead:        group.IsRead,
			IsSeen:        group.IsSeen,
			Activities:    make([]*ShareActivity, 0, len(group.Activities)),
		}
		for _, act := range group.Activities {
			g.Activities = append(g.Activities, convertStreamActivity(&act))
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}
