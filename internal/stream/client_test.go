package stream

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFeedGroupConstants verifies the feed group names match the
// Stream.io dashboard configuration
func TestFeedGroupConstants(t *testing.T) {
	assert.Equal(t, "user", FeedGroupUser)
	assert.Equal(t, "timeline", FeedGroupTimeline)
	assert.Equal(t, "global", FeedGroupGlobal)
	assert.Equal(t, "notification", FeedGroupNotification)
}

func TestVerbConstants(t *testing.T) {
	assert.Equal(t, "shared", VerbShare)
	assert.Equal(t, "reposted", VerbRepost)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("STREAM_API_KEY", "")
	t.Setenv("STREAM_API_SECRET", "")

	client, err := NewClient()
	assert.Nil(t, client)
	assert.Error(t, err)
}

func TestNewClientWithCredentials(t *testing.T) {
	if os.Getenv("STREAM_API_KEY") == "" || os.Getenv("STREAM_API_SECRET") == "" {
		t.Skip("Skipping: STREAM_API_KEY / STREAM_API_SECRET not set")
	}

	client, err := NewClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.FeedsClient())
	assert.NotNil(t, client.ChatClient)
}

func TestShareActivityStruct(t *testing.T) {
	activity := &ShareActivity{
		Actor:     "user:abc",
		Verb:      VerbShare,
		Object:    "content:xyz",
		ShareID:   "share-1",
		ContentID: "xyz",
		ShareKind: "friends",
		Message:   "watch this goal",
		Sport:     "soccer",
	}

	assert.Equal(t, "user:abc", activity.Actor)
	assert.Equal(t, VerbShare, activity.Verb)
	assert.Equal(t, "friends", activity.ShareKind)
	assert.Empty(t, activity.ID)
}

func TestRepostActivityStruct(t *testing.T) {
	activity := &RepostActivity{
		ShareID:   "share-1",
		ContentID: "content-1",
		Quote:     "what a finish",
		Snapshot: map[string]interface{}{
			"caption":   "match point",
			"media_url": "https://cdn.example.com/clip.mp4",
		},
	}

	assert.Equal(t, "content-1", activity.ContentID)
	assert.Equal(t, "match point", activity.Snapshot["caption"])
}

func TestNotificationResponseStruct(t *testing.T) {
	resp := &NotificationResponse{
		Groups: []*NotificationGroup{
			{
				ID:            "group-1",
				Verb:          VerbShare,
				ActivityCount: 3,
				ActorCount:    2,
				IsSeen:        false,
			},
		},
		Unseen: 5,
		Unread: 7,
	}

	assert.Equal(t, 5, resp.Unseen)
	assert.Equal(t, 7, resp.Unread)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, 3, resp.Groups[0].ActivityCount)
}
