package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRecordsCalls(t *testing.T) {
	mock := NewMockStreamClient()

	err := mock.NotifyShare("actor-1", "owner-1", "content-1", "friends")
	require.NoError(t, err)

	calls := mock.GetCallsForMethod("NotifyShare")
	require.Len(t, calls, 1)
	assert.Equal(t, "actor-1", calls[0].Args[0])
	assert.Equal(t, "friends", calls[0].Args[3])

	assert.True(t, mock.AssertCalled("NotifyShare"))
	assert.True(t, mock.AssertNotCalled("AddShareActivity"))
	assert.True(t, mock.AssertCallCount("NotifyShare", 1))
}

func TestMockAssignsActivityIDs(t *testing.T) {
	mock := NewMockStreamClient()

	share := &ShareActivity{ShareID: "share-1"}
	require.NoError(t, mock.AddShareActivity("actor-1", share))
	assert.Equal(t, "mock-activity-share-1", share.ID)

	repost := &RepostActivity{ShareID: "share-2"}
	require.NoError(t, mock.AddRepostActivity("actor-1", repost))
	assert.Equal(t, "mock-repost-share-2", repost.ID)
}

func TestMockFuncOverrides(t *testing.T) {
	mock := NewMockStreamClient()
	mock.NotifyShareFunc = func(actorUserID, targetUserID, contentID, shareKind string) error {
		return errors.New("stream unavailable")
	}
	mock.GetNotificationCountsFunc = func(userID string) (int, int, error) {
		return 4, 9, nil
	}

	assert.Error(t, mock.NotifyShare("a", "b", "c", "feed"))

	unseen, unread, err := mock.GetNotificationCounts("user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, unseen)
	assert.Equal(t, 9, unread)
}

func TestMockDefaultError(t *testing.T) {
	mock := NewMockStreamClient()
	mock.DefaultError = errors.New("boom")

	assert.Error(t, mock.CreateUser("user-1", "alice"))
	assert.Error(t, mock.AddShareActivity("user-1", &ShareActivity{}))

	_, err := mock.GetNotifications("user-1", 10, 0)
	assert.Error(t, err)
}

func TestMockCreateTokenDefault(t *testing.T) {
	mock := NewMockStreamClient()

	token, err := mock.CreateToken("user-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "mock-token-user-1", token)
}

func TestMockReset(t *testing.T) {
	mock := NewMockStreamClient()
	_ = mock.MarkNotificationsRead("user-1")
	require.NotEmpty(t, mock.GetCalls())

	mock.Reset()
	assert.Empty(t, mock.GetCalls())
}
