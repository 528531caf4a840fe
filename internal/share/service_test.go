package share

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhuddle/backend/internal/analytics"
	"github.com/playhuddle/backend/internal/errlog"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/permissions"
	"github.com/playhuddle/backend/internal/ratelimit"
	"github.com/playhuddle/backend/internal/stream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ShareServiceTestSuite exercises the full share pipeline against a real
// database with a mock Stream client
type ShareServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	ctx  context.Context
	mock *stream.MockStreamClient
	errs *errlog.Recorder
	svc  *Service

	owner    *models.User
	actor    *models.User
	friend   *models.User
	stranger *models.User
}

func (suite *ShareServiceTestSuite) SetupSuite() {
	host := envOrDefault("POSTGRES_HOST", "localhost")
	port := envOrDefault("POSTGRES_PORT", "5432")
	user := envOrDefault("POSTGRES_USER", "postgres")
	password := envOrDefault("POSTGRES_PASSWORD", "")
	dbname := envOrDefault("POSTGRES_DB", "huddle_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping share service tests: database not available (%v)", err)
		return
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Content{},
		&models.Friendship{},
		&models.UserBlock{},
		&models.Group{},
		&models.GroupMember{},
		&models.Share{},
		&models.Repost{},
		&models.ShareEvent{},
		&models.ErrorLog{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.ctx = context.Background()
}

func (suite *ShareServiceTestSuite) SetupTest() {
	suite.newService(ratelimit.ShareConfig())

	suite.owner = suite.createUser()
	suite.actor = suite.createUser()
	suite.friend = suite.createUser()
	suite.stranger = suite.createUser()

	suite.befriend(suite.actor.ID, suite.friend.ID)
	suite.befriend(suite.actor.ID, suite.owner.ID)
}

// newService rebuilds the pipeline, letting tests pick a limiter config
func (suite *ShareServiceTestSuite) newService(cfg ratelimit.Config) {
	suite.mock = stream.NewMockStreamClient()
	suite.errs = errlog.NewRecorder(suite.db)
	suite.svc = NewService(
		suite.db,
		NewStructValidator(suite.db),
		permissions.NewValidator(suite.db),
		ratelimit.New(cfg),
		analytics.NewRecorder(suite.db),
		suite.errs,
		suite.mock,
	)
	suite.svc.Async = false
}

func (suite *ShareServiceTestSuite) createUser() *models.User {
	id := uuid.New().String()
	user := &models.User{
		ID:                     id,
		Email:                  id + "@test.local",
		Username:               "u_" + id[:8],
		DisplayName:            "Test User",
		SharingEnabled:         true,
		AllowSharesFromFriends: true,
	}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *ShareServiceTestSuite) createContent(ownerID, visibility string) *models.Content {
	content := &models.Content{
		ID:         uuid.New().String(),
		UserID:     ownerID,
		Caption:    "full-time highlights",
		MediaURL:   "https://cdn.test.local/clip.mp4",
		MediaType:  "video",
		Sport:      "soccer",
		Visibility: visibility,
	}
	require.NoError(suite.T(), suite.db.Create(content).Error)
	return content
}

func (suite *ShareServiceTestSuite) befriend(a, b string) {
	require.NoError(suite.T(), suite.db.Create(&models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: a,
		AddresseeID: b,
		Status:      models.FriendshipAccepted,
	}).Error)
}

func (suite *ShareServiceTestSuite) shareCount(actorID string) int64 {
	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.Share{}).
		Where("actor_id = ?", actorID).Count(&count).Error)
	return count
}

func (suite *ShareServiceTestSuite) lastEvent(actorID string) *models.ShareEvent {
	var event models.ShareEvent
	err := suite.db.Where("actor_id = ?", actorID).
		Order("created_at DESC").First(&event).Error
	require.NoError(suite.T(), err)
	return &event
}

func (suite *ShareServiceTestSuite) TestFriendShareHappyPath() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
		Message:   "what a comeback",
	})

	require.True(suite.T(), out.Success, "errors: %v", out.Errors)
	require.NotNil(suite.T(), out.Share)
	suite.Equal(models.ShareKindFriends, out.Share.ShareKind)
	suite.Equal(suite.owner.ID, out.Share.OriginalOwnerID)
	suite.Equal([]string{suite.friend.ID}, []string(out.Share.Targets))
	suite.Nil(out.Repost)

	// Activity posted once, owner and recipient each notified
	suite.True(suite.mock.AssertCallCount("AddShareActivity", 1))
	suite.True(suite.mock.AssertCallCount("NotifyShare", 2))

	event := suite.lastEvent(suite.actor.ID)
	suite.Equal(models.EventShareSuccess, event.EventType)
	suite.Equal(1, event.TargetCount)
}

func (suite *ShareServiceTestSuite) TestFeedShareCreatesRepost() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFeed(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Message:   "had to repost this",
	})

	require.True(suite.T(), out.Success, "errors: %v", out.Errors)
	require.NotNil(suite.T(), out.Repost)
	suite.Equal(content.ID, out.Repost.OriginalContentID)
	suite.Equal("full-time highlights", out.Repost.Snapshot["caption"])
	suite.Equal("had to repost this", out.Repost.Quote)

	var fresh models.Content
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", content.ID).Error)
	suite.Equal(1, fresh.ShareCount)

	suite.True(suite.mock.AssertCalled("AddRepostActivity"))

	// The mock assigns an activity id, which gets written back to the repost
	var repost models.Repost
	require.NoError(suite.T(), suite.db.First(&repost, "id = ?", out.Repost.ID).Error)
	suite.Equal("mock-repost-"+out.Share.ID, repost.StreamActivityID)

	// Snapshot is frozen at share time: editing and even deleting the
	// source afterwards must not change what the repost renders
	require.NoError(suite.T(), suite.db.Model(&models.Content{}).
		Where("id = ?", content.ID).
		Update("caption", "edited after the repost").Error)
	require.NoError(suite.T(), suite.db.Delete(&models.Content{}, "id = ?", content.ID).Error)

	require.NoError(suite.T(), suite.db.First(&repost, "id = ?", out.Repost.ID).Error)
	suite.Equal("full-time highlights", repost.Snapshot["caption"])
	suite.Equal(content.MediaURL, repost.Snapshot["media_url"])
	suite.Equal(suite.owner.ID, repost.Snapshot["owner_id"])
}

func (suite *ShareServiceTestSuite) TestUnshareFeedShare() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFeed(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Message:   "reposting",
	})
	require.True(suite.T(), out.Success, "errors: %v", out.Errors)

	// The activity id written back at share time is what gets removed later
	var persisted models.Share
	require.NoError(suite.T(), suite.db.First(&persisted, "id = ?", out.Share.ID).Error)
	require.Equal(suite.T(), "mock-activity-"+out.Share.ID, persisted.StreamActivityID)

	require.NoError(suite.T(), suite.svc.Unshare(suite.ctx, suite.actor.ID, out.Share.ID))

	suite.Zero(suite.shareCount(suite.actor.ID))

	var repostCount int64
	require.NoError(suite.T(), suite.db.Model(&models.Repost{}).
		Where("share_id = ?", out.Share.ID).Count(&repostCount).Error)
	suite.Zero(repostCount)

	var fresh models.Content
	require.NoError(suite.T(), suite.db.First(&fresh, "id = ?", content.ID).Error)
	suite.Equal(0, fresh.ShareCount)

	calls := suite.mock.GetCallsForMethod("DeleteShareActivity")
	require.Len(suite.T(), calls, 1)
	suite.Equal(suite.actor.ID, calls[0].Args[0])
	suite.Equal("mock-activity-"+out.Share.ID, calls[0].Args[1])
}

func (suite *ShareServiceTestSuite) TestUnshareRejectsNonOwner() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
	})
	require.True(suite.T(), out.Success)

	err := suite.svc.Unshare(suite.ctx, suite.stranger.ID, out.Share.ID)
	suite.ErrorIs(err, ErrNotShareOwner)
	suite.Equal(int64(1), suite.shareCount(suite.actor.ID))
	suite.True(suite.mock.AssertNotCalled("DeleteShareActivity"))
}

func (suite *ShareServiceTestSuite) TestUnshareMissingShare() {
	err := suite.svc.Unshare(suite.ctx, suite.actor.ID, uuid.New().String())
	suite.ErrorIs(err, ErrShareNotFound)
}

func (suite *ShareServiceTestSuite) TestSelfShareSkipsOwnerNotification() {
	content := suite.createContent(suite.actor.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFeed(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
	})

	require.True(suite.T(), out.Success)
	suite.True(suite.mock.AssertNotCalled("NotifyShare"))
}

func (suite *ShareServiceTestSuite) TestPrivateContentPermissionDenied() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPrivate)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
	})

	suite.False(out.Success)
	suite.Equal(models.ErrorCategoryPermission, out.Category)
	suite.Equal(UserMessage(models.ErrorCategoryPermission), out.Message)
	suite.Zero(suite.shareCount(suite.actor.ID))
	suite.True(suite.mock.AssertNotCalled("AddShareActivity"))

	event := suite.lastEvent(suite.actor.ID)
	suite.Equal(models.EventShareFailure, event.EventType)
	suite.Equal(models.ErrorCategoryPermission, event.Category)
}

func (suite *ShareServiceTestSuite) TestRateLimitExceeded() {
	cfg := ratelimit.ShareConfig()
	cfg.PerMinute = 1
	suite.newService(cfg)

	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	first := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
	})
	require.True(suite.T(), first.Success)

	second := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
	})
	suite.False(second.Success)
	suite.Equal(models.ErrorCategoryRateLimit, second.Category)
	suite.Greater(second.RetryAfter, 0)
	suite.Equal(int64(1), suite.shareCount(suite.actor.ID))
}

func (suite *ShareServiceTestSuite) TestSpamMessageBlocked() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
		Message:   "free money! click here, limited time offer, act now",
	})

	suite.False(out.Success)
	suite.Equal(models.ErrorCategoryValidation, out.Category)
	suite.Contains(out.Errors, "message was flagged as spam")
	suite.Zero(suite.shareCount(suite.actor.ID))
}

func (suite *ShareServiceTestSuite) TestModerateSpamSurfacesDetectorReasons() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
		Message:   "join join join join join join http://example.com/win",
	})

	// Below the block threshold the share goes through, but the filter's
	// link violation and the detector's repetition reason both surface
	require.True(suite.T(), out.Success, "errors: %v", out.Errors)
	suite.Contains(out.Warnings, "message contains a link")
	suite.Contains(out.Warnings, `word "join" repeated 6 times`)
	suite.GreaterOrEqual(len(out.Warnings), 2)
}

func (suite *ShareServiceTestSuite) TestPartialFriendTargets() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID, suite.stranger.ID},
	})

	require.True(suite.T(), out.Success)
	suite.Equal([]string{suite.friend.ID}, out.ValidTargets)
	suite.Equal([]string{suite.stranger.ID}, out.InvalidTargets)
	suite.Equal([]string{suite.friend.ID}, []string(out.Share.Targets))
}

func (suite *ShareServiceTestSuite) TestNoValidTargets() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.stranger.ID},
	})

	suite.False(out.Success)
	suite.Equal(models.ErrorCategoryValidation, out.Category)
	suite.Contains(out.Errors, "no valid targets")
	suite.Equal([]string{suite.stranger.ID}, out.InvalidTargets)
}

func (suite *ShareServiceTestSuite) TestStructuralValidationFailure() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{},
	})

	suite.False(out.Success)
	suite.Equal(models.ErrorCategoryValidation, out.Category)
	suite.NotEmpty(out.Errors)
	suite.True(suite.mock.AssertNotCalled("AddShareActivity"))
}

func (suite *ShareServiceTestSuite) TestMissingContentIsNotFound() {
	out := suite.svc.ShareToFeed(suite.ctx, &Request{
		ContentID: uuid.New().String(),
		ActorID:   suite.actor.ID,
	})

	suite.False(out.Success)
	suite.Equal(models.ErrorCategoryNotFound, out.Category)
	suite.Equal(UserMessage(models.ErrorCategoryNotFound), out.Message)
}

func (suite *ShareServiceTestSuite) TestGroupShare() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	group := &models.Group{ID: uuid.New().String(), Name: "5-a-side crew", OwnerID: suite.actor.ID}
	require.NoError(suite.T(), suite.db.Create(group).Error)
	require.NoError(suite.T(), suite.db.Create(&models.GroupMember{
		ID:      uuid.New().String(),
		GroupID: group.ID,
		UserID:  suite.actor.ID,
		Role:    models.GroupRoleOwner,
	}).Error)

	out := suite.svc.ShareToGroups(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{group.ID},
	})

	require.True(suite.T(), out.Success, "errors: %v", out.Errors)
	suite.Equal(models.ShareKindGroups, out.Share.ShareKind)
	suite.Equal([]string{group.ID}, []string(out.Share.Targets))
}

func (suite *ShareServiceTestSuite) TestFailuresReachErrorLog() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPrivate)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
	})
	require.False(suite.T(), out.Success)

	suite.errs.Flush(suite.ctx)

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.ErrorLog{}).
		Where("user_id = ? AND category = ?", suite.actor.ID, models.ErrorCategoryPermission).
		Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *ShareServiceTestSuite) TestMessageIsFilteredBeforePersisting() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	out := suite.svc.ShareToFriends(suite.ctx, &Request{
		ContentID: content.ID,
		ActorID:   suite.actor.ID,
		Targets:   []string{suite.friend.ID},
		Message:   "insaaaaaaane finish\x00",
	})

	require.True(suite.T(), out.Success)
	suite.Equal("insaaane finish", out.Share.Message)
	suite.NotEmpty(out.Warnings)
}

func (suite *ShareServiceTestSuite) TestRepeatedIdenticalMessagesRaiseScore() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	// Same message and target set over and over; context scoring should
	// eventually cross the block threshold
	blocked := false
	for i := 0; i < 8; i++ {
		out := suite.svc.ShareToFriends(suite.ctx, &Request{
			ContentID: content.ID,
			ActorID:   suite.actor.ID,
			Targets:   []string{suite.friend.ID},
			Message:   "check out this great highlight reel everyone",
		})
		if !out.Success && out.Category == models.ErrorCategoryValidation {
			blocked = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	suite.True(blocked, "identical repeated messages never got blocked")
}

func TestShareServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ShareServiceTestSuite))
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
