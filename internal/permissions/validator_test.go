package permissions

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhuddle/backend/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PermissionsTestSuite tests the permission validator against a real database
type PermissionsTestSuite struct {
	suite.Suite
	db        *gorm.DB
	validator *Validator
	ctx       context.Context

	owner    *models.User
	friend   *models.User
	stranger *models.User
}

func (suite *PermissionsTestSuite) SetupSuite() {
	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "huddle_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping permissions tests: database not available (%v)", err)
		return
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Content{},
		&models.Friendship{},
		&models.UserBlock{},
		&models.Group{},
		&models.GroupMember{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.ctx = context.Background()
}

func (suite *PermissionsTestSuite) SetupTest() {
	suite.validator = NewValidator(suite.db)
	suite.owner = suite.createUser()
	suite.friend = suite.createUser()
	suite.stranger = suite.createUser()

	// owner <-> friend: accepted friendship
	require.NoError(suite.T(), suite.db.Create(&models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: suite.owner.ID,
		AddresseeID: suite.friend.ID,
		Status:      models.FriendshipAccepted,
	}).Error)
}

func (suite *PermissionsTestSuite) createUser() *models.User {
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

func (suite *PermissionsTestSuite) createContent(ownerID, visibility string) *models.Content {
	content := &models.Content{
		ID:         uuid.New().String(),
		UserID:     ownerID,
		Caption:    "match highlight",
		Visibility: visibility,
	}
	require.NoError(suite.T(), suite.db.Create(content).Error)
	return content
}

func (suite *PermissionsTestSuite) TestPublicContentShareableByAnyone() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.True(decision.CanShare)
	suite.ElementsMatch(
		[]string{models.ShareKindFriends, models.ShareKindFeed, models.ShareKindGroups},
		decision.AllowedTargets,
	)
}

func (suite *PermissionsTestSuite) TestFriendsContentForOwner() {
	content := suite.createContent(suite.owner.ID, models.VisibilityFriends)

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.owner.ID)
	require.NoError(suite.T(), err)
	suite.True(decision.CanShare)
	suite.True(decision.Allows(models.ShareKindGroups))
}

func (suite *PermissionsTestSuite) TestFriendsContentForFriend() {
	content := suite.createContent(suite.owner.ID, models.VisibilityFriends)

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.friend.ID)
	require.NoError(suite.T(), err)
	suite.True(decision.CanShare)
	// Friends of the owner may reshare to friends and feed but not to groups
	suite.ElementsMatch(
		[]string{models.ShareKindFriends, models.ShareKindFeed},
		decision.AllowedTargets,
	)
}

func (suite *PermissionsTestSuite) TestFriendsContentForStranger() {
	content := suite.createContent(suite.owner.ID, models.VisibilityFriends)

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.False(decision.CanShare)
	suite.Empty(decision.AllowedTargets)
}

func (suite *PermissionsTestSuite) TestPrivateContentBlockedExceptOwner() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPrivate)

	for _, actor := range []*models.User{suite.friend, suite.stranger} {
		decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, actor.ID)
		require.NoError(suite.T(), err)
		suite.False(decision.CanShare, "actor %s must not share private content", actor.ID)
	}

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.owner.ID)
	require.NoError(suite.T(), err)
	suite.True(decision.CanShare)
}

func (suite *PermissionsTestSuite) TestBlockBeatsPublicVisibility() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)
	require.NoError(suite.T(), suite.db.Create(&models.UserBlock{
		ID:        uuid.New().String(),
		BlockerID: suite.owner.ID,
		BlockedID: suite.stranger.ID,
	}).Error)

	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.False(decision.CanShare)
}

func (suite *PermissionsTestSuite) TestSharingDisabledBlocksUnconditionally() {
	content := &models.Content{
		ID:              uuid.New().String(),
		UserID:          suite.owner.ID,
		Visibility:      models.VisibilityPublic,
		SharingDisabled: true,
	}
	require.NoError(suite.T(), suite.db.Create(content).Error)

	// Even the owner cannot share once the flag is set
	decision, err := suite.validator.ValidateSharing(suite.ctx, content.ID, suite.owner.ID)
	require.NoError(suite.T(), err)
	suite.False(decision.CanShare)
}

func (suite *PermissionsTestSuite) TestMissingContent() {
	_, err := suite.validator.ValidateSharing(suite.ctx, uuid.New().String(), suite.owner.ID)
	suite.ErrorIs(err, ErrContentNotFound)
}

func (suite *PermissionsTestSuite) TestDecisionCache() {
	content := suite.createContent(suite.owner.ID, models.VisibilityPublic)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	v := NewValidator(suite.db, WithTTL(time.Minute), WithClock(clock))

	first, err := v.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.True(first.CanShare)

	// Flip the flag in the database; the cached decision must still serve
	require.NoError(suite.T(), suite.db.Model(content).Update("sharing_disabled", true).Error)

	cached, err := v.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.True(cached.CanShare)

	// After the TTL the fresh state is observed
	now = now.Add(2 * time.Minute)
	fresh, err := v.ValidateSharing(suite.ctx, content.ID, suite.stranger.ID)
	require.NoError(suite.T(), err)
	suite.False(fresh.CanShare)
}

func (suite *PermissionsTestSuite) TestFriendPartitionCoversEveryInput() {
	optedOut := suite.createUser()
	require.NoError(suite.T(), suite.db.Model(optedOut).Update("allow_shares_from_friends", false).Error)
	require.NoError(suite.T(), suite.db.Create(&models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: optedOut.ID,
		AddresseeID: suite.owner.ID,
		Status:      models.FriendshipAccepted,
	}).Error)

	candidates := []string{suite.friend.ID, suite.stranger.ID, optedOut.ID, uuid.New().String()}
	p := suite.validator.ValidateFriendTargets(suite.ctx, suite.owner.ID, candidates)

	suite.ElementsMatch([]string{suite.friend.ID}, p.ValidFriends)
	suite.Len(p.InvalidFriends, 3)

	// Every candidate lands in exactly one partition
	suite.Equal(len(candidates), len(p.ValidFriends)+len(p.InvalidFriends))
	for _, id := range p.ValidFriends {
		suite.NotContains(p.InvalidFriends, id)
	}
}

func (suite *PermissionsTestSuite) TestFriendPartitionOrderIndependent() {
	a := suite.validator.ValidateFriendTargets(suite.ctx, suite.owner.ID,
		[]string{suite.friend.ID, suite.stranger.ID})
	b := suite.validator.ValidateFriendTargets(suite.ctx, suite.owner.ID,
		[]string{suite.stranger.ID, suite.friend.ID})

	suite.ElementsMatch(a.ValidFriends, b.ValidFriends)
	suite.ElementsMatch(a.InvalidFriends, b.InvalidFriends)
}

func (suite *PermissionsTestSuite) TestGroupPartitionPartialSuccess() {
	group := &models.Group{
		ID:      uuid.New().String(),
		Name:    "Sunday League",
		OwnerID: suite.owner.ID,
	}
	require.NoError(suite.T(), suite.db.Create(group).Error)
	require.NoError(suite.T(), suite.db.Create(&models.GroupMember{
		ID:      uuid.New().String(),
		GroupID: group.ID,
		UserID:  suite.owner.ID,
		Role:    models.GroupRoleOwner,
	}).Error)

	unknownGroup := uuid.New().String()
	p := suite.validator.ValidateGroupTargets(suite.ctx, suite.owner.ID, []string{group.ID, unknownGroup})

	suite.ElementsMatch([]string{group.ID}, p.ValidGroups)
	suite.ElementsMatch([]string{unknownGroup}, p.InvalidGroups)
	suite.Equal(models.GroupRoleOwner, p.GroupRoles[group.ID])
}

func TestPermissionsTestSuite(t *testing.T) {
	suite.Run(t, new(PermissionsTestSuite))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
