package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/stream"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var sports = []string{
	"soccer", "basketball", "tennis", "running",
	"cycling", "swimming", "baseball", "volleyball",
}

// Seeder handles database seeding operations
type Seeder struct {
	db           *gorm.DB
	streamClient stream.StreamClientInterface
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SetStreamClient sets the stream client for mirroring seeded users
func (s *Seeder) SetStreamClient(sc stream.StreamClientInterface) {
	s.streamClient = sc
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating friendships...")
	if err := s.seedFriendships(users, 150); err != nil {
		return fmt.Errorf("failed to seed friendships: %w", err)
	}

	logger.Log.Info("Creating groups...")
	groups, err := s.seedGroups(users, 10)
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	logger.Log.Info("Creating group memberships...")
	if err := s.seedGroupMembers(users, groups); err != nil {
		return fmt.Errorf("failed to seed group members: %w", err)
	}

	logger.Log.Info("Creating contents...")
	if _, err := s.seedContents(users, 200); err != nil {
		return fmt.Errorf("failed to seed contents: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed roster
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
		{"diana", "diana@example.com", "Diana Prince"},
		{"eve", "eve@example.com", "Eve Wilson"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			ID:                     uuid.New().String(),
			Email:                  spec.email,
			Username:               spec.username,
			DisplayName:            spec.displayName,
			PasswordHash:           &hashedPasswordStr,
			AvatarURL:              fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
			FavoriteSports:         models.StringArray{"soccer", "basketball"},
			SharingEnabled:         true,
			AllowSharesFromFriends: true,
			StreamUserID:           uuid.New().String(),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		s.mirrorToStream(&user)
		users = append(users, user)
	}

	// Everyone is friends with alice
	for _, u := range users[1:] {
		if err := s.createFriendship(users[0].ID, u.ID); err != nil {
			return err
		}
	}

	if _, err := s.seedContents(users, 10); err != nil {
		return fmt.Errorf("failed to seed contents: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"share_events",
		"error_logs",
		"reposts",
		"shares",
		"group_members",
		"groups",
		"user_blocks",
		"friendships",
		"contents",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	for i := 0; i < count; i++ {
		favorites := models.StringArray{
			sports[rand.Intn(len(sports))],
			sports[rand.Intn(len(sports))],
		}
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)

		user := models.User{
			ID:                     uuid.New().String(),
			Email:                  fmt.Sprintf("%d_%s", i, gofakeit.Email()),
			Username:               username,
			DisplayName:            gofakeit.Name(),
			Bio:                    gofakeit.HipsterSentence(8),
			Location:               fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			AvatarURL:              fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			FavoriteSports:         favorites,
			SharingEnabled:         true,
			AllowSharesFromFriends: true,
			StreamUserID:           uuid.New().String(),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", username, err)
		}
		s.mirrorToStream(&user)
		users = append(users, user)
	}

	return users, nil
}

func (s *Seeder) mirrorToStream(user *models.User) {
	if s.streamClient == nil {
		return
	}
	if err := s.streamClient.CreateUser(user.StreamUserID, user.Username); err != nil {
		logger.Log.Warn("Failed to mirror user to stream",
			zap.String("username", user.Username),
			zap.Error(err))
	}
}

func (s *Seeder) seedFriendships(users []models.User, count int) error {
	seen := make(map[string]bool)
	created := 0
	for attempts := 0; created < count && attempts < count*10; attempts++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		key := a.ID + ":" + b.ID
		reverse := b.ID + ":" + a.ID
		if seen[key] || seen[reverse] {
			continue
		}
		seen[key] = true

		if err := s.createFriendship(a.ID, b.ID); err != nil {
			return err
		}
		created++
	}
	return nil
}

func (s *Seeder) createFriendship(requesterID, addresseeID string) error {
	friendship := models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipAccepted,
	}
	if err := s.db.Create(&friendship).Error; err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func (s *Seeder) seedGroups(users []models.User, count int) ([]models.Group, error) {
	var groups []models.Group
	for i := 0; i < count; i++ {
		sport := sports[rand.Intn(len(sports))]
		owner := users[rand.Intn(len(users))]
		group := models.Group{
			ID:          uuid.New().String(),
			Name:        fmt.Sprintf("%s %s club", gofakeit.City(), sport),
			Description: gofakeit.HipsterSentence(10),
			Sport:       sport,
			OwnerID:     owner.ID,
			IsPrivate:   rand.Intn(4) == 0,
		}
		if err := s.db.Create(&group).Error; err != nil {
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
		if err := s.db.Create(&models.GroupMember{
			GroupID: group.ID,
			UserID:  owner.ID,
			Role:    models.GroupRoleOwner,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to create group owner membership: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Seeder) seedGroupMembers(users []models.User, groups []models.Group) error {
	for _, group := range groups {
		memberCount := 3 + rand.Intn(8)
		seen := map[string]bool{group.OwnerID: true}
		for i := 0; i < memberCount; i++ {
			user := users[rand.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			if err := s.db.Create(&models.GroupMember{
				GroupID: group.ID,
				UserID:  user.ID,
				Role:    models.GroupRoleMember,
			}).Error; err != nil {
				return fmt.Errorf("failed to create group membership: %w", err)
			}
		}
		if err := s.db.Model(&models.Group{}).Where("id = ?", group.ID).
			Update("member_count", len(seen)).Error; err != nil {
			return fmt.Errorf("failed to update member count: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedContents(users []models.User, count int) ([]models.Content, error) {
	mediaTypes := []string{"image", "video", "moment"}
	visibilities := []string{
		models.VisibilityPublic, models.VisibilityPublic, models.VisibilityPublic,
		models.VisibilityFriends,
		models.VisibilityPrivate,
	}

	var contents []models.Content
	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		matchDate := gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())
		content := models.Content{
			ID:         uuid.New().String(),
			UserID:     owner.ID,
			Caption:    gofakeit.HipsterSentence(6),
			MediaURL:   fmt.Sprintf("https://cdn.playhuddle.dev/media/%s.mp4", uuid.New().String()),
			MediaType:  mediaTypes[rand.Intn(len(mediaTypes))],
			Sport:      sports[rand.Intn(len(sports))],
			MatchDate:  &matchDate,
			Visibility: visibilities[rand.Intn(len(visibilities))],
		}
		if err := s.db.Create(&content).Error; err != nil {
			return nil, fmt.Errorf("failed to create content: %w", err)
		}
		contents = append(contents, content)
	}
	return contents, nil
}
