package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/playhuddle/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "huddle")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	// Configure GORM logger
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// Enable UUID extension for PostgreSQL
	err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
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
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes for performance
	err = createIndexes()
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes
func createIndexes() error {
	// User indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")

	// Content indexes for feed and permission lookups
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_contents_user_created ON contents (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_contents_visibility_created ON contents (visibility, created_at DESC) WHERE is_deleted = false")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_contents_sport ON contents (sport)")

	// Friendship indexes: lookups run in both directions
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_friendships_requester ON friendships (requester_id, status)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_friendships_addressee ON friendships (addressee_id, status)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_unique ON friendships (requester_id, addressee_id) WHERE deleted_at IS NULL")

	// User block indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_user_blocks_blocker ON user_blocks (blocker_id)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_user_blocks_blocked ON user_blocks (blocked_id)")
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_user_blocks_unique ON user_blocks (blocker_id, blocked_id) WHERE deleted_at IS NULL")

	// Group membership indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_group_members_unique ON group_members (group_id, user_id) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members (user_id)")

	// Share indexes for listings and analytics
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_shares_content_created ON shares (content_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_shares_actor_created ON shares (actor_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_shares_kind ON shares (share_kind)")

	// Repost indexes
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_reposts_unique ON reposts (user_id, original_content_id) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_reposts_content ON reposts (original_content_id)")

	// Share event indexes for rollup queries
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_share_events_created ON share_events (created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_share_events_type_created ON share_events (event_type, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_share_events_actor ON share_events (actor_id)")

	// Error log indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_error_logs_category_message ON error_logs (category, message)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_error_logs_last_seen ON error_logs (last_seen DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
