package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/seed"
	"github.com/playhuddle/backend/internal/stream"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		runSeed(func(s *seed.Seeder) error { return s.SeedDev() })
	case "test":
		runSeed(func(s *seed.Seeder) error { return s.SeedTest() })
	case "clean":
		runSeed(func(s *seed.Seeder) error { return s.Clean() })
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with a small fixed roster")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func runSeed(fn func(*seed.Seeder) error) {
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	seeder := seed.NewSeeder(database.DB)

	// Stream mirroring is optional for local seeding
	if streamClient, err := stream.NewClient(); err != nil {
		log.Printf("Stream client unavailable, seeding database only: %v", err)
	} else {
		seeder.SetStreamClient(streamClient)
	}

	if err := fn(seeder); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done")
}
