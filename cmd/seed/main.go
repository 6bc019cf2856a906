// Command main runs the database seeder for Agora.
package main

import (
	"flag"
	"log"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/seed"
	"agora/internal/wiki"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numListings := flag.Int("listings", 40, "Number of listings to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, continuing with environment variables")
	}

	log.Printf("Target: %d users, %d listings, %d posts, clean=%v\n", *numUsers, *numListings, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store, err := wiki.NewOSStore(cfg.WikiDir)
	if err != nil {
		log.Fatalf("Failed to open wiki store: %v", err)
	}

	s, err := seed.NewSeeder(db, store, seed.Options{
		Users:    *numUsers,
		Listings: *numListings,
		Posts:    *numPosts,
		Seed:     *seedValue,
	})
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d listings, %d bids, %d posts, %d follows\n",
		summary.Users, summary.Listings, summary.Bids, summary.Posts, summary.Follows)
	log.Printf("All test users have the password: %s\n", seed.DefaultPassword)
}
