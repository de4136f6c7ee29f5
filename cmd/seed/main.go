// Command seed fills a database with demo users, posts and comments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vicae-a/Blog/internal/repository"
)

func main() {
	_ = godotenv.Load()

	var (
		databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		adminEmail    = flag.String("admin-email", "admin@example.com", "admin account email")
		adminPassword = flag.String("admin-password", "password", "admin account password")
		userPassword  = flag.String("user-password", "password", "password for generated users")
		users         = flag.Int("users", 5, "number of regular users")
		postsPerUser  = flag.Int("posts-per-user", 3, "posts created for every user, admin included")
		maxComments   = flag.Int("max-comments", 5, "upper bound of comments per post")
		seed          = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed for generated content")
		format        = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *users < 0 || *postsPerUser < 0 || *maxComments < 0 {
		fmt.Fprintln(os.Stderr, "counts must not be negative")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	s := newSeeder(repo, options{
		AdminEmail:    *adminEmail,
		AdminPassword: *adminPassword,
		Users:         *users,
		PostsPerUser:  *postsPerUser,
		MaxComments:   *maxComments,
		UserPassword:  *userPassword,
		Seed:          *seed,
		Now:           time.Now(),
	})

	out, err := s.run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("seeded %d users, %d posts, %d comments (admin id %d)\n", out.Users, out.Posts, out.Comments, out.AdminID)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
