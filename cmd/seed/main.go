// Seed tool: resets the database and loads sample users, feature
// requests, and votes. Vote counts are written to match the seeded
// ledger rows exactly. Expects the schema to exist already (the API
// server migrates it on startup).
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/featureboard/feature-voting/backend/internal/config"
)

type seedUser struct {
	email string
	name  string
}

type seedFeature struct {
	title       string
	description string
}

var sampleUsers = []seedUser{
	{"alice@example.com", "Alice Johnson"},
	{"bob@example.com", "Bob Smith"},
	{"charlie@example.com", "Charlie Brown"},
	{"diana@example.com", "Diana Prince"},
	{"eve@example.com", "Eve Adams"},
}

var sampleFeatures = []seedFeature{
	{"Dark Mode Support", "Add a dark mode toggle to reduce eye strain during night-time studying sessions."},
	{"Export Study Data to PDF", "Allow users to export their study progress and notes as a PDF document for offline review."},
	{"Pomodoro Timer Integration", "Built-in pomodoro timer to help students manage their study sessions effectively."},
	{"Collaborative Study Groups", "Create and join study groups where users can share resources and track progress together."},
	{"Mobile App Offline Mode", "Allow the mobile app to work offline and sync when connection is restored."},
	{"AI-Powered Study Recommendations", "Use AI to suggest study topics and resources based on user performance and goals."},
	{"Spaced Repetition Flashcards", "Implement spaced repetition algorithm for flashcard reviews to improve retention."},
	{"Calendar Integration", "Sync study sessions with Google Calendar and other calendar apps."},
}

// Each user votes for one feature (index into sampleFeatures).
var sampleVotes = map[string]int{
	"alice@example.com":   0,
	"bob@example.com":     0,
	"charlie@example.com": 1,
	"diana@example.com":   2,
	"eve@example.com":     0,
}

func main() {
	config.LoadEnv()

	dsn := config.GetEnv("DATABASE_URL", fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", "postgres"),
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_NAME", "feature_voting"),
		config.GetEnv("DB_SSLMODE", "disable"),
	))

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	start := time.Now()
	if err := seed(ctx, conn); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("done in %s", time.Since(start).Truncate(time.Millisecond))
}

func seed(ctx context.Context, conn *pgx.Conn) error {
	log.Println("🌱 Starting database seed...")

	// Clear existing data; votes first because of foreign keys.
	log.Println("🗑️  Clearing existing data...")
	for _, table := range []string{"votes", "features", "users"} {
		if _, err := conn.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	now := time.Now().UTC()

	// Users
	log.Println("👤 Creating users...")
	userIDs := make(map[string]string, len(sampleUsers))
	batch := &pgx.Batch{}
	for _, u := range sampleUsers {
		id := uuid.NewString()
		userIDs[u.email] = id
		batch.Queue(
			"INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, $4)",
			id, u.email, u.name, now,
		)
	}
	if err := sendBatch(ctx, conn, batch); err != nil {
		return fmt.Errorf("inserting users: %w", err)
	}

	// Features, with the first seeded user as creator (round-robin)
	log.Println("💡 Creating features...")
	featureIDs := make([]string, len(sampleFeatures))
	counts := make([]int, len(sampleFeatures))
	for _, idx := range sampleVotes {
		counts[idx]++
	}

	batch = &pgx.Batch{}
	for i, f := range sampleFeatures {
		id := uuid.NewString()
		featureIDs[i] = id
		creator := sampleUsers[i%len(sampleUsers)]
		batch.Queue(
			`INSERT INTO features (id, title, description, vote_count, created_by_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, f.title, f.description, counts[i], userIDs[creator.email], now.Add(time.Duration(i)*time.Second), now,
		)
	}
	if err := sendBatch(ctx, conn, batch); err != nil {
		return fmt.Errorf("inserting features: %w", err)
	}

	// Votes
	log.Println("🗳️  Creating votes...")
	batch = &pgx.Batch{}
	for email, idx := range sampleVotes {
		batch.Queue(
			"INSERT INTO votes (id, user_id, feature_id, created_at) VALUES ($1, $2, $3, $4)",
			uuid.NewString(), userIDs[email], featureIDs[idx], now,
		)
	}
	if err := sendBatch(ctx, conn, batch); err != nil {
		return fmt.Errorf("inserting votes: %w", err)
	}

	log.Printf("✅ Seeded %d users, %d features, %d votes",
		len(sampleUsers), len(sampleFeatures), len(sampleVotes))
	return nil
}

func sendBatch(ctx context.Context, conn *pgx.Conn, batch *pgx.Batch) error {
	br := conn.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
