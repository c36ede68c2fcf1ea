// Package testutil provides a shared PostgreSQL-backed test database
// (via testcontainers) and helpers for seeding users, features, and
// votes in tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/featureboard/feature-voting/backend/internal/models"
)

var (
	once     sync.Once
	sharedDB *gorm.DB
	startErr error
)

// NewTestDB returns a gorm handle onto a containerized PostgreSQL with
// the schema migrated. The container is started once per test binary;
// each call truncates all tables so tests start from a clean slate.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	once.Do(startContainer)
	if startErr != nil {
		t.Fatalf("Failed to start test database: %v", startErr)
	}

	if err := sharedDB.Exec("TRUNCATE TABLE votes, features, users CASCADE").Error; err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}

	return sharedDB
}

func startContainer() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("feature_voting_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		startErr = err
		return
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		startErr = err
		return
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		startErr = err
		return
	}

	startErr = db.AutoMigrate(
		&models.User{},
		&models.Feature{},
		&models.Vote{},
	)
	sharedDB = db
}

// CreateUser inserts a user and returns it.
func CreateUser(t *testing.T, db *gorm.DB, email, name string) models.User {
	t.Helper()

	user := models.User{Email: email, Name: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", email, err)
	}
	return user
}

// CreateFeature inserts a feature created by the given user.
func CreateFeature(t *testing.T, db *gorm.DB, creator models.User, title string) models.Feature {
	t.Helper()

	feature := models.Feature{
		Title:       title,
		Description: "A test feature request with enough detail to pass validation.",
		CreatedByID: creator.ID,
	}
	if err := db.Create(&feature).Error; err != nil {
		t.Fatalf("Failed to create test feature %s: %v", title, err)
	}
	return feature
}

// VoteCount reads a feature's cached counter.
func VoteCount(t *testing.T, db *gorm.DB, featureID string) int {
	t.Helper()

	var count int
	row := db.Model(&models.Feature{}).
		Select("vote_count").
		Where("id = ?", featureID).
		Row()
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to read vote count for %s: %v", featureID, err)
	}
	return count
}

// LedgerRows counts the actual vote rows for a feature.
func LedgerRows(t *testing.T, db *gorm.DB, featureID string) int {
	t.Helper()

	var count int64
	if err := db.Model(&models.Vote{}).Where("feature_id = ?", featureID).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count ledger rows for %s: %v", featureID, err)
	}
	return int(count)
}

// AssertCountersConsistent verifies that every feature's cached counter
// equals the number of ledger rows referencing it.
func AssertCountersConsistent(t *testing.T, db *gorm.DB) {
	t.Helper()

	var features []models.Feature
	if err := db.Find(&features).Error; err != nil {
		t.Fatalf("Failed to list features: %v", err)
	}

	for _, f := range features {
		rows := LedgerRows(t, db, f.ID)
		if f.VoteCount != rows {
			t.Errorf("Feature %q: vote_count = %d but ledger has %d rows", f.Title, f.VoteCount, rows)
		}
	}
}
