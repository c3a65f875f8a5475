package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/database"
)

// TestDatabase represents an isolated test database
type TestDatabase struct {
	DB   *database.DB
	Path string
}

// SetupTestDatabase creates an isolated, migrated SQLite store for one test
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	// Generate unique file name for this test
	name := fmt.Sprintf("storefront_%d_%d.db", time.Now().UnixNano(), rand.Intn(10000))
	path := filepath.Join(t.TempDir(), name)

	db, err := database.Open(&config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        path,
		Schema:      "main",
		TablePrefix: config.DefaultTablePrefix,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	testDatabase := &TestDatabase{DB: db, Path: path}

	if err := db.RunMigrations(); err != nil {
		testDatabase.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return testDatabase
}

// ConnectStoreDatabase connects to the live store database described by the
// DB_* variables, skipping the test when they are not set
func ConnectStoreDatabase(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("DB_USER") == "" {
		t.Skip("DB_USER is not set, skipping store database test")
	}
	cfg, err := config.LoadDatabaseConfig(os.Getenv)
	if err != nil {
		t.Fatalf("Failed to load database config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to store database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Teardown closes the test database
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		if err := td.DB.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", td.Path, err)
		}
	}
}
