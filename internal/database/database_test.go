package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ssqa/storefront/internal/config"
)

func TestDataSource(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantParts  []string
		wantErr    bool
	}{
		{
			name:       "mysql",
			cfg:        config.DatabaseConfig{Driver: "mysql", User: "shop", Password: "secret", Host: "127.0.0.1", Port: 8889, Name: "demostore"},
			wantDriver: "mysql",
			wantParts:  []string{"shop:secret@tcp(127.0.0.1:8889)/demostore", "parseTime=true"},
		},
		{
			name:       "postgres",
			cfg:        config.DatabaseConfig{Driver: "postgres", User: "shop", Password: "secret", Host: "db", Port: 5432, Name: "demostore"},
			wantDriver: "postgres",
			wantParts:  []string{"host=db port=5432 user=shop password=secret dbname=demostore sslmode=disable"},
		},
		{
			name:       "sqlite",
			cfg:        config.DatabaseConfig{Driver: "sqlite", Path: "storefront.db"},
			wantDriver: "sqlite",
			wantParts:  []string{"storefront.db?", "foreign_keys(1)"},
		},
		{
			name:    "unknown",
			cfg:     config.DatabaseConfig{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN
			driver, dsn, err := dataSource(&tt.cfg)

			// THEN
			if (err != nil) != tt.wantErr {
				t.Fatalf("dataSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if driver != tt.wantDriver {
				t.Errorf("expected driver %q, got %q", tt.wantDriver, driver)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(dsn, part) {
					t.Errorf("expected %q in dsn %q", part, dsn)
				}
			}
		})
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM demostore.wp_posts WHERE ID = $1 AND post_type = $2"

	mysqlDB := &DB{config: &config.DatabaseConfig{Driver: config.DriverMySQL}}
	if got := mysqlDB.Rebind(query); got != "SELECT * FROM demostore.wp_posts WHERE ID = ? AND post_type = ?" {
		t.Errorf("unexpected mysql query %q", got)
	}

	sqliteDB := &DB{config: &config.DatabaseConfig{Driver: config.DriverSQLite}}
	if got := sqliteDB.Rebind(query); got != "SELECT * FROM demostore.wp_posts WHERE ID = ?1 AND post_type = ?2" {
		t.Errorf("unexpected sqlite query %q", got)
	}

	postgresDB := &DB{config: &config.DatabaseConfig{Driver: config.DriverPostgres}}
	if got := postgresDB.Rebind(query); got != query {
		t.Errorf("expected postgres query unchanged, got %q", got)
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	// GIVEN
	cfg := &config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "storefront.db"),
		Schema:      "main",
		TablePrefix: config.DefaultTablePrefix,
	}

	// WHEN
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	err = db.RunMigrations()

	// THEN
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + db.Table("posts")).Scan(&count); err != nil {
		t.Fatalf("expected %s to exist: %v", db.Table("posts"), err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Errorf("expected migrations to be idempotent, got %v", err)
	}
}

func TestRunMigrationsRefusesRemoteStores(t *testing.T) {
	db := &DB{config: &config.DatabaseConfig{Driver: config.DriverMySQL, TablePrefix: "wp_"}}
	if err := db.RunMigrations(); err == nil {
		t.Fatal("expected migrations to refuse a mysql store")
	}
}

func TestReadRows(t *testing.T) {
	// GIVEN
	db, err := Open(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:", Schema: "main", TablePrefix: "wp_"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if _, err := db.Exec(db.Rebind("INSERT INTO main.wp_posts (post_title, post_type) VALUES ($1, $2)"), "Order", "shop_order_placehold"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// WHEN
	rows, err := db.ReadRows("SELECT ID, post_title, post_type FROM main.wp_posts WHERE post_type = $1", "shop_order_placehold")

	// THEN
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["post_title"] != "Order" {
		t.Errorf("expected post_title Order, got %#v", rows[0]["post_title"])
	}
	if _, ok := rows[0]["ID"]; !ok {
		t.Errorf("expected an ID column, got %v", rows[0])
	}
}
