package database

import (
	"embed"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"github.com/ssqa/storefront/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations creates the local storefront tables. Only the SQLite store
// is migrated; a real WooCommerce database is never touched.
func (d *DB) RunMigrations() error {
	if d.config.Driver != config.DriverSQLite {
		return fmt.Errorf("migrations only run against the local sqlite store, not %s", d.config.Driver)
	}
	if d.config.TablePrefix != config.DefaultTablePrefix {
		return fmt.Errorf("the local store uses the %q table prefix, got %q", config.DefaultTablePrefix, d.config.TablePrefix)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(d.DB, "migrations"); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}
