package database

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ssqa/storefront/internal/config"
)

// DB is a storefront database connection that knows its driver and table
// naming
type DB struct {
	*sql.DB
	config *config.DatabaseConfig
}

// Open connects to the database described by cfg and verifies the connection
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == config.DriverSQLite {
		// one long-lived connection keeps ":memory:" databases alive
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Verify connection
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, config: cfg}, nil
}

func dataSource(cfg *config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Timeout = 10 * time.Second
		return "mysql", mc.FormatDSN(), nil
	case config.DriverPostgres:
		return "postgres", cfg.ConnectionString(), nil
	case config.DriverSQLite:
		return "sqlite", cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the configured driver name
func (d *DB) Driver() string {
	return d.config.Driver
}

// Table returns the schema-qualified name of a WordPress table, e.g. "posts"
// becomes "demostore.wp_posts"
func (d *DB) Table(name string) string {
	return d.config.Table(name)
}

var placeholder = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $1 style placeholders for the driver: ? for MySQL and
// ?1 for SQLite. PostgreSQL queries are returned as written.
func (d *DB) Rebind(query string) string {
	switch d.config.Driver {
	case config.DriverMySQL:
		return placeholder.ReplaceAllString(query, "?")
	case config.DriverSQLite:
		return placeholder.ReplaceAllStringFunc(query, func(p string) string {
			return "?" + p[1:]
		})
	}
	return query
}
