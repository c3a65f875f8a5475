package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultTablePrefix is the WordPress table prefix
const DefaultTablePrefix = "wp_"

// DatabaseConfig holds configuration for the storefront database connection
type DatabaseConfig struct {
	Driver      string
	User        string
	Password    string
	Host        string
	Port        int
	Name        string
	Schema      string
	TablePrefix string
	// Path is the SQLite file, or ":memory:"
	Path string
}

// LoadDatabaseConfig loads database configuration from environment variables.
// Host and port default per environment; user and password are required for
// every driver but SQLite.
func LoadDatabaseConfig(getenv func(string) string) (*DatabaseConfig, error) {
	env, err := loadEnv(getenv)
	if err != nil {
		return nil, err
	}

	config := &DatabaseConfig{
		Driver:      strings.ToLower(getenv("DB_DRIVER")),
		User:        getenv("DB_USER"),
		Password:    getenv("DB_PASSWORD"),
		Host:        getenv("DB_HOST"),
		Name:        getenv("DB_NAME"),
		TablePrefix: getenv("DB_TABLE_PREFIX"),
		Path:        getenv("DB_PATH"),
	}

	if config.Driver == "" {
		if env == EnvLocal {
			config.Driver = DriverSQLite
		} else {
			config.Driver = DriverMySQL
		}
	}
	if config.TablePrefix == "" {
		config.TablePrefix = DefaultTablePrefix
	}

	switch config.Driver {
	case DriverSQLite:
		if config.Path == "" {
			config.Path = "storefront.db"
		}
		config.Schema = "main"
		return config, nil
	case DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported: use mysql, postgres or sqlite", config.Driver)
	}

	// Validate required fields
	if config.User == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if config.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	defaultHost, defaultPort := "127.0.0.1", 8889
	if env == EnvProd {
		defaultHost, defaultPort = "demostore.supersqa.com", 3306
	}
	if config.Host == "" {
		config.Host = defaultHost
	}
	config.Port = defaultPort
	if raw := getenv("DB_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("DB_PORT is invalid: %w", err)
		}
		config.Port = port
	}
	if config.Name == "" {
		config.Name = "demostore"
	}

	if config.Driver == DriverPostgres {
		config.Schema = "public"
	} else {
		config.Schema = config.Name
	}

	return config, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// Table returns the schema-qualified name of a WordPress table
func (c *DatabaseConfig) Table(name string) string {
	return c.Schema + "." + c.TablePrefix + name
}
