package config

import "strings"

// Local storefront REST credentials used when API_KEY and API_SECRET are unset
const (
	DefaultServerAPIKey    = "ck_storefront_local"
	DefaultServerAPISecret = "cs_storefront_local"
)

// ServerConfig holds configuration for the local storefront server
type ServerConfig struct {
	Port string
	// TemplatesDir holds the storefront HTML templates
	TemplatesDir string
	// CatalogPath is the YAML seed for products, coupons and customers
	CatalogPath string
	// DBPath is the SQLite file orders are written to, or ":memory:"
	DBPath string
	// CookieHashKey signs the storefront login cookie
	CookieHashKey string
	// API is the consumer key and secret the REST endpoints accept
	API APIConfig
	// FlakyCheckout ignores the first "Place order" of every cart
	FlakyCheckout bool
}

// LoadServerConfig loads server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "8080" // Default to port 8080
	}

	templates := getenv("STOREFRONT_TEMPLATES")
	if templates == "" {
		templates = "templates"
	}

	catalog := getenv("STOREFRONT_CATALOG")
	if catalog == "" {
		catalog = "data/catalog.yaml"
	}

	dbPath := getenv("STOREFRONT_DB")
	if dbPath == "" {
		dbPath = "storefront.db"
	}

	api := APIConfig{Key: getenv("API_KEY"), Secret: getenv("API_SECRET")}
	if api.Key == "" || api.Secret == "" {
		api = APIConfig{Key: DefaultServerAPIKey, Secret: DefaultServerAPISecret}
	}

	flaky := strings.ToLower(getenv("STOREFRONT_FLAKY_CHECKOUT"))

	return ServerConfig{
		Port:          port,
		TemplatesDir:  templates,
		CatalogPath:   catalog,
		DBPath:        dbPath,
		CookieHashKey: getenv("STOREFRONT_COOKIE_KEY"),
		API:           api,
		FlakyCheckout: flaky == "1" || flaky == "true",
	}
}

// Database returns the SQLite configuration of the storefront order store
func (c ServerConfig) Database() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:      DriverSQLite,
		Path:        c.DBPath,
		Schema:      "main",
		TablePrefix: DefaultTablePrefix,
	}
}
