package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environments the suite can run against
const (
	EnvTest  = "test"
	EnvProd  = "prod"
	EnvLocal = "local"
)

// DefaultWaitTimeout is used when WAIT_TIMEOUT is not set
const DefaultWaitTimeout = 10 * time.Second

var baseURLs = map[string]string{
	EnvTest: "http://demostore.supersqa.com",
	EnvProd: "http://demostore.prod.supersqa.com",
}

// Config holds the settings shared by the browser suite and the fixture CLI.
// Credentials for the REST API and the database are loaded separately because
// only some tests need them.
type Config struct {
	Env         string
	BaseURL     string
	ResultsDir  string
	WaitTimeout time.Duration
	Server      ServerConfig
}

// Load reads the environment and resolves the storefront base URL
func Load(getenv func(string) string) (*Config, error) {
	env, err := loadEnv(getenv)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Env:         env,
		ResultsDir:  getenv("RESULTS_DIR"),
		WaitTimeout: DefaultWaitTimeout,
		Server:      LoadServerConfig(getenv),
	}

	if env == EnvLocal {
		config.BaseURL = "http://localhost:" + config.Server.Port
	} else {
		config.BaseURL = baseURLs[env]
	}
	if override := getenv("BASE_URL"); override != "" {
		config.BaseURL = strings.TrimRight(override, "/")
	}

	if config.ResultsDir == "" {
		config.ResultsDir = "results"
	}

	if raw := getenv("WAIT_TIMEOUT"); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return nil, fmt.Errorf("WAIT_TIMEOUT is invalid: %w", err)
		}
		config.WaitTimeout = timeout
	}

	return config, nil
}

func loadEnv(getenv func(string) string) (string, error) {
	env := strings.ToLower(strings.TrimSpace(getenv("ENV")))
	switch env {
	case "":
		return EnvTest, nil
	case EnvTest, EnvProd, EnvLocal:
		return env, nil
	default:
		return "", fmt.Errorf("unknown environment %q: valid environments are 'test', 'prod' and 'local'", env)
	}
}

// parseTimeout accepts a Go duration ("15s") or a plain number of seconds ("15")
func parseTimeout(raw string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("must be positive, got %q", raw)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %q", raw)
	}
	return d, nil
}

// ValidateEnvironment checks every variable the suite reads. Missing required
// variables are returned as an error, missing optional ones as warnings.
func ValidateEnvironment(getenv func(string) string) ([]string, error) {
	var errs []error
	var warnings []string

	if _, err := loadEnv(getenv); err != nil {
		errs = append(errs, err)
	}
	if _, err := LoadBrowserConfig(getenv); err != nil {
		errs = append(errs, err)
	}

	optional := []struct {
		name   string
		reason string
	}{
		{"API_KEY", "API-backed tests will fail"},
		{"API_SECRET", "API-backed tests will fail"},
		{"DB_USER", "database cross-checks will fail"},
		{"DB_PASSWORD", "database cross-checks will fail"},
		{"MY_ACCOUNT_SMOKE_USERNAME", "my-account smoke tests will fail"},
		{"MY_ACCOUNT_SMOKE_PASSWORD", "my-account smoke tests will fail"},
	}
	for _, v := range optional {
		if getenv(v.name) == "" {
			warnings = append(warnings, fmt.Sprintf("%s is not set: %s", v.name, v.reason))
		}
	}

	return warnings, errors.Join(errs...)
}
