package config

import "fmt"

// APIConfig holds the WooCommerce REST API credentials
type APIConfig struct {
	Key    string
	Secret string
}

// LoadAPIConfig loads REST API credentials from environment variables
func LoadAPIConfig(getenv func(string) string) (*APIConfig, error) {
	config := APIConfig{
		Key:    getenv("API_KEY"),
		Secret: getenv("API_SECRET"),
	}

	// Validate required fields
	if config.Key == "" {
		return nil, fmt.Errorf("API_KEY is required")
	}
	if config.Secret == "" {
		return nil, fmt.Errorf("API_SECRET is required")
	}

	return &config, nil
}
