package config

import "fmt"

// Credentials is a storefront login
type Credentials struct {
	Username string
	Password string
}

// LoadSmokeAccount loads the my-account smoke test user
func LoadSmokeAccount(getenv func(string) string) (*Credentials, error) {
	return loadCredentials(getenv, "MY_ACCOUNT_SMOKE")
}

// LoadUserWithOneOrder loads the user seeded with exactly one order
func LoadUserWithOneOrder(getenv func(string) string) (*Credentials, error) {
	return loadCredentials(getenv, "USER_WITH_ONE_ORDER")
}

func loadCredentials(getenv func(string) string, prefix string) (*Credentials, error) {
	creds := &Credentials{
		Username: getenv(prefix + "_USERNAME"),
		Password: getenv(prefix + "_PASSWORD"),
	}

	if creds.Username == "" {
		return nil, fmt.Errorf("%s_USERNAME is required", prefix)
	}
	if creds.Password == "" {
		return nil, fmt.Errorf("%s_PASSWORD is required", prefix)
	}

	return creds, nil
}
