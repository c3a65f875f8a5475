package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Customer errors
var (
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Customer is a registered shopper
type Customer struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// NewCustomer creates a customer with a hashed password. An empty username
// is derived from the email.
func NewCustomer(email, username, password string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Customer{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}, nil
}

// CheckPassword reports whether password is the customer's
func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
}

// DisplayName is shown in the my-account greeting
func (c *Customer) DisplayName() string {
	if c.FirstName != "" {
		return c.FirstName
	}
	return c.Username
}
