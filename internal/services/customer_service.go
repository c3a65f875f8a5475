package services

import (
	"errors"
	"fmt"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/repository"
)

// ErrInvalidCredentials is returned when a login does not match a customer
var ErrInvalidCredentials = errors.New("unknown username or incorrect password")

// CustomerStore persists customers
type CustomerStore interface {
	AddCustomer(customer *models.Customer) (*models.Customer, error)
	Customer(id int64) (*models.Customer, error)
	CustomerByLogin(login string) (*models.Customer, error)
}

// CustomerService handles customer accounts
type CustomerService interface {
	Register(email, username, password, firstName, lastName string) (*models.Customer, error)
	Authenticate(login, password string) (*models.Customer, error)
	Customer(id int64) (*models.Customer, error)
}

// CustomerServiceImpl implements CustomerService
type CustomerServiceImpl struct {
	store CustomerStore
}

// NewCustomerService creates a new customer service
func NewCustomerService(store CustomerStore) CustomerService {
	return &CustomerServiceImpl{store: store}
}

// Register validates and stores a new customer
func (s *CustomerServiceImpl) Register(email, username, password, firstName, lastName string) (*models.Customer, error) {
	customer, err := models.NewCustomer(email, username, password)
	if err != nil {
		return nil, fmt.Errorf("invalid customer: %w", err)
	}
	customer.FirstName = firstName
	customer.LastName = lastName
	return s.store.AddCustomer(customer)
}

// Authenticate returns the customer whose username or email is login
func (s *CustomerServiceImpl) Authenticate(login, password string) (*models.Customer, error) {
	customer, err := s.store.CustomerByLogin(login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !customer.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

// Customer returns the customer with id
func (s *CustomerServiceImpl) Customer(id int64) (*models.Customer, error) {
	return s.store.Customer(id)
}
