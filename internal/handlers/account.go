package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ssqa/storefront/internal/models"
	"github.com/ssqa/storefront/internal/services"
)

const accountPath = "/my-account/"

// LoginData represents the data passed to the login template
type LoginData struct {
	Page
	Login      string
	RedirectTo string
	Error      string
}

// LoginHandler serves the wp-login.php form. Signing in sets the auth
// cookies and redirects.
type LoginHandler struct {
	shop *Shop
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(shop *Shop) *LoginHandler {
	return &LoginHandler{shop: shop}
}

// ServeHTTP handles GET and POST /wp-login.php
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := LoginData{
		Page:       h.shop.page(r, "Log In", "login"),
		RedirectTo: r.FormValue("redirect_to"),
	}

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("action") == "logout" {
			h.shop.Sessions.SignOut(w)
			http.Redirect(w, r, accountPath, http.StatusFound)
			return
		}
	case http.MethodPost:
		data.Login = r.PostFormValue("log")
		customer, err := h.shop.signIn(w, data.Login, r.PostFormValue("pwd"))
		if err == nil {
			log.Printf("Customer %d signed in", customer.ID)
			http.Redirect(w, r, safeRedirect(data.RedirectTo), http.StatusFound)
			return
		}
		data.Error = loginError(err, data.Login)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.shop.Renderer.Render(w, http.StatusOK, "login", data)
}

// signIn checks the credentials and sets the login cookies
func (s *Shop) signIn(w http.ResponseWriter, login, password string) (*models.Customer, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, services.ErrInvalidCredentials
	}
	customer, err := s.Customers.Authenticate(login, password)
	if err != nil {
		return nil, err
	}
	s.Sessions.SignIn(w, customer.ID)
	return customer, nil
}

func loginError(err error, login string) string {
	switch {
	case strings.TrimSpace(login) == "":
		return "The username field is empty."
	case errors.Is(err, services.ErrInvalidCredentials):
		return "The username or password you entered for " + login + " is incorrect."
	}
	log.Printf("Sign in of %q failed: %v", login, err)
	return "Sign in is unavailable right now."
}

// safeRedirect keeps redirects on this site
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return accountPath
	}
	return target
}

// AccountNavItem is one link of the my-account navigation
type AccountNavItem struct {
	Endpoint string
	Label    string
	URL      string
	Active   bool
}

var accountNav = []struct{ endpoint, label string }{
	{"dashboard", "Dashboard"},
	{"orders", "Orders"},
	{"downloads", "Downloads"},
	{"edit-address", "Addresses"},
	{"edit-account", "Account details"},
	{"customer-logout", "Log out"},
}

// AccountOrder is one row of the orders table
type AccountOrder struct {
	*models.Order
	Date    string
	Summary string
}

// AccountData represents the data passed to the account template
type AccountData struct {
	Page
	Section    string
	Navigation []AccountNavItem
	Orders     []AccountOrder
	Login      string
}

// AccountHandler serves /my-account/ and its sections. Signed out visitors
// get the login form.
type AccountHandler struct {
	shop   *Shop
	orders services.OrderService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(shop *Shop, orders services.OrderService) *AccountHandler {
	return &AccountHandler{
		shop:   shop,
		orders: orders,
	}
}

// ServeHTTP handles /my-account/ and /my-account/{section}/
func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	section := r.PathValue("section")
	if section == "" {
		section = "dashboard"
	}
	if !knownSection(section) {
		h.shop.notFound(w, r)
		return
	}

	if section == "customer-logout" {
		h.shop.Sessions.SignOut(w)
		http.Redirect(w, r, accountPath, http.StatusFound)
		return
	}

	data := AccountData{
		Page:    h.shop.page(r, "My account", "page woocommerce-account"),
		Section: section,
	}
	data.Breadcrumb = []string{"Home", "My account"}

	if r.Method == http.MethodPost && r.PostFormValue("login") != "" {
		data.Login = r.PostFormValue("username")
		customer, err := h.shop.signIn(w, data.Login, r.PostFormValue("password"))
		if err == nil {
			log.Printf("Customer %d signed in from my account", customer.ID)
			http.Redirect(w, r, accountPath, http.StatusFound)
			return
		}
		data.Errors = append(data.Errors, "Error: "+loginError(err, data.Login))
	}

	if data.Customer == nil {
		data.Section = "login"
		h.shop.Renderer.Render(w, http.StatusOK, "account", data)
		return
	}

	for _, item := range accountNav {
		url := accountPath + item.endpoint + "/"
		if item.endpoint == "dashboard" {
			url = accountPath
		}
		data.Navigation = append(data.Navigation, AccountNavItem{
			Endpoint: item.endpoint,
			Label:    item.label,
			URL:      url,
			Active:   item.endpoint == section,
		})
	}

	if section == "orders" {
		orders, err := h.orders.ListCustomerOrders(data.Customer.ID)
		if err != nil {
			log.Printf("Listing orders of customer %d failed: %v", data.Customer.ID, err)
			data.Errors = append(data.Errors, "Your orders could not be loaded.")
		}
		for _, o := range orders {
			data.Orders = append(data.Orders, AccountOrder{
				Order:   o,
				Date:    o.CreatedAt.Format("January 2, 2006"),
				Summary: orderSummary(o),
			})
		}
	}

	h.shop.Renderer.Render(w, http.StatusOK, "account", data)
}

func knownSection(section string) bool {
	for _, item := range accountNav {
		if item.endpoint == section {
			return true
		}
	}
	return false
}

// orderSummary reads e.g. "$18.00 for 1 item"
func orderSummary(o *models.Order) string {
	return models.FormatPrice(o.Total) + " for " + itemCount(o.ItemCount())
}
