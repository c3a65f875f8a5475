package pages

import (
	"errors"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	myAccountLoginForm      = browser.CSS("form.woocommerce-form-login")
	myAccountNavigation     = browser.CSS("nav.woocommerce-MyAccount-navigation")
	myAccountNavLinks       = browser.CSS("nav.woocommerce-MyAccount-navigation ul li a")
	myAccountContent        = browser.CSS("div.woocommerce-MyAccount-content")
	myAccountLogout         = browser.CSS("li.woocommerce-MyAccount-navigation-link--customer-logout a")
	myAccountBreadcrumb     = browser.CSS(".woocommerce-breadcrumb, nav.woocommerce-breadcrumb, .breadcrumb")
	myAccountDetailsLink    = browser.CSS("li.woocommerce-MyAccount-navigation-link--edit-account a")
	myAccountOrdersLink     = browser.CSS("li.woocommerce-MyAccount-navigation-link--orders a")
	myAccountDetailsForm    = browser.CSS("form.woocommerce-EditAccountForm")
	myAccountOrdersTable    = browser.CSS("table.woocommerce-orders-table")
	myAccountOrdersTableRow = browser.CSS("table.woocommerce-orders-table tbody tr")
)

// MyAccountSignedIn is the account dashboard of a logged in customer
type MyAccountSignedIn struct {
	page
}

// NewMyAccountSignedIn creates a new signed in My account page
func NewMyAccountSignedIn(s *browser.Session) *MyAccountSignedIn {
	return &MyAccountSignedIn{page: newPage(s)}
}

// GoTo opens My account
func (p *MyAccountSignedIn) GoTo() error {
	return p.session.Open("/my-account/")
}

// VerifySignedIn waits for the logout link, which only signed in customers see
func (p *MyAccountSignedIn) VerifySignedIn() error {
	_, err := p.wait.WaitUntilVisible(browser.ByLocator(myAccountLogout), 0)
	return err
}

// IsAccountAreaVisible is true when the account navigation shows and the
// login form does not
func (p *MyAccountSignedIn) IsAccountAreaVisible() (bool, error) {
	login, err := p.wait.Exists(myAccountLoginForm, fieldCheckTimeout)
	if err != nil || login {
		return false, err
	}
	return p.wait.Exists(myAccountNavigation, 0)
}

// LeftNavTexts returns the account navigation links in order
func (p *MyAccountSignedIn) LeftNavTexts() ([]string, error) {
	els, err := p.wait.WaitAndGetElements(myAccountNavLinks, 0, "my account navigation has no links")
	if err != nil {
		return nil, err
	}
	return texts(els)
}

// IsMainContentVisible reports whether the account content shows
func (p *MyAccountSignedIn) IsMainContentVisible() (bool, error) {
	return p.wait.Exists(myAccountContent, 0)
}

// IsLogoutVisible reports whether the Log out link shows
func (p *MyAccountSignedIn) IsLogoutVisible() (bool, error) {
	return p.wait.Exists(myAccountLogout, 0)
}

// Breadcrumb returns the breadcrumb text
func (p *MyAccountSignedIn) Breadcrumb() (string, error) {
	return p.wait.WaitAndGetText(myAccountBreadcrumb, 0)
}

// ClickAccountDetails opens the Account details section
func (p *MyAccountSignedIn) ClickAccountDetails() error {
	return p.wait.WaitAndClick(myAccountDetailsLink, 0)
}

// IsAccountDetailsFormVisible reports whether the account details form shows
func (p *MyAccountSignedIn) IsAccountDetailsFormVisible() (bool, error) {
	return p.wait.Exists(myAccountDetailsForm, 5*time.Second)
}

// ClickOrders opens the Orders section
func (p *MyAccountSignedIn) ClickOrders() error {
	return p.wait.WaitAndClick(myAccountOrdersLink, 0)
}

// OrdersContent returns the text of the orders view, which may be a
// "no order has been made yet" notice
func (p *MyAccountSignedIn) OrdersContent() (string, error) {
	return p.wait.WaitAndGetText(myAccountContent, 0)
}

// IsOrdersTableVisible reports whether the orders table shows
func (p *MyAccountSignedIn) IsOrdersTableVisible() (bool, error) {
	return p.wait.Exists(myAccountOrdersTable, 5*time.Second)
}

// OrdersTableRowCount returns 0 when the table never shows
func (p *MyAccountSignedIn) OrdersTableRowCount() (int, error) {
	rows, err := p.wait.WaitAndGetElements(myAccountOrdersTableRow, 5*time.Second, "")
	if errors.Is(err, browser.ErrTimeout) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Logout clicks the logout link
func (p *MyAccountSignedIn) Logout() error {
	return p.wait.WaitAndClick(myAccountLogout, 0)
}
