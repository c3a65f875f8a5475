package pages

import (
	"errors"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	billingFirstName = browser.ID("billing-first_name")
	billingLastName  = browser.ID("billing-last_name")
	billingAddress1  = browser.ID("billing-address_1")
	billingCity      = browser.ID("billing-city")
	billingPostcode  = browser.ID("billing-postcode")
	billingPhone     = browser.ID("billing-phone")
	billingEmail     = browser.ID("email")
	billingCountry   = browser.ID("billing-country")
	billingState     = browser.ID("billing-state")
	placeOrderButton = browser.CSS(".wc-block-components-checkout-place-order-button")
)

// orderReceivedSignal is the URL fragment of the confirmation page
const orderReceivedSignal = "order-received"

// statePopulateDelay lets the state dropdown re-render after a country change
var statePopulateDelay = 500 * time.Millisecond

// BillingInfo is the checkout billing form. Empty fields get defaults.
type BillingInfo struct {
	FirstName string
	LastName  string
	Street    string
	City      string
	Postcode  string
	Phone     string
	Email     string
	Country   string
	State     string
}

// DefaultBillingInfo is used for every field left empty
var DefaultBillingInfo = BillingInfo{
	FirstName: "AutomationFname",
	LastName:  "AutomationLname",
	Street:    "123 Main st.",
	City:      "San Francisco",
	Postcode:  "94016",
	Phone:     "4151111111",
	Country:   "United States (US)",
	State:     "California",
}

func (b BillingInfo) withDefaults() BillingInfo {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&b.FirstName, DefaultBillingInfo.FirstName)
	fill(&b.LastName, DefaultBillingInfo.LastName)
	fill(&b.Street, DefaultBillingInfo.Street)
	fill(&b.City, DefaultBillingInfo.City)
	fill(&b.Postcode, DefaultBillingInfo.Postcode)
	fill(&b.Phone, DefaultBillingInfo.Phone)
	fill(&b.Country, DefaultBillingInfo.Country)
	fill(&b.State, DefaultBillingInfo.State)
	if b.Email == "" {
		b.Email = gofakeit.Email()
	}
	return b
}

// RetryOnMissingNavigation works around a place-order click that sometimes
// does not submit. After the click it waits Wait for the confirmation URL; if
// that never comes and the button is still displayed, it clicks exactly once
// more. It never clicks a third time.
type RetryOnMissingNavigation struct {
	Enabled bool
	Wait    time.Duration
}

// DefaultRetryOnMissingNavigation is the policy checkout pages start with
var DefaultRetryOnMissingNavigation = RetryOnMissingNavigation{Enabled: true, Wait: 5 * time.Second}

func (r RetryOnMissingNavigation) afterClick(w *browser.Waiter, button browser.Locator, signal string) error {
	if !r.Enabled {
		return nil
	}

	err := w.WaitUntilURLContains(signal, r.Wait)
	if err == nil || !errors.Is(err, browser.ErrTimeout) {
		return err
	}

	shown, err := w.IsDisplayed(button)
	if err != nil || !shown {
		return err
	}
	log.Printf("No navigation to %q after placing the order, clicking %s once more", signal, button)
	return w.WaitAndClick(button, 0)
}

// CheckoutPage is the block checkout form
type CheckoutPage struct {
	page
	// Retry is applied after the place-order click
	Retry RetryOnMissingNavigation
}

// NewCheckoutPage creates a new checkout page
func NewCheckoutPage(s *browser.Session) *CheckoutPage {
	return &CheckoutPage{page: newPage(s), Retry: DefaultRetryOnMissingNavigation}
}

// GoTo opens the checkout
func (p *CheckoutPage) GoTo() error {
	return p.session.Open("/checkout/")
}

// fieldExists checks for a field; virtual products drop most of the address form
func (p *CheckoutPage) fieldExists(loc browser.Locator) (bool, error) {
	return p.wait.Exists(loc, fieldCheckTimeout)
}

func (p *CheckoutPage) inputIfPresent(loc browser.Locator, text string) error {
	ok, err := p.fieldExists(loc)
	if err != nil || !ok {
		return err
	}
	return p.wait.WaitAndInputText(loc, text, 0)
}

func (p *CheckoutPage) selectIfPresent(loc browser.Locator, text string) (bool, error) {
	ok, err := p.fieldExists(loc)
	if err != nil || !ok {
		return false, err
	}
	return true, p.wait.WaitAndSelectDropdown(loc, text, string(browser.SelectByVisibleText), 0)
}

// InputFirstName types name, or the default when name is empty
func (p *CheckoutPage) InputFirstName(name string) error {
	return p.inputIfPresent(billingFirstName, orDefault(name, DefaultBillingInfo.FirstName))
}

// InputLastName types name, or the default when name is empty
func (p *CheckoutPage) InputLastName(name string) error {
	return p.inputIfPresent(billingLastName, orDefault(name, DefaultBillingInfo.LastName))
}

// InputStreet types street, or the default when street is empty
func (p *CheckoutPage) InputStreet(street string) error {
	return p.inputIfPresent(billingAddress1, orDefault(street, DefaultBillingInfo.Street))
}

// InputCity types city, or the default when city is empty
func (p *CheckoutPage) InputCity(city string) error {
	return p.inputIfPresent(billingCity, orDefault(city, DefaultBillingInfo.City))
}

// InputPostcode types postcode, or the default when postcode is empty
func (p *CheckoutPage) InputPostcode(postcode string) error {
	return p.inputIfPresent(billingPostcode, orDefault(postcode, DefaultBillingInfo.Postcode))
}

// InputPhone types phone, or the default when phone is empty
func (p *CheckoutPage) InputPhone(phone string) error {
	return p.inputIfPresent(billingPhone, orDefault(phone, DefaultBillingInfo.Phone))
}

// InputEmail types email, or a random address when email is empty
func (p *CheckoutPage) InputEmail(email string) error {
	if email == "" {
		email = gofakeit.Email()
	}
	return p.inputIfPresent(billingEmail, email)
}

// SelectCountry picks the billing country and gives the state list time to refresh
func (p *CheckoutPage) SelectCountry(country string) error {
	selected, err := p.selectIfPresent(billingCountry, orDefault(country, DefaultBillingInfo.Country))
	if selected && err == nil {
		time.Sleep(statePopulateDelay)
	}
	return err
}

// SelectState picks state by visible text, or the default when state is empty
func (p *CheckoutPage) SelectState(state string) error {
	_, err := p.selectIfPresent(billingState, orDefault(state, DefaultBillingInfo.State))
	return err
}

// FillBillingInfo fills every billing field the page shows. Email goes first
// and the country before the state, which only lists the country's states.
func (p *CheckoutPage) FillBillingInfo(info BillingInfo) error {
	info = info.withDefaults()

	steps := []func() error{
		func() error { return p.InputEmail(info.Email) },
		func() error { return p.SelectCountry(info.Country) },
		func() error { return p.InputFirstName(info.FirstName) },
		func() error { return p.InputLastName(info.LastName) },
		func() error { return p.InputStreet(info.Street) },
		func() error { return p.InputCity(info.City) },
		func() error { return p.InputPostcode(info.Postcode) },
		func() error { return p.InputPhone(info.Phone) },
		func() error { return p.SelectState(info.State) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// ClickPlaceOrder submits the order, applying the Retry policy
func (p *CheckoutPage) ClickPlaceOrder() error {
	if err := p.wait.WaitAndClick(placeOrderButton, 0); err != nil {
		return err
	}
	return p.Retry.afterClick(p.wait, placeOrderButton, orderReceivedSignal)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
