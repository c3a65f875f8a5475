package pages

import "github.com/ssqa/storefront/internal/browser"

var (
	homeAddToCartButton = browser.CSS("a.add_to_cart_button")
	homeProduct         = browser.CSS("ul.products li.product")
	homePageHeading     = browser.CSS("header.woocommerce-products-header h1.page-title")
)

// HomePage is the shop front listing products
type HomePage struct {
	page
}

// NewHomePage creates a new home page
func NewHomePage(s *browser.Session) *HomePage {
	return &HomePage{page: newPage(s)}
}

// GoTo opens the home page
func (p *HomePage) GoTo() error {
	return p.session.Open("/")
}

// Products returns the product tiles on the page
func (p *HomePage) Products() ([]browser.Element, error) {
	return p.wait.WaitAndGetElements(homeProduct, 0, "no products displayed on the home page")
}

// ClickFirstAddToCart adds the first listed product to the cart
func (p *HomePage) ClickFirstAddToCart() error {
	return p.wait.WaitAndClick(homeAddToCartButton, 0)
}

// Heading returns the page title
func (p *HomePage) Heading() (string, error) {
	return p.wait.WaitAndGetText(homePageHeading, 0)
}
