package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	headerCart      = browser.CSS("ul#site-header-cart a.cart-contents")
	headerCartCount = browser.CSS("ul#site-header-cart span.count")
	headerCartArea  = browser.ID("site-header-cart")
	headerMenuItems = browser.CSS("nav#site-navigation ul.menu > li > a")
)

// ExpectedMenuItems are the primary navigation entries of the storefront
var ExpectedMenuItems = []string{"Home", "Cart", "Checkout", "My account", "Sample Page"}

// cartCountTimeout covers slow AJAX cart fragment refreshes
const cartCountTimeout = 20 * time.Second

// Header is the site header shown on every page
type Header struct {
	page
}

// NewHeader creates a new site header
func NewHeader(s *browser.Session) *Header {
	return &Header{page: newPage(s)}
}

// ClickCart opens the cart from the header
func (h *Header) ClickCart() error {
	return h.wait.WaitAndClick(headerCart, 0)
}

// WaitUntilCartItemCount waits for the header cart to show count. Themes
// render the count differently, so a miss on the count badge falls back to the
// text of the whole header cart.
func (h *Header) WaitUntilCartItemCount(count int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = cartCountTimeout
	}
	want := strconv.Itoa(count)

	err := h.wait.WaitUntilElementContainsText(headerCartCount, want, timeout)
	if err == nil || !errors.Is(err, browser.ErrTimeout) {
		return err
	}

	return h.wait.Until(fmt.Sprintf("header cart to show count %q", want), timeout, func() (bool, error) {
		els, err := h.session.FindElements(headerCartArea)
		if err != nil || len(els) == 0 {
			return false, err
		}
		text, err := els[0].Text()
		if err != nil {
			return false, err
		}
		return strings.Contains(text, want), nil
	})
}

// MenuItemTexts returns the text of each primary menu entry
func (h *Header) MenuItemTexts() ([]string, error) {
	els, err := h.wait.WaitAndGetElements(headerMenuItems, 0, "")
	if err != nil {
		return nil, err
	}
	return texts(els)
}

// AssertAllMenuItemsDisplayed checks every expected menu entry is shown
func (h *Header) AssertAllMenuItemsDisplayed() error {
	shown, err := h.MenuItemTexts()
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(shown))
	for _, item := range shown {
		present[item] = true
	}
	for _, want := range ExpectedMenuItems {
		if !present[want] {
			return fmt.Errorf("%w: menu item %q is not displayed in the header (got %q)", ErrUnexpectedContent, want, shown)
		}
	}
	return nil
}
