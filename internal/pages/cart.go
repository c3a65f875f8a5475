package pages

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	cartProductNames  = browser.CSS(`[class*="product-name"]`)
	cartLineItems     = browser.CSS("tr.cart_item")
	cartLineName      = browser.CSS(`[class*='product-name']`)
	cartLineQuantity  = browser.CSS("input.qty")
	couponPanelButton = browser.CSS(".wc-block-components-totals-coupon .wc-block-components-panel__button")
	couponField       = browser.ID("wc-block-components-totals-coupon__input-0")
	applyCouponButton = browser.CSS(".wc-block-components-totals-coupon__button")
	cartPageMessage   = browser.CSS(".wc-block-components-notice-snackbar .wc-block-components-notice-banner__content")
	cartErrorBox      = browser.CSS("div.wc-block-components-validation-error")
	proceedToCheckout = browser.CSS("div.wp-block-woocommerce-proceed-to-checkout-block a.wc-block-components-button")
)

// quantityInputs covers classic and block cart markup
var quantityInputs = []browser.Locator{
	browser.CSS("input.qty"),
	browser.CSS("input[type='number'][class*='quantity']"),
	browser.CSS("form.woocommerce-cart-form input[value='2']"),
	browser.CSS("form.cart input[value='2']"),
	browser.CSS(".cart_item input[value='2']"),
	browser.CSS("[class*='cart'] input[value='2']"),
}

const clickScript = `el => el.click()`

// CartPage is the shopping cart
type CartPage struct {
	page
}

// NewCartPage creates a new cart page
func NewCartPage(s *browser.Session) *CartPage {
	return &CartPage{page: newPage(s)}
}

// GoTo opens the cart
func (p *CartPage) GoTo() error {
	return p.session.Open("/cart/")
}

// VerifyURL waits for the browser to be on the cart
func (p *CartPage) VerifyURL() error {
	return p.wait.WaitUntilURLContains("/cart/", 0)
}

// ProductNames returns the name of each product in the cart
func (p *CartPage) ProductNames() ([]string, error) {
	els, err := p.wait.WaitAndGetElements(cartProductNames, 0, "no products displayed in the cart")
	if err != nil {
		return nil, err
	}
	return texts(els)
}

// QuantityFor returns the quantity input value of the line whose name
// matches product. ok is false when no line matches.
func (p *CartPage) QuantityFor(product string) (qty string, ok bool, err error) {
	items, err := p.wait.WaitAndGetElements(cartLineItems, 0, "")
	if errors.Is(err, browser.ErrTimeout) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	for _, item := range items {
		names, err := item.FindElements(cartLineName)
		if err != nil || len(names) == 0 {
			continue
		}
		name, err := names[0].Text()
		if err != nil || !strings.Contains(name, product) {
			continue
		}
		inputs, err := item.FindElements(cartLineQuantity)
		if err != nil || len(inputs) == 0 {
			continue
		}
		value, err := inputs[0].Attribute("value")
		if err != nil {
			return "", false, err
		}
		return value, true, nil
	}
	return "", false, nil
}

// HasQuantityTwo reports whether any visible quantity input holds 2
func (p *CartPage) HasQuantityTwo() (bool, error) {
	for _, loc := range quantityInputs {
		inputs, err := p.session.FindElements(loc)
		if err != nil {
			return false, err
		}
		for _, in := range inputs {
			shown, err := in.IsDisplayed()
			if err != nil || !shown {
				continue
			}
			value, err := in.Attribute("value")
			if err == nil && strings.TrimSpace(value) == "2" {
				return true, nil
			}
		}
	}
	return false, nil
}

// ExpandCouponPanel opens the collapsed coupon panel so its field can be used.
// An already visible field means the panel is open.
func (p *CartPage) ExpandCouponPanel() error {
	open, err := p.wait.Exists(couponField, fieldCheckTimeout)
	if err != nil || open {
		return err
	}

	button, err := p.wait.WaitUntilVisible(browser.ByLocator(couponPanelButton), 0)
	if err != nil {
		return fmt.Errorf("coupon panel button not found: %w", err)
	}
	expanded, err := button.Attribute("aria-expanded")
	if err != nil {
		return err
	}
	if expanded == "false" {
		// the sticky header can cover the button
		if _, err := p.session.ExecuteScript(clickScript, button); err != nil {
			return err
		}
	}

	if _, err := p.wait.WaitUntilVisible(browser.ByLocator(couponField), 5*time.Second); err != nil {
		return fmt.Errorf("could not find coupon field after expanding panel: %w", err)
	}
	return nil
}

// InputCoupon types code into the coupon field, opening the panel first
func (p *CartPage) InputCoupon(code string) error {
	if err := p.ExpandCouponPanel(); err != nil {
		return err
	}
	return p.wait.WaitAndInputText(couponField, code, 0)
}

// ClickApplyCoupon clicks the Apply coupon button
func (p *CartPage) ClickApplyCoupon() error {
	return p.wait.WaitAndClick(applyCouponButton, 0)
}

// ApplyCoupon enters and applies code. With expectSuccess the notice must
// name the code and say it was applied; otherwise read DisplayedError.
func (p *CartPage) ApplyCoupon(code string, expectSuccess bool) error {
	if err := p.InputCoupon(code); err != nil {
		return err
	}
	if err := p.ClickApplyCoupon(); err != nil {
		return err
	}
	if !expectSuccess {
		return nil
	}

	notice, err := p.DisplayedMessage()
	if err != nil {
		return err
	}
	if !strings.Contains(notice, code) || !strings.Contains(strings.ToLower(notice), "applied") {
		return fmt.Errorf("%w: applied coupon %q but did not get a success message, got %q", ErrUnexpectedContent, code, notice)
	}
	return nil
}

// DisplayedMessage returns the cart notice, e.g. `Coupon code "SSQA100" has been applied to your cart.`
func (p *CartPage) DisplayedMessage() (string, error) {
	el, err := p.wait.WaitUntilVisible(browser.ByLocator(cartPageMessage), 0)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// DisplayedError returns the coupon validation error
func (p *CartPage) DisplayedError() (string, error) {
	el, err := p.wait.WaitUntilVisible(browser.ByLocator(cartErrorBox), 0)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// ClickProceedToCheckout clicks the Proceed to checkout button
func (p *CartPage) ClickProceedToCheckout() error {
	return p.wait.WaitAndClick(proceedToCheckout, 0)
}
