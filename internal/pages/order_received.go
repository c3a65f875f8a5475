package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/ssqa/storefront/internal/browser"
)

var (
	orderReceivedHeader = browser.CSS("header.entry-header h1.entry-title")
	orderNumber         = browser.CSS("ul.woocommerce-order-overview li.woocommerce-order-overview__order strong")
)

// OrderReceivedPage is the confirmation shown after a successful checkout
type OrderReceivedPage struct {
	page
}

// NewOrderReceivedPage creates a new order received page
func NewOrderReceivedPage(s *browser.Session) *OrderReceivedPage {
	return &OrderReceivedPage{page: newPage(s)}
}

// VerifyLoaded waits for the confirmation URL and checks the page header
func (p *OrderReceivedPage) VerifyLoaded() error {
	if err := p.wait.WaitUntilURLContains(orderReceivedSignal, 10*time.Second); err != nil {
		return err
	}
	header, err := p.wait.WaitAndGetText(orderReceivedHeader, 0)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(header), "order received") {
		return fmt.Errorf("%w: order received page header is %q", ErrUnexpectedContent, header)
	}
	return nil
}

// OrderNumber returns the order number shown in the overview
func (p *OrderReceivedPage) OrderNumber() (string, error) {
	text, err := p.wait.WaitAndGetText(orderNumber, 0)
	return strings.TrimSpace(text), err
}
