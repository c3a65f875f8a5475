package pages

import (
	"errors"
	"strings"
	"testing"

	"github.com/ssqa/storefront/internal/browser/testutil"
)

// collapsedCouponPanel registers a closed coupon panel whose field appears
// once the panel button is clicked by script
func collapsedCouponPanel(d *testutil.FakeDriver) (button, field *testutil.FakeElement) {
	button = d.Add(couponPanelButton, testutil.NewElement("Add a coupon").WithAttr("aria-expanded", "false"))
	field = testutil.NewElement("")
	d.ScriptFunc = func(script string, arg any) (any, error) {
		if script == clickScript && arg == any(button) {
			button.WithAttr("aria-expanded", "true")
			d.Add(couponField, field)
		}
		return nil, nil
	}
	return button, field
}

func TestCartApplyCouponExpandsPanel(t *testing.T) {
	tests := []struct {
		name    string
		notice  string
		wantErr error
	}{
		{"applied", `Coupon code "SSQA100" has been applied to your cart.`, nil},
		{"applied lower case", `coupon code "SSQA100" APPLIED`, nil},
		{"wrong code", `Coupon code "OTHER" has been applied to your cart.`, ErrUnexpectedContent},
		{"no applied word", `Coupon "SSQA100" does not exist!`, ErrUnexpectedContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a cart whose coupon panel starts collapsed
			d, s := newTestSession()
			_, field := collapsedCouponPanel(d)
			apply := d.Add(applyCouponButton, testutil.NewElement("Apply"))
			apply.OnClick = func() error {
				d.Add(cartPageMessage, testutil.NewElement(tt.notice))
				return nil
			}

			// WHEN
			err := NewCartPage(s).ApplyCoupon("SSQA100", true)

			// THEN
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if strings.Join(field.Typed, "") != "SSQA100" {
				t.Errorf("expected the code to be typed into the field, got %q", field.Typed)
			}
			if apply.ClickCount() != 1 {
				t.Errorf("expected one apply click, got %d", apply.ClickCount())
			}
		})
	}
}

func TestCartExpandCouponPanelAlreadyOpen(t *testing.T) {
	// GIVEN the coupon field is already visible
	d, s := newTestSession()
	d.Add(couponField, testutil.NewElement(""))
	d.Add(couponPanelButton, testutil.NewElement("Add a coupon").WithAttr("aria-expanded", "true"))

	// WHEN
	err := NewCartPage(s).ExpandCouponPanel()

	// THEN
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Scripts) != 0 {
		t.Errorf("expected no panel click, got scripts %q", d.Scripts)
	}
}

func TestCartExpandCouponPanelExpandedButFieldMissing(t *testing.T) {
	// GIVEN the panel claims to be open but never shows the field
	d, s := newTestSession()
	d.Add(couponPanelButton, testutil.NewElement("Add a coupon").WithAttr("aria-expanded", "true"))

	// WHEN
	err := NewCartPage(s).ExpandCouponPanel()

	// THEN
	if err == nil || !strings.Contains(err.Error(), "could not find coupon field") {
		t.Fatalf("expected a missing field error, got %v", err)
	}
	if len(d.Scripts) != 0 {
		t.Errorf("expected no panel click, got scripts %q", d.Scripts)
	}
}

func TestCartApplyCouponExpectingFailure(t *testing.T) {
	// GIVEN
	d, s := newTestSession()
	collapsedCouponPanel(d)
	apply := d.Add(applyCouponButton, testutil.NewElement("Apply"))
	apply.OnClick = func() error {
		d.Add(cartErrorBox, testutil.NewElement(`Coupon "NOPE" does not exist!`))
		return nil
	}
	cart := NewCartPage(s)

	// WHEN
	err := cart.ApplyCoupon("NOPE", false)
	msg, merr := cart.DisplayedError()

	// THEN
	if err != nil || merr != nil {
		t.Fatalf("unexpected errors: %v, %v", err, merr)
	}
	if msg != `Coupon "NOPE" does not exist!` {
		t.Errorf("unexpected error text %q", msg)
	}
}

func TestCartQuantityFor(t *testing.T) {
	// GIVEN two cart lines
	d, s := newTestSession()
	beanie := testutil.NewElement("Beanie line").
		AddChild(cartLineName, testutil.NewElement("Beanie")).
		AddChild(cartLineQuantity, testutil.NewElement("").WithAttr("value", "2"))
	belt := testutil.NewElement("Belt line").
		AddChild(cartLineName, testutil.NewElement("Belt")).
		AddChild(cartLineQuantity, testutil.NewElement("").WithAttr("value", "1"))
	d.Add(cartLineItems, beanie, belt)
	cart := NewCartPage(s)

	tests := []struct {
		product string
		wantQty string
		wantOK  bool
	}{
		{"Beanie", "2", true},
		{"Belt", "1", true},
		{"Hoodie", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			// WHEN
			qty, ok, err := cart.QuantityFor(tt.product)

			// THEN
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if qty != tt.wantQty || ok != tt.wantOK {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.wantQty, tt.wantOK, qty, ok)
			}
		})
	}
}

func TestCartHasQuantityTwo(t *testing.T) {
	// GIVEN a hidden input with 2 and a visible one with 1
	d, s := newTestSession()
	hidden := testutil.NewElement("").WithAttr("value", "2")
	hidden.Hidden = true
	d.Add(quantityInputs[0], hidden, testutil.NewElement("").WithAttr("value", "1"))
	cart := NewCartPage(s)

	// WHEN
	got, err := cart.HasQuantityTwo()

	// THEN
	if err != nil || got {
		t.Fatalf("expected no visible quantity of 2, got %v, %v", got, err)
	}

	// WHEN a block cart input shows 2
	d.Add(quantityInputs[1], testutil.NewElement("").WithAttr("value", " 2 "))
	got, err = cart.HasQuantityTwo()

	// THEN
	if err != nil || !got {
		t.Fatalf("expected a visible quantity of 2, got %v, %v", got, err)
	}
}
