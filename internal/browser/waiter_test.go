package browser_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ssqa/storefront/internal/browser"
	"github.com/ssqa/storefront/internal/browser/testutil"
)

var (
	field    = browser.ID("field")
	dropdown = browser.CSS("select#address_type")
	options  = browser.CSS("select#address_type option")
)

// fastWaiter returns a waiter with test-sized timings
func fastWaiter(d browser.Driver, timeout time.Duration) *browser.Waiter {
	return browser.NewWaiter(d,
		browser.WithTimeout(timeout),
		browser.WithPollInterval(5*time.Millisecond),
		browser.WithRetryDelay(time.Millisecond),
	)
}

// operation is one wait-based interaction under test
type operation struct {
	name string
	run  func(w *browser.Waiter) (string, error)
}

// staleRetried lists the interactions wrapped in the stale retry loop
var staleRetried = []operation{
	{"input text", func(w *browser.Waiter) (string, error) {
		return "", w.WaitAndInputText(field, "hello", 0)
	}},
	{"click", func(w *browser.Waiter) (string, error) {
		return "", w.WaitAndClick(field, 0)
	}},
	{"get text", func(w *browser.Waiter) (string, error) {
		return w.WaitAndGetText(field, 0)
	}},
	{"select dropdown", func(w *browser.Waiter) (string, error) {
		return "", w.WaitAndSelectDropdown(field, "Work", "visible_text", 0)
	}},
	{"selected option text", func(w *browser.Waiter) (string, error) {
		return w.WaitAndGetSelectedOptionText(field, 0)
	}},
}

func TestWaiterTimesOutWhenElementNeverVisible(t *testing.T) {
	waits := append([]operation{
		{"contains text", func(w *browser.Waiter) (string, error) {
			return "", w.WaitUntilElementContainsText(field, "x", 0)
		}},
		{"visible by locator", func(w *browser.Waiter) (string, error) {
			_, err := w.WaitUntilVisible(browser.ByLocator(field), 0)
			return "", err
		}},
		{"all visible", func(w *browser.Waiter) (string, error) {
			_, err := w.WaitUntilAllVisible(field, 0)
			return "", err
		}},
		{"url contains", func(w *browser.Waiter) (string, error) {
			return "", w.WaitUntilURLContains("order-received", 0)
		}},
		{"get attribute", func(w *browser.Waiter) (string, error) {
			return w.WaitAndGetAttribute(field, "value", 0)
		}},
	}, staleRetried...)

	const timeout = 60 * time.Millisecond
	for _, op := range waits {
		t.Run(op.name, func(t *testing.T) {
			// GIVEN an element that exists but stays hidden
			d := testutil.NewFakeDriver()
			el := testutil.NewSelect([2]string{"Work", "Work"})
			el.Hidden = true
			d.Add(field, el)

			// WHEN
			start := time.Now()
			_, err := op.run(fastWaiter(d, timeout))
			elapsed := time.Since(start)

			// THEN
			if !errors.Is(err, browser.ErrTimeout) {
				t.Fatalf("error = %v, want ErrTimeout", err)
			}
			if elapsed > timeout+250*time.Millisecond {
				t.Errorf("took %s, want about %s", elapsed, timeout)
			}
		})
	}
}

func TestWaiterTimeoutMessage(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.Add(field, testutil.NewElement("Coupon removed"))

	err := fastWaiter(d, 30*time.Millisecond).WaitUntilElementContainsText(field, "applied", 0)

	if !errors.Is(err, browser.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	for _, want := range []string{`"field"`, `"applied"`, "after waiting"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestWaiterRetriesStaleInteractions(t *testing.T) {
	for _, op := range staleRetried {
		for stale := 0; stale <= 3; stale++ {
			t.Run(op.name, func(t *testing.T) {
				// GIVEN an element that goes stale on the first `stale` interactions
				d := testutil.NewFakeDriver()
				el := testutil.NewSelect([2]string{"Home", "Home"}, [2]string{"Work", "Work"})
				el.TextVal = "stable text"
				el.Selected = 1
				el.StaleActions = stale
				d.Add(field, el)

				// AND a reference run with no staleness
				ref := testutil.NewFakeDriver()
				refEl := testutil.NewSelect([2]string{"Home", "Home"}, [2]string{"Work", "Work"})
				refEl.TextVal = "stable text"
				refEl.Selected = 1
				ref.Add(field, refEl)
				want, err := op.run(fastWaiter(ref, time.Second))
				if err != nil {
					t.Fatalf("reference run failed: %v", err)
				}

				// WHEN
				got, err := op.run(fastWaiter(d, time.Second))

				// THEN
				if stale == 3 {
					if !errors.Is(err, browser.ErrStaleReference) {
						t.Fatalf("error = %v, want ErrStaleReference", err)
					}
					if errors.Is(err, browser.ErrTimeout) {
						t.Fatalf("error = %v, must not be a timeout", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("stale=%d: unexpected error = %v", stale, err)
				}
				if got != want {
					t.Errorf("stale=%d: got %q, want %q", stale, got, want)
				}
				if finds := d.FindCount(field); finds != stale+1 {
					t.Errorf("stale=%d: locator resolved %d times, want %d", stale, finds, stale+1)
				}
			})
		}
	}
}

func TestWaiterDoesNotRetryOtherErrors(t *testing.T) {
	// GIVEN a dropdown without the requested option
	d := testutil.NewFakeDriver()
	d.Add(field, testutil.NewSelect([2]string{"Home", "Home"}))

	// WHEN
	err := fastWaiter(d, time.Second).WaitAndSelectDropdown(field, "Office", "visible_text", 0)

	// THEN the failure surfaces on the first attempt
	if !errors.Is(err, browser.ErrNoSuchElement) {
		t.Fatalf("error = %v, want ErrNoSuchElement", err)
	}
	if finds := d.FindCount(field); finds != 1 {
		t.Errorf("locator resolved %d times, want 1", finds)
	}
}

func TestWaitAndSelectDropdownRejectsUnknownMode(t *testing.T) {
	for _, mode := range []string{"label", "", "text", "VALUE", "value ", " index", "Visible_Text"} {
		t.Run(mode, func(t *testing.T) {
			d := testutil.NewFakeDriver()
			d.Add(field, testutil.NewSelect([2]string{"Home", "Home"}))

			err := fastWaiter(d, time.Second).WaitAndSelectDropdown(field, "Home", mode, 0)

			if !errors.Is(err, browser.ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), "'visible_text', 'index', or 'value'") {
				t.Errorf("error %q does not name the allowed modes", err)
			}
			if finds := d.FindCount(field); finds != 0 {
				t.Errorf("browser was queried %d times before the mode was rejected", finds)
			}
		})
	}
}

func TestWaitAndSelectDropdownRejectsNonNumericIndex(t *testing.T) {
	d := testutil.NewFakeDriver()

	err := fastWaiter(d, time.Second).WaitAndSelectDropdown(field, "first", "index", 0)

	if !errors.Is(err, browser.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestSelectByVisibleTextThenReadSelection(t *testing.T) {
	// GIVEN a dropdown with Home and Work
	d := testutil.NewFakeDriver()
	d.Add(dropdown, testutil.NewSelect([2]string{"Home", "Home"}, [2]string{"Work", "Work"}))
	w := fastWaiter(d, time.Second)

	// WHEN Work is selected by visible text
	if err := w.WaitAndSelectDropdown(dropdown, "Work", "visible_text", 0); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	// THEN the selected option reads Work
	got, err := w.WaitAndGetSelectedOptionText(dropdown, 0)
	if err != nil {
		t.Fatalf("read selection failed: %v", err)
	}
	if got != "Work" {
		t.Errorf("selected option = %q, want Work", got)
	}

	// AND index and value modes land on the same options
	if err := w.WaitAndSelectDropdown(dropdown, "0", "index", 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := w.WaitAndGetSelectedOptionText(dropdown, 0); got != "Home" {
		t.Errorf("after index 0 selected = %q, want Home", got)
	}
	if err := w.WaitAndSelectDropdown(dropdown, "Work", "value", 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := w.WaitAndGetSelectedOptionText(dropdown, 0); got != "Work" {
		t.Errorf("after value Work selected = %q, want Work", got)
	}
}

func TestWaitAndGetDropdownOptions(t *testing.T) {
	t.Run("reads value and text of each option", func(t *testing.T) {
		d := testutil.NewFakeDriver()
		d.Add(options,
			testutil.NewElement("Choose an option").WithAttr("value", ""),
			testutil.NewElement("Blue").WithAttr("value", "blue"),
			testutil.NewElement("Green").WithAttr("value", "green"),
		)

		got, err := fastWaiter(d, time.Second).WaitAndGetDropdownOptions(options, "value", 0)
		if err != nil {
			t.Fatal(err)
		}

		want := []browser.Option{{Value: "", Text: "Choose an option"}, {Value: "blue", Text: "Blue"}, {Value: "green", Text: "Green"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("options mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("restarts the whole read when an option goes stale", func(t *testing.T) {
		// GIVEN the second option is stale on its re-validation and on its first read
		d := testutil.NewFakeDriver()
		blue := testutil.NewElement("Blue").WithAttr("value", "blue")
		blue.StaleChecks = 1
		green := testutil.NewElement("Green").WithAttr("value", "green")
		green.StaleActions = 1
		d.Add(options, testutil.NewElement("Red").WithAttr("value", "red"), blue, green)

		// WHEN
		got, err := fastWaiter(d, time.Second).WaitAndGetDropdownOptions(options, "", 0)

		// THEN
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 || got[1].Text != "Blue" || got[2].Value != "green" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("an option that disappears fails within the caller's timeout", func(t *testing.T) {
		// GIVEN the second option vanishes right after the list is found
		d := testutil.NewFakeDriver()
		blue := testutil.NewElement("Blue").WithAttr("value", "blue")
		blue.HideAfter = 1
		d.Add(options, testutil.NewElement("Red").WithAttr("value", "red"), blue)

		// WHEN the default is far longer than the requested wait
		start := time.Now()
		_, err := fastWaiter(d, 10*time.Second).WaitAndGetDropdownOptions(options, "", 50*time.Millisecond)

		// THEN
		if !errors.Is(err, browser.ErrTimeout) {
			t.Fatalf("error = %v, want ErrTimeout", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("gave up after %s, want the 50ms wait", elapsed)
		}
	})
}

func TestWaitUntilVisibleByReference(t *testing.T) {
	t.Run("waits for a reference to show", func(t *testing.T) {
		el := testutil.NewElement("panel")
		el.ShowAfter = 3

		got, err := fastWaiter(testutil.NewFakeDriver(), time.Second).WaitUntilVisible(browser.ByReference(el), 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != browser.Element(el) {
			t.Error("expected the same reference back")
		}
	})

	t.Run("stale reference is not polled away", func(t *testing.T) {
		el := testutil.NewElement("panel")
		el.StaleChecks = 1

		_, err := fastWaiter(testutil.NewFakeDriver(), time.Second).WaitUntilVisible(browser.ByReference(el), 0)
		if !errors.Is(err, browser.ErrStaleReference) {
			t.Fatalf("error = %v, want ErrStaleReference", err)
		}
	})

	t.Run("nil reference", func(t *testing.T) {
		_, err := fastWaiter(testutil.NewFakeDriver(), time.Second).WaitUntilVisible(browser.ByReference(nil), 0)
		if !errors.Is(err, browser.ErrInvalidArgument) {
			t.Fatalf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestExistsNeverTimesOut(t *testing.T) {
	d := testutil.NewFakeDriver()
	w := fastWaiter(d, time.Second)

	got, err := w.Exists(field, 20*time.Millisecond)
	if err != nil || got {
		t.Fatalf("Exists() on missing element = %v, %v, want false, nil", got, err)
	}

	hidden := testutil.NewElement("")
	hidden.Hidden = true
	d.Add(field, hidden)
	if got, err := w.Exists(field, 20*time.Millisecond); err != nil || got {
		t.Fatalf("Exists() on hidden element = %v, %v, want false, nil", got, err)
	}

	hidden.SetHidden(false)
	if got, err := w.Exists(field, 20*time.Millisecond); err != nil || !got {
		t.Fatalf("Exists() on visible element = %v, %v, want true, nil", got, err)
	}
}

func TestWaitAndGetElements(t *testing.T) {
	d := testutil.NewFakeDriver()
	w := fastWaiter(d, 20*time.Millisecond)

	_, err := w.WaitAndGetElements(field, 0, "no review found")
	if !errors.Is(err, browser.ErrTimeout) || !strings.Contains(err.Error(), "no review found") {
		t.Fatalf("error = %v, want timeout carrying the custom message", err)
	}

	d.Add(field, testutil.NewElement("one"), testutil.NewElement("two"))
	els, err := w.WaitAndGetElements(field, 0, "")
	if err != nil || len(els) != 2 {
		t.Fatalf("WaitAndGetElements() = %d elements, %v", len(els), err)
	}
}

func TestWaitUntilURLContains(t *testing.T) {
	d := testutil.NewFakeDriver()
	d.SetURL("http://shop.test/checkout/")
	w := fastWaiter(d, time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		d.SetURL("http://shop.test/checkout/order-received/42/")
	}()

	if err := w.WaitUntilURLContains("order-received", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitAndClickRequiresEnabled(t *testing.T) {
	d := testutil.NewFakeDriver()
	btn := testutil.NewElement("Place order")
	btn.Disabled = true
	d.Add(field, btn)

	err := fastWaiter(d, 30*time.Millisecond).WaitAndClick(field, 0)

	if !errors.Is(err, browser.ErrTimeout) || !strings.Contains(err.Error(), "clickable") {
		t.Fatalf("error = %v, want clickable timeout", err)
	}
	if btn.ClickCount() != 0 {
		t.Error("disabled button was clicked")
	}
}
