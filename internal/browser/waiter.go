package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Waiter defaults
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 250 * time.Millisecond
	DefaultMaxAttempts  = 3
	DefaultRetryDelay   = 500 * time.Millisecond
)

var errNotYet = errors.New("condition not met yet")

// Waiter performs element interactions that wait for the page to be ready and
// retry when the element goes stale mid-interaction. Every operation takes a
// timeout; zero means the Waiter's default.
type Waiter struct {
	driver       Driver
	timeout      time.Duration
	pollInterval time.Duration
	maxAttempts  int
	retryDelay   time.Duration
}

// WaitOption configures a Waiter
type WaitOption func(*Waiter)

// WithTimeout sets the default timeout for waits
func WithTimeout(d time.Duration) WaitOption {
	return func(w *Waiter) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithPollInterval sets how often wait conditions are evaluated
func WithPollInterval(d time.Duration) WaitOption {
	return func(w *Waiter) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithMaxAttempts bounds how many times a stale interaction is attempted
func WithMaxAttempts(n int) WaitOption {
	return func(w *Waiter) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between stale retries
func WithRetryDelay(d time.Duration) WaitOption {
	return func(w *Waiter) {
		if d >= 0 {
			w.retryDelay = d
		}
	}
}

// NewWaiter creates a Waiter bound to driver
func NewWaiter(driver Driver, opts ...WaitOption) *Waiter {
	w := &Waiter{
		driver:       driver,
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		retryDelay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Timeout returns the default wait timeout
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

func (w *Waiter) resolve(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return w.timeout
	}
	return timeout
}

// poll evaluates check every poll interval until it holds or timeout elapses.
// An error from check ends the wait immediately.
func (w *Waiter) poll(timeout time.Duration, condition string, check func() (bool, error)) error {
	timeout = w.resolve(timeout)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := retry.Do(ctx, constant(w.pollInterval), func(ctx context.Context) error {
		ok, err := check()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errNotYet)
		}
		return nil
	})
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errNotYet) {
		return fmt.Errorf("%w: %s, after waiting %s", ErrTimeout, condition, time.Since(start).Round(time.Millisecond))
	}
	return err
}

// Until polls check until it holds, for conditions the named waits do not
// cover. Stale and missing elements count as "not yet"; condition describes
// what was expected in the timeout error.
func (w *Waiter) Until(condition string, timeout time.Duration, check func() (bool, error)) error {
	return w.poll(timeout, condition, func() (bool, error) {
		return settle(check())
	})
}

// withStaleRetry runs fn up to maxAttempts times while it fails with
// ErrStaleReference. Any other outcome is returned as is.
func (w *Waiter) withStaleRetry(fn func() error) error {
	b := retry.WithMaxRetries(uint64(w.maxAttempts-1), constant(w.retryDelay))
	return retry.Do(context.Background(), b, func(ctx context.Context) error {
		err := fn()
		if errors.Is(err, ErrStaleReference) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// constant is retry.NewConstant that also accepts a zero delay
func constant(d time.Duration) retry.Backoff {
	if d <= 0 {
		return retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.NewConstant(d)
}

// settle treats staleness and missing elements as "not yet" while polling
func settle(ok bool, err error) (bool, error) {
	if err != nil && transient(err) {
		return false, nil
	}
	return ok, err
}

func (w *Waiter) first(loc Locator) (Element, error) {
	els, err := w.driver.FindElements(loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, ErrNoSuchElement
	}
	return els[0], nil
}

// visible waits for the first element matched by loc to be displayed, and
// enabled as well when clickable is set
func (w *Waiter) visible(loc Locator, timeout time.Duration, clickable bool) (Element, error) {
	condition := "visibility of element located by " + loc.String()
	if clickable {
		condition = "element located by " + loc.String() + " to be clickable"
	}

	var found Element
	err := w.poll(timeout, condition, func() (bool, error) {
		el, err := w.first(loc)
		if err != nil {
			return settle(false, err)
		}
		shown, err := el.IsDisplayed()
		if err != nil || !shown {
			return settle(false, err)
		}
		if clickable {
			enabled, err := el.IsEnabled()
			if err != nil || !enabled {
				return settle(false, err)
			}
		}
		found = el
		return true, nil
	})
	return found, err
}

// WaitAndInputText types text into the element once it is visible
func (w *Waiter) WaitAndInputText(loc Locator, text string, timeout time.Duration) error {
	return w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		return el.SendKeys(text)
	})
}

// WaitAndClearAndInputText replaces the element's value with text
func (w *Waiter) WaitAndClearAndInputText(loc Locator, text string, timeout time.Duration) error {
	return w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		if err := el.Clear(); err != nil {
			return err
		}
		return el.SendKeys(text)
	})
}

// WaitAndClick clicks the element once it is visible and enabled
func (w *Waiter) WaitAndClick(loc Locator, timeout time.Duration) error {
	return w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, true)
		if err != nil {
			return err
		}
		return el.Click()
	})
}

// WaitAndGetText returns the text of the element once it is visible
func (w *Waiter) WaitAndGetText(loc Locator, timeout time.Duration) (string, error) {
	var text string
	err := w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		text, err = el.Text()
		return err
	})
	return text, err
}

// WaitAndGetAttribute returns an attribute of the element once it is visible
func (w *Waiter) WaitAndGetAttribute(loc Locator, name string, timeout time.Duration) (string, error) {
	var value string
	err := w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		value, err = el.Attribute(name)
		return err
	})
	return value, err
}

// WaitUntilElementContainsText waits for the element's text to contain text
func (w *Waiter) WaitUntilElementContainsText(loc Locator, text string, timeout time.Duration) error {
	timeout = w.resolve(timeout)
	condition := fmt.Sprintf("element with locator = %s does not contain text: %q", loc, text)
	return w.poll(timeout, condition, func() (bool, error) {
		el, err := w.first(loc)
		if err != nil {
			return settle(false, err)
		}
		got, err := el.Text()
		if err != nil {
			return settle(false, err)
		}
		return strings.Contains(got, text), nil
	})
}

// WaitUntilVisible waits for target to be displayed and returns it. A
// reference that goes stale fails with ErrStaleReference rather than being
// re-resolved, since there is nothing to resolve it from.
func (w *Waiter) WaitUntilVisible(target Target, timeout time.Duration) (Element, error) {
	switch target.kind {
	case targetLocator:
		return w.visible(target.locator, timeout, false)
	case targetReference:
		if target.element == nil {
			return nil, fmt.Errorf("%w: nil element reference", ErrInvalidArgument)
		}
		err := w.poll(timeout, "visibility of "+target.String(), func() (bool, error) {
			return target.element.IsDisplayed()
		})
		if err != nil {
			return nil, err
		}
		return target.element, nil
	default:
		return nil, fmt.Errorf("%w: unknown target kind %d", ErrInvalidArgument, target.kind)
	}
}

// WaitUntilAllVisible waits for at least one element to match loc and for
// every match to be displayed
func (w *Waiter) WaitUntilAllVisible(loc Locator, timeout time.Duration) ([]Element, error) {
	var found []Element
	err := w.poll(timeout, "visibility of all elements located by "+loc.String(), func() (bool, error) {
		els, err := w.driver.FindElements(loc)
		if err != nil || len(els) == 0 {
			return settle(false, err)
		}
		for _, el := range els {
			shown, err := el.IsDisplayed()
			if err != nil || !shown {
				return settle(false, err)
			}
		}
		found = els
		return true, nil
	})
	return found, err
}

// WaitAndGetElements is WaitUntilAllVisible with a caller-supplied failure
// message. An empty msg gets a generic one.
func (w *Waiter) WaitAndGetElements(loc Locator, timeout time.Duration, msg string) ([]Element, error) {
	els, err := w.WaitUntilAllVisible(loc, timeout)
	if errors.Is(err, ErrTimeout) {
		if msg == "" {
			msg = fmt.Sprintf("unable to find elements located by %s after timeout of %s", loc, w.resolve(timeout))
		}
		return nil, fmt.Errorf("%w: %s", ErrTimeout, msg)
	}
	return els, err
}

// WaitUntilURLContains waits for the current URL to contain substr
func (w *Waiter) WaitUntilURLContains(substr string, timeout time.Duration) error {
	var last string
	err := w.poll(timeout, fmt.Sprintf("url to contain %q", substr), func() (bool, error) {
		current, err := w.driver.CurrentURL()
		if err != nil {
			return false, err
		}
		last = current
		return strings.Contains(current, substr), nil
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w (current url %q)", err, last)
	}
	return err
}

// WaitAndSelectDropdown picks an option of the dropdown at loc. mode is one of
// visible_text, index or value and is checked before the browser is touched.
func (w *Waiter) WaitAndSelectDropdown(loc Locator, value, mode string, timeout time.Duration) error {
	by, err := ParseSelectBy(mode, value)
	if err != nil {
		return err
	}
	return w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		return el.Select(by, value)
	})
}

// WaitAndGetSelectedOptionText returns the text of the selected option
func (w *Waiter) WaitAndGetSelectedOptionText(loc Locator, timeout time.Duration) (string, error) {
	var text string
	err := w.withStaleRetry(func() error {
		el, err := w.visible(loc, timeout, false)
		if err != nil {
			return err
		}
		text, err = el.SelectedOptionText()
		return err
	})
	return text, err
}

// WaitAndGetDropdownOptions reads the value attribute and text of every
// option matched by loc. Each option is re-checked by reference before it is
// read; if any goes stale the whole read starts over.
func (w *Waiter) WaitAndGetDropdownOptions(loc Locator, valueAttr string, timeout time.Duration) ([]Option, error) {
	if valueAttr == "" {
		valueAttr = "value"
	}

	var options []Option
	err := w.withStaleRetry(func() error {
		els, err := w.WaitUntilAllVisible(loc, timeout)
		if err != nil {
			return err
		}

		read := make([]Option, 0, len(els))
		for _, el := range els {
			if _, err := w.WaitUntilVisible(ByReference(el), timeout); err != nil {
				return err
			}
			value, err := el.Attribute(valueAttr)
			if err != nil {
				return err
			}
			text, err := el.Text()
			if err != nil {
				return err
			}
			read = append(read, Option{Value: value, Text: text})
		}
		options = read
		return nil
	})
	return options, err
}

// Exists reports whether an element matched by loc becomes visible within
// timeout. Only a timeout counts as "no".
func (w *Waiter) Exists(loc Locator, timeout time.Duration) (bool, error) {
	_, err := w.visible(loc, timeout, false)
	if errors.Is(err, ErrTimeout) {
		return false, nil
	}
	return err == nil, err
}

// IsDisplayed checks loc once without waiting
func (w *Waiter) IsDisplayed(loc Locator) (bool, error) {
	el, err := w.first(loc)
	if err != nil {
		return settle(false, err)
	}
	return settle(el.IsDisplayed())
}
