// Package testutil provides an in-memory browser.Driver for unit tests.
package testutil

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/ssqa/storefront/internal/browser"
)

// FakeDriver is a scripted browser. Elements are registered per locator and
// returned in registration order.
type FakeDriver struct {
	mu sync.Mutex

	URL         string
	Elements    map[browser.Locator][]*FakeElement
	Navigations []string
	Finds       map[browser.Locator]int
	Scripts     []string
	Jar         []*http.Cookie
	Alert       string
	AlertOpen   bool
	PNG         []byte
	Closed      bool

	// Optional hooks; nil means default behaviour
	NavigateFunc  func(url string) error
	AddCookieFunc func(c *http.Cookie) error
	ScriptFunc    func(script string, arg any) (any, error)
	ScreenshotErr error
}

// NewFakeDriver returns an empty fake browser on about:blank
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		URL:      "about:blank",
		Elements: map[browser.Locator][]*FakeElement{},
		Finds:    map[browser.Locator]int{},
		PNG:      []byte("\x89PNG fake"),
	}
}

// Add registers elements under loc and returns the first one
func (d *FakeDriver) Add(loc browser.Locator, els ...*FakeElement) *FakeElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Elements[loc] = append(d.Elements[loc], els...)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// Remove drops every element registered under loc
func (d *FakeDriver) Remove(loc browser.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.Elements, loc)
}

// SetURL changes the current URL without recording a navigation
func (d *FakeDriver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.URL = url
}

// FindCount returns how many times loc was looked up
func (d *FakeDriver) FindCount(loc browser.Locator) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Finds[loc]
}

// Navigate records url and runs NavigateFunc
func (d *FakeDriver) Navigate(url string) error {
	d.mu.Lock()
	hook := d.NavigateFunc
	d.Navigations = append(d.Navigations, url)
	d.URL = url
	d.mu.Unlock()
	if hook != nil {
		return hook(url)
	}
	return nil
}

// CurrentURL returns the last navigated URL
func (d *FakeDriver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.URL, nil
}

// FindElements returns the elements registered for loc and counts the lookup
func (d *FakeDriver) FindElements(loc browser.Locator) ([]browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Finds[loc]++
	return asElements(d.Elements[loc]), nil
}

// ExecuteScript records script and runs ScriptFunc
func (d *FakeDriver) ExecuteScript(script string, arg any) (any, error) {
	d.mu.Lock()
	d.Scripts = append(d.Scripts, script)
	hook := d.ScriptFunc
	d.mu.Unlock()
	if hook != nil {
		return hook(script, arg)
	}
	return nil, nil
}

// Cookies returns a copy of the jar
func (d *FakeDriver) Cookies() ([]*http.Cookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*http.Cookie(nil), d.Jar...), nil
}

// AddCookie runs AddCookieFunc, then adds c to the jar
func (d *FakeDriver) AddCookie(c *http.Cookie) error {
	if d.AddCookieFunc != nil {
		if err := d.AddCookieFunc(c); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Jar = append(d.Jar, c)
	return nil
}

// Screenshot returns PNG or ScreenshotErr
func (d *FakeDriver) Screenshot() ([]byte, error) {
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	return d.PNG, nil
}

// AlertText returns the open alert text, ErrNoAlert when none is open
func (d *FakeDriver) AlertText() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.AlertOpen {
		return "", browser.ErrNoAlert
	}
	return d.Alert, nil
}

// AcceptAlert closes the open alert
func (d *FakeDriver) AcceptAlert() error { return d.closeAlert() }

// DismissAlert closes the open alert
func (d *FakeDriver) DismissAlert() error { return d.closeAlert() }

func (d *FakeDriver) closeAlert() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.AlertOpen {
		return browser.ErrNoAlert
	}
	d.AlertOpen = false
	return nil
}

// Quit marks the driver closed
func (d *FakeDriver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
	return nil
}

// FakeElement is a scripted DOM node
type FakeElement struct {
	mu sync.Mutex

	Label    string
	TextVal  string
	Attrs    map[string]string
	Hidden   bool
	Disabled bool
	Children map[browser.Locator][]*FakeElement

	// Options and Selected model a <select>
	Options  []*FakeElement
	Selected int

	// ShowAfter makes the element report hidden for that many display checks
	ShowAfter int
	// HideAfter makes the element disappear after that many display checks
	HideAfter int
	// StaleActions makes that many upcoming actions fail as stale
	StaleActions int
	// StaleChecks makes that many upcoming display checks fail as stale
	StaleChecks int

	Typed   []string
	Clicks  int
	OnClick func() error
}

// NewElement returns a visible element with text
func NewElement(text string) *FakeElement {
	return &FakeElement{TextVal: text, Attrs: map[string]string{}}
}

// WithAttr sets an attribute and returns e
func (e *FakeElement) WithAttr(name, value string) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[name] = value
	return e
}

// NewSelect returns a <select> with one option per (value, text) pair
func NewSelect(pairs ...[2]string) *FakeElement {
	sel := NewElement("")
	for _, p := range pairs {
		sel.Options = append(sel.Options, NewElement(p[1]).WithAttr("value", p[0]))
	}
	return sel
}

// SetHidden toggles visibility
func (e *FakeElement) SetHidden(hidden bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Hidden = hidden
}

// SetText replaces the element's text
func (e *FakeElement) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TextVal = text
}

// ClickCount returns how many clicks succeeded
func (e *FakeElement) ClickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Clicks
}

// String returns Label, or a description built from the text
func (e *FakeElement) String() string {
	if e.Label != "" {
		return e.Label
	}
	return fmt.Sprintf("fake element %q", e.TextVal)
}

// action consumes one injected staleness, if any
func (e *FakeElement) action() error {
	if e.StaleActions > 0 {
		e.StaleActions--
		return fmt.Errorf("%w: %s", browser.ErrStaleReference, e)
	}
	return nil
}

// Click counts the click and runs OnClick
func (e *FakeElement) Click() error {
	e.mu.Lock()
	if err := e.action(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.Clicks++
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		return hook()
	}
	return nil
}

// SendKeys appends text to the value attribute
func (e *FakeElement) SendKeys(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return err
	}
	e.Typed = append(e.Typed, text)
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs["value"] += text
	return nil
}

// Clear empties the value attribute
func (e *FakeElement) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return err
	}
	if e.Attrs != nil {
		e.Attrs["value"] = ""
	}
	return nil
}

// Text returns "" while the element is hidden
func (e *FakeElement) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return "", err
	}
	if e.Hidden {
		return "", nil
	}
	return e.TextVal, nil
}

// Attribute returns the named attribute
func (e *FakeElement) Attribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

// IsDisplayed applies StaleChecks, ShowAfter and HideAfter before Hidden
func (e *FakeElement) IsDisplayed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.StaleChecks > 0 {
		e.StaleChecks--
		return false, fmt.Errorf("%w: %s", browser.ErrStaleReference, e)
	}
	if e.ShowAfter > 0 {
		e.ShowAfter--
		return false, nil
	}
	if e.HideAfter > 0 {
		e.HideAfter--
		if e.HideAfter == 0 {
			e.Hidden = true
		}
		return true, nil
	}
	return !e.Hidden, nil
}

// IsEnabled reports !Disabled
func (e *FakeElement) IsEnabled() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Disabled, nil
}

// FindElements returns the children registered for loc
func (e *FakeElement) FindElements(loc browser.Locator) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return asElements(e.Children[loc]), nil
}

// AddChild registers children of e under loc
func (e *FakeElement) AddChild(loc browser.Locator, children ...*FakeElement) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Children == nil {
		e.Children = map[browser.Locator][]*FakeElement{}
	}
	e.Children[loc] = append(e.Children[loc], children...)
	return e
}

// Select picks one of Options
func (e *FakeElement) Select(by browser.SelectBy, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return err
	}
	for i, opt := range e.Options {
		var match bool
		switch by {
		case browser.SelectByVisibleText:
			match = opt.TextVal == value
		case browser.SelectByValue:
			match = opt.Attrs["value"] == value
		case browser.SelectByIndex:
			match = strconv.Itoa(i) == value
		}
		if match {
			e.Selected = i
			return nil
		}
	}
	return fmt.Errorf("%w: cannot locate option %s %q", browser.ErrNoSuchElement, by, value)
}

// SelectedOptionText returns the text of the selected option
func (e *FakeElement) SelectedOptionText() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.action(); err != nil {
		return "", err
	}
	if e.Selected < 0 || e.Selected >= len(e.Options) {
		return "", fmt.Errorf("%w: no option selected", browser.ErrNoSuchElement)
	}
	return e.Options[e.Selected].TextVal, nil
}

func asElements(fakes []*FakeElement) []browser.Element {
	els := make([]browser.Element, 0, len(fakes))
	for _, f := range fakes {
		els = append(els, f)
	}
	return els
}
