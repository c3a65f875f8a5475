package browser

import "net/http"

// Driver is the set of browser capabilities the suite depends on. Methods that
// touch an element must report a detached element as ErrStaleReference.
type Driver interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	// FindElements returns every element matching loc, or an empty slice
	FindElements(loc Locator) ([]Element, error)
	// ExecuteScript evaluates a JavaScript function expression with arg as its
	// only parameter. arg may be an Element.
	ExecuteScript(script string, arg any) (any, error)
	Cookies() ([]*http.Cookie, error)
	// AddCookie sets a cookie for the domain of the current page
	AddCookie(cookie *http.Cookie) error
	Screenshot() ([]byte, error)
	AlertText() (string, error)
	AcceptAlert() error
	DismissAlert() error
	Quit() error
}

// Element is a reference to a node in the current page. References go stale
// whenever the page re-renders, so they are looked up right before use.
type Element interface {
	Click() error
	SendKeys(text string) error
	Clear() error
	Text() (string, error)
	// Attribute returns the named attribute or DOM property, "" when absent
	Attribute(name string) (string, error)
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	FindElements(loc Locator) ([]Element, error)
	// Select picks an option of a <select> element
	Select(by SelectBy, value string) error
	SelectedOptionText() (string, error)
}
