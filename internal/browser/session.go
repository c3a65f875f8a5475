package browser

import "strings"

// Session is one live browser bound to a storefront. It is created once per
// suite and owned exclusively by it.
type Session struct {
	Driver
	BaseURL string
	wait    *Waiter
}

// NewSession wraps driver for the storefront at baseURL
func NewSession(driver Driver, baseURL string, opts ...WaitOption) *Session {
	return &Session{
		Driver:  driver,
		BaseURL: strings.TrimRight(baseURL, "/"),
		wait:    NewWaiter(driver, opts...),
	}
}

// Wait returns the session's Waiter
func (s *Session) Wait() *Waiter {
	return s.wait
}

// URL joins path onto the base URL
func (s *Session) URL(path string) string {
	if path == "" {
		return s.BaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.BaseURL + path
}

// Open navigates to path under the base URL
func (s *Session) Open(path string) error {
	return s.Navigate(s.URL(path))
}

// Close shuts the browser down
func (s *Session) Close() error {
	return s.Quit()
}
