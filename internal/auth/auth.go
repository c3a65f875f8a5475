// Package auth logs a customer in over plain HTTP and hands the resulting
// session cookies to a browser, so tests can start signed in without driving
// the login form.
package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/ssqa/storefront/internal/browser"
)

// ErrAuthenticationFailed is returned when the login form is shown again
// after posting credentials
var ErrAuthenticationFailed = errors.New("authentication failed")

const (
	loginPath      = "/wp-login.php"
	userAgent      = "Mozilla/5.0 (selenium-test)"
	requestTimeout = 15 * time.Second

	// DefaultAuthCookiePrefix marks the cookies a signed in session needs
	DefaultAuthCookiePrefix = "wordpress_"
)

type options struct {
	authCookiePrefix string
	transport        http.RoundTripper
}

// Option configures Login and LoginAndInjectCookies
type Option func(*options)

// WithAuthCookiePrefix changes which cookie names count as authentication
// cookies. Failing to inject one of those is an error.
func WithAuthCookiePrefix(prefix string) Option {
	return func(o *options) {
		o.authCookiePrefix = prefix
	}
}

// WithTransport sets the transport of the login client
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// LoginAndInjectCookies posts username and password to the storefront's
// login form with its own HTTP client, then copies every cookie the exchange
// set into the browser session. The browser is first sent to baseURL so the
// cookies land on the storefront's domain.
func LoginAndInjectCookies(baseURL, username, password string, s *browser.Session, opts ...Option) error {
	o := newOptions(opts)
	baseURL = strings.TrimRight(baseURL, "/")

	cookies, err := login(baseURL, username, password, o.transport)
	if err != nil {
		return err
	}

	if err := s.Navigate(baseURL); err != nil {
		return fmt.Errorf("failed to open %s before injecting cookies: %w", baseURL, err)
	}

	for _, c := range cookies {
		injected := &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
			Secure:  c.Secure,
		}
		if injected.Path == "" {
			injected.Path = "/"
		}
		if err := s.AddCookie(injected); err != nil {
			if strings.HasPrefix(c.Name, o.authCookiePrefix) {
				return fmt.Errorf("failed to inject auth cookie %s: %w", c.Name, err)
			}
			log.Printf("Skipping cookie %s: %v", c.Name, err)
		}
	}
	return nil
}

func newOptions(opts []Option) options {
	o := options{authCookiePrefix: DefaultAuthCookiePrefix, transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Login signs in over HTTP only and returns the cookies the storefront set
func Login(baseURL, username, password string, opts ...Option) ([]*http.Cookie, error) {
	o := newOptions(opts)
	return login(strings.TrimRight(baseURL, "/"), username, password, o.transport)
}

// login performs the form post and returns the cookies still alive at the end
// of the redirect chain, in the order they were first set
func login(baseURL, username, password string, transport http.RoundTripper) ([]*http.Cookie, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	form := url.Values{
		"log":       {username},
		"pwd":       {password},
		"wp-submit": {"Log In"},
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	rec := &recorder{next: transport, host: req.URL.Hostname()}
	client := &http.Client{Jar: jar, Transport: rec, Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("login request to %s returned status %d", req.URL, resp.StatusCode)
	}
	if strings.Contains(resp.Request.URL.String(), "wp-login.php") {
		return nil, fmt.Errorf("%w: final URL is still wp-login.php, check credentials for user %q", ErrAuthenticationFailed, username)
	}
	return rec.alive(time.Now()), nil
}

// recorder keeps the full Set-Cookie attributes the jar discards. Cookies
// are told apart by domain, path and name, as a cookie jar does, and only
// those set by host are kept.
type recorder struct {
	next http.RoundTripper
	host string

	mu      sync.Mutex
	order   []cookieKey
	cookies map[cookieKey]*http.Cookie
}

type cookieKey struct {
	domain, path, name string
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := r.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(req.URL.Hostname(), r.host) {
		return resp, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cookies == nil {
		r.cookies = map[cookieKey]*http.Cookie{}
	}
	for _, c := range resp.Cookies() {
		key := cookieKey{
			domain: strings.ToLower(strings.TrimPrefix(c.Domain, ".")),
			path:   c.Path,
			name:   c.Name,
		}
		if key.domain == "" {
			key.domain = strings.ToLower(r.host)
		}
		if key.path == "" {
			key.path = "/"
		}
		if _, seen := r.cookies[key]; !seen {
			r.order = append(r.order, key)
		}
		r.cookies[key] = c
	}
	return resp, nil
}

// alive drops cookies the server deleted again
func (r *recorder) alive(now time.Time) []*http.Cookie {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*http.Cookie
	for _, key := range r.order {
		c := r.cookies[key]
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			continue
		}
		out = append(out, c)
	}
	return out
}
