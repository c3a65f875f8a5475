package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ssqa/storefront/internal/auth"
	"github.com/ssqa/storefront/internal/browser"
	"github.com/ssqa/storefront/internal/browser/testutil"
)

// newLoginServer mimics wp-login.php: good credentials get auth cookies and a
// redirect to the account page, bad ones get the login form again
func newLoginServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Write([]byte(`<form id="loginform"></form>`))
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "Mozilla/5.0 (selenium-test)" {
			t.Errorf("unexpected user agent %q", ua)
		}
		if r.FormValue("wp-submit") != "Log In" || r.FormValue("log") != "shopper" || r.FormValue("pwd") != "secret" {
			http.Redirect(w, r, "/wp-login.php?login=failed", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "wordpress_test_cookie", Value: "WP Cookie check", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "wordpress_logged_in_abc", Value: "shopper|123", Path: "/", Expires: time.Now().Add(48 * time.Hour), HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "wp_lang", Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, "/my-account/", http.StatusFound)
	})
	mux.HandleFunc("/my-account/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "woocommerce_session", Value: "s1"})
		w.Write([]byte("Dashboard"))
	})
	mux.HandleFunc("/broken/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAndInjectCookies(t *testing.T) {
	// GIVEN
	srv := newLoginServer(t)
	d := testutil.NewFakeDriver()
	s := browser.NewSession(d, srv.URL)

	// WHEN
	err := auth.LoginAndInjectCookies(srv.URL+"/", "shopper", "secret", s)

	// THEN
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{srv.URL}, d.Navigations); diff != "" {
		t.Errorf("expected the browser to open the base URL first (-want +got):\n%s", diff)
	}
	var names []string
	for _, c := range d.Jar {
		names = append(names, c.Name)
		if c.Path == "" {
			t.Errorf("cookie %s has no path", c.Name)
		}
	}
	want := []string{"wordpress_test_cookie", "wordpress_logged_in_abc", "woocommerce_session"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("injected cookies mismatch (-want +got):\n%s", diff)
	}
	if d.Jar[1].Expires.IsZero() {
		t.Error("expected the auth cookie to keep its expiry")
	}
	if d.Jar[2].Path != "/" {
		t.Errorf("expected a default path of /, got %q", d.Jar[2].Path)
	}
}

func TestLoginAndInjectCookiesBadCredentials(t *testing.T) {
	// GIVEN
	srv := newLoginServer(t)
	d := testutil.NewFakeDriver()
	s := browser.NewSession(d, srv.URL)

	// WHEN
	err := auth.LoginAndInjectCookies(srv.URL, "shopper", "wrong", s)

	// THEN
	if !errors.Is(err, auth.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), `"shopper"`) {
		t.Errorf("expected the username in the error, got %v", err)
	}
	if len(d.Navigations) != 0 || len(d.Jar) != 0 {
		t.Errorf("expected the browser untouched, got navigations %q and %d cookies", d.Navigations, len(d.Jar))
	}
}

func TestLoginAndInjectCookiesServerError(t *testing.T) {
	// GIVEN
	srv := newLoginServer(t)
	s := browser.NewSession(testutil.NewFakeDriver(), srv.URL)

	// WHEN
	err := auth.LoginAndInjectCookies(srv.URL+"/broken", "shopper", "secret", s)

	// THEN
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestLoginAndInjectCookiesInjectionFailures(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		reject  string
		wantErr bool
	}{
		{"non auth cookie is skipped", "", "woocommerce_session", false},
		{"auth cookie fails", "", "wordpress_logged_in_abc", true},
		{"custom prefix", "woocommerce_", "woocommerce_session", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a browser that refuses one cookie
			srv := newLoginServer(t)
			d := testutil.NewFakeDriver()
			d.AddCookieFunc = func(c *http.Cookie) error {
				if c.Name == tt.reject {
					return errors.New("invalid cookie domain")
				}
				return nil
			}
			s := browser.NewSession(d, srv.URL)
			var opts []auth.Option
			if tt.prefix != "" {
				opts = append(opts, auth.WithAuthCookiePrefix(tt.prefix))
			}

			// WHEN
			err := auth.LoginAndInjectCookies(srv.URL, "shopper", "secret", s, opts...)

			// THEN
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.reject) {
				t.Errorf("expected the cookie name in the error, got %v", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	// GIVEN
	srv := newLoginServer(t)

	// WHEN
	cookies, err := auth.Login(srv.URL+"/", "shopper", "secret")

	// THEN
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	want := []string{"wordpress_test_cookie", "wordpress_logged_in_abc", "woocommerce_session"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("cookies mismatch (-want +got):\n%s", diff)
	}

	if _, err := auth.Login(srv.URL, "shopper", "wrong"); !errors.Is(err, auth.ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestLoginAndInjectCookiesSameNameOnTwoPaths(t *testing.T) {
	// GIVEN a login that sets wordpress_abc for the plugins and admin paths
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-login.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "wordpress_abc", Value: "plugins", Path: "/wp-content/plugins", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "wordpress_abc", Value: "admin", Path: "/wp-admin", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "wordpress_logged_in_abc", Value: "shopper|123", Path: "/"})
		http.Redirect(w, r, "/my-account/", http.StatusFound)
	})
	mux.HandleFunc("/my-account/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Dashboard"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	d := testutil.NewFakeDriver()
	s := browser.NewSession(d, srv.URL)

	// WHEN
	err := auth.LoginAndInjectCookies(srv.URL, "shopper", "secret", s)

	// THEN every cookie is injected on its own path
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, c := range d.Jar {
		got = append(got, c.Name+" "+c.Path+" "+c.Value)
	}
	want := []string{
		"wordpress_abc /wp-content/plugins plugins",
		"wordpress_abc /wp-admin admin",
		"wordpress_logged_in_abc / shopper|123",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("injected cookies mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginIgnoresCookiesFromOtherHosts(t *testing.T) {
	// GIVEN a login whose redirect chain passes through another host
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "tracker", Value: "x", Path: "/"})
		w.Write([]byte("Dashboard"))
	}))
	defer other.Close()
	otherURL := strings.Replace(other.URL, "127.0.0.1", "localhost", 1)

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "wordpress_logged_in_abc", Value: "shopper|123", Path: "/"})
		http.Redirect(w, r, otherURL+"/my-account/", http.StatusFound)
	}))
	defer store.Close()

	// WHEN
	cookies, err := auth.Login(store.URL, "shopper", "secret")

	// THEN
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"wordpress_logged_in_abc"}, names); diff != "" {
		t.Errorf("cookies mismatch (-want +got):\n%s", diff)
	}
}
