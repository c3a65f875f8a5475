package handlers

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// Cookie name prefixes; each is followed by the site cookie hash
const (
	cartCookiePrefix      = "wp_woocommerce_session_"
	authCookiePrefix      = "wordpress_"
	loginCookiePrefix     = "wordpress_logged_in_"
	commenterCookiePrefix = "comment_author_email_"
)

// commenterCookieAge is how long a consenting reviewer is remembered
const commenterCookieAge = 365 * 24 * time.Hour

// Sessions reads and writes the signed storefront cookies: the cart, the
// signed in customer and the remembered reviewer
type Sessions struct {
	codec *securecookie.SecureCookie
	hash  string
}

// NewSessions creates the cookie codec. An empty hashKey gets a random key,
// which signs everyone out on restart.
func NewSessions(hashKey []byte) *Sessions {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	sum := md5.Sum(hashKey)
	return &Sessions{
		codec: securecookie.New(hashKey, nil),
		hash:  hex.EncodeToString(sum[:]),
	}
}

func (s *Sessions) read(r *http.Request, name string, dst any) bool {
	c, err := r.Cookie(name)
	if err != nil {
		return false
	}
	return s.codec.Decode(name, c.Value, dst) == nil
}

func (s *Sessions) write(w http.ResponseWriter, name string, value any, maxAge time.Duration) {
	encoded, err := s.codec.Encode(name, value)
	if err != nil {
		return
	}
	c := &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, c)
}

func (s *Sessions) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}

// LoginCookieName is the cookie that marks a signed in customer
func (s *Sessions) LoginCookieName() string {
	return loginCookiePrefix + s.hash
}

// CartID returns the shopper's cart id, "" when there is none yet
func (s *Sessions) CartID(r *http.Request) string {
	var id string
	s.read(r, cartCookiePrefix+s.hash, &id)
	return id
}

// SetCart remembers the cart id in a session cookie
func (s *Sessions) SetCart(w http.ResponseWriter, id string) {
	s.write(w, cartCookiePrefix+s.hash, id, 0)
}

// CustomerID returns the signed in customer, 0 when signed out
func (s *Sessions) CustomerID(r *http.Request) int64 {
	var id int64
	if !s.read(r, s.LoginCookieName(), &id) {
		return 0
	}
	return id
}

// SignIn sets the auth and logged-in cookies for the customer
func (s *Sessions) SignIn(w http.ResponseWriter, customerID int64) {
	s.write(w, authCookiePrefix+s.hash, customerID, 0)
	s.write(w, s.LoginCookieName(), customerID, 0)
}

// SignOut clears the auth and logged in cookies
func (s *Sessions) SignOut(w http.ResponseWriter) {
	s.clear(w, authCookiePrefix+s.hash)
	s.clear(w, s.LoginCookieName())
}

// Commenter returns the remembered reviewer key, "" when there is none
func (s *Sessions) Commenter(r *http.Request) string {
	var key string
	s.read(r, commenterCookiePrefix+s.hash, &key)
	return key
}

// RememberCommenter keeps the reviewer for the browser session, or for a
// year when remember is set
func (s *Sessions) RememberCommenter(w http.ResponseWriter, key string, remember bool) {
	var age time.Duration
	if remember {
		age = commenterCookieAge
	}
	s.write(w, commenterCookiePrefix+s.hash, key, age)
}
