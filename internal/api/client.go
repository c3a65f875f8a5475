// Package api is the WooCommerce REST (wc/v3) fixture client tests use to
// create, read and clean up store data and as the oracle for UI assertions.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/oauth1"
)

// Version is the REST namespace the client talks to
const Version = "wc/v3"

// ErrUnexpectedStatus is returned when a call answers with another status
// than the one the fixture expects
var ErrUnexpectedStatus = errors.New("unexpected status code")

// ErrNotFound is returned when a lookup matches nothing
var ErrNotFound = errors.New("not found")

// Resource is a store record as the API returns it, keyed by field name
type Resource map[string]any

// ID returns the numeric id field, 0 when absent
func (r Resource) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// String returns a string field, "" when absent
func (r Resource) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// HTTPClient calls the WooCommerce REST API. HTTPS requests use basic auth
// with the consumer key and secret; plain HTTP requests are OAuth 1.0a signed.
type HTTPClient struct {
	baseURL    *url.URL
	config     *config.APIConfig
	signer     *oauth1.Signer
	httpClient *http.Client
	validate   *validator.Validate
}

// NewClient creates a REST client for the store at baseURL
func NewClient(baseURL string, cfg *config.APIConfig) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{
		baseURL:    u,
		config:     cfg,
		signer:     oauth1.NewSigner(cfg.Key, cfg.Secret),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// endpoint builds the URL of a resource path such as "products/reviews"
func (c *HTTPClient) endpoint(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/wp-json/" + Version + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return &u
}

// do sends one request and decodes the JSON answer into out. A status other
// than want fails with ErrUnexpectedStatus and the response body.
func (c *HTTPClient) do(method, path string, query url.Values, payload any, want int, out any) error {
	var body io.Reader
	if payload != nil {
		// Resource payloads are partial updates and go out as given
		if _, partial := payload.(Resource); !partial {
			if err := c.validate.Struct(payload); err != nil {
				return fmt.Errorf("invalid %s %s payload: %w", method, path, err)
			}
		}
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	u := c.endpoint(path, query)
	if u.Scheme == "http" {
		u = c.signer.Sign(method, u)
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.Scheme == "https" {
		req.SetBasicAuth(c.config.Key, c.config.Secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		log.Printf("REST API error (%s %s, status %d): %s", method, path, resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: %s %s returned %d, expected %d. Response: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, want, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
