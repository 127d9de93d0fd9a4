// Package shortener wraps the third-party ad-network link shortener.
// The shortener monetizes the verification link: the user watches a
// sponsored page before being redirected to the original URL.
package shortener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/adflow/filegate/pkg/slogx"
)

const DefaultAPIURL = "https://adrinolinks.in/api"

// Client calls the shortener HTTP API. Ad-network unavailability must
// never block token issuance, so Shorten degrades to the original URL
// on any failure.
type Client struct {
	APIURL     string
	APIKey     string
	HTTPClient *http.Client
}

// New returns a Client with the given API endpoint and key. An empty
// key disables shortening entirely. The timeout bounds the whole
// round-trip; the shortener is on the issuance path and must not hold
// the caller hostage.
func New(apiURL, apiKey string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIURL:     apiURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.APIKey != "" }

type shortenResponse struct {
	ShortenedURL string `json:"shortenedUrl"`
	Status       string `json:"status,omitempty"`
}

// Shorten submits longURL to the shortener and returns the shortened
// URL. On any failure (disabled, network error, timeout, non-2xx,
// unexpected body) it returns longURL unchanged.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if !c.Enabled() {
		return longURL
	}

	log := slogx.FromContext(ctx)

	q := url.Values{}
	q.Set("api", c.APIKey)
	q.Set("url", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		log.Warn("shortener request build failed, using long url", "err", err)
		return longURL
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Warn("shortener call failed, using long url", "err", err)
		return longURL
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("shortener returned non-2xx, using long url", "status", resp.StatusCode)
		return longURL
	}

	var body shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.ShortenedURL == "" {
		log.Warn("shortener returned unexpected body, using long url", "err", err)
		return longURL
	}

	return body.ShortenedURL
}
