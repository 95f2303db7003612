// Package api implements the coub.com v2 API client: per-item metadata and
// the paginated timeline/search endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://coub.com/api/v2"

// ViewURLPrefix is the public link prefix for a single item. Any token
// containing it is treated as an item reference.
const ViewURLPrefix = "https://coub.com/view/"

var (
	// ErrItemUnavailable indicates the API reported the item as missing.
	ErrItemUnavailable = errors.New("item unavailable")
)

// HTTPStatusError indicates a non-200 API response.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("api http status=%d", e.StatusCode)
}

// Config controls API client behavior.
type Config struct {
	BaseURL        string
	HTTPClient     *http.Client
	MaxRetries     int // <0 retries indefinitely
	InitialBackoff time.Duration
}

// Client talks to the platform API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
		retries: cfg.MaxRetries,
		backoff: cfg.InitialBackoff,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.backoff <= 0 {
		c.backoff = 500 * time.Millisecond
	}
	return c
}

// getJSON fetches rawURL and decodes the body into dst, retrying transport
// failures and retryable status codes up to the configured count.
func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	var lastErr error
	for attempt := 0; c.retries < 0 || attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.backoff); err != nil {
				return err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		body, err := func() ([]byte, error) {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
			}
			return io.ReadAll(resp.Body)
		}()
		if err != nil {
			lastErr = err
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) && !retryableStatus(statusErr.StatusCode) {
				return err
			}
			continue
		}
		if err := json.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("decode api response: %w", err)
		}
		return nil
	}
	return lastErr
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPClient exposes the underlying transport so stream downloads share
// the same connection pool as API calls.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
