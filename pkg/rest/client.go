// Package rest is the one-shot HTTP side of the Concord API: the bootstrap
// calls the gateway needs before dialing, plus guild/channel/message CRUD.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/concordhq/concord-go/pkg/token"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.concord.gg/v1"

const userAgent = "concord-go (github.com/concordhq/concord-go)"

// Client is a Concord REST API client. The zero value is not usable; build
// one with New.
type Client struct {
	base    string
	token   token.Provider
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option mutates a Client during New.
type Option func(*Client)

// WithBaseURL points the client at a non-default API root (test servers,
// staging).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.base = u }
}

// WithHTTPClient supplies the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger supplies the structured logger; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRateLimit overrides the global request limiter. rps <= 0 disables
// client-side limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a REST client authenticating with the given token provider.
func New(tok token.Provider, opts ...Option) *Client {
	c := &Client{
		base:  DefaultBaseURL,
		token: tok,
		http:  &http.Client{Timeout: 30 * time.Second},
		// Spread steady-state traffic at 50 req/s with headroom for bursts;
		// hard 429s from the server still surface as *Error.
		limiter: rate.NewLimiter(rate.Limit(50), 10),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx API response.
type Error struct {
	Status     int           `json:"-"`
	Code       int           `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
	RetryAfter time.Duration `json:"-"` // set on 429 responses
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rest: %d %s (code %d)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("rest: unexpected status %d", e.Status)
}

// RateLimited reports whether the request was rejected with 429.
func (e *Error) RateLimited() bool { return e.Status == http.StatusTooManyRequests }

// do performs one request and decodes a JSON response into out (skipped when
// out is nil). The client never retries: failures propagate to the caller.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: encode body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token.Authorization())
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) apiError(method, path string, resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if len(data) > 0 {
		json.Unmarshal(data, apiErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.ParseFloat(ra, 64); err == nil {
				apiErr.RetryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		c.log.Warn("rest: rate limited", "method", method, "path", path, "retry_after", apiErr.RetryAfter)
	} else {
		c.log.Debug("rest: api error", "method", method, "path", path, "status", resp.StatusCode)
	}
	return apiErr
}
