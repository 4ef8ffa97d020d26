package crux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production CRUX Finance API.
const DefaultBaseURL = "https://api.cruxfinance.io"

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultRPM        = 100
	defaultBurst      = 10

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20
)

// Config holds client construction parameters. Zero fields take the
// documented defaults.
type Config struct {
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// Timeout bounds a single attempt, not the whole retried call.
	Timeout time.Duration
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// RetryDelay is the base backoff, doubled per attempt plus 10% jitter.
	RetryDelay time.Duration
	// RPM and Burst parameterize the client-side token bucket.
	RPM   int
	Burst int

	Log        *slog.Logger
	HTTPClient *http.Client
}

// Client talks to the CRUX Finance API. Calls are rate limited by a shared
// token bucket and retried on transient failures with exponential backoff.
// The client is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	log        *slog.Logger
}

// New creates a Client, filling unset Config fields with defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.RPM <= 0 {
		cfg.RPM = defaultRPM
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		http:       cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        cfg.Log,
	}
}

// get issues a rate-limited GET against path, retrying transient failures,
// and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	reqID := gonanoid.Must(8)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("crux: rate limiter: %w", err)
		}

		body, err := c.doOnce(ctx, u)
		if err == nil {
			if uerr := json.Unmarshal(body, out); uerr != nil {
				return &Error{Kind: ErrDecode, URL: u, Message: uerr.Error()}
			}
			c.log.Debug("crux request ok",
				slog.String("request_id", reqID),
				slog.String("url", u),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if attempt > c.maxRetries || !retryable(err) {
			break
		}

		delay := c.backoff(attempt, err)
		c.log.Warn("crux request failed, retrying",
			slog.String("request_id", reqID),
			slog.String("url", u),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	c.log.Error("crux request failed",
		slog.String("request_id", reqID),
		slog.String("url", u),
		slog.Any("error", lastErr))
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("crux: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crux: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("crux: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp, body)
	}
	return body, nil
}

// backoff computes the pause before the next attempt: exponential from the
// base delay with 10% jitter, overridden by an upstream Retry-After hint.
func (c *Client) backoff(attempt int, err error) time.Duration {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	d := c.retryDelay << (attempt - 1)
	return d + rand.N(d/10+1)
}
