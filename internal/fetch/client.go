// Package fetch performs classified, retried HTTP fetches of profile and
// search pages. Pacing between items belongs to the orchestrator; a Client
// holds no per-call state beyond its configuration.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoopmetrics/enrich/internal/proxy"
	"github.com/hoopmetrics/enrich/internal/retry"
)

// maxBodyBytes caps how much of a response body is read. Profile pages are
// well under this; anything larger is not worth parsing.
const maxBodyBytes = 4 << 20

// Limiter gates requests by URL. Satisfied by *ratelimit.DomainLimiter.
type Limiter interface {
	Wait(ctx context.Context, urlStr string) error
}

// Response is the raw content of a successful fetch.
type Response struct {
	URL        string
	StatusCode int
	Body       string
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Referer   string
	Retry     retry.Config
	Proxies   *proxy.Pool
	Limiter   Limiter
}

// Client fetches pages with browser-like headers, a per-attempt timeout, and
// exponential backoff on 429/5xx.
type Client struct {
	client    *http.Client
	transport *http.Transport
	timeout   time.Duration
	userAgent string
	referer   string
	retryCfg  retry.Config
	proxies   *proxy.Pool
	limiter   Limiter
}

// New creates a Client with connection reuse enabled.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client:    &http.Client{Transport: transport},
		transport: transport,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		referer:   opts.Referer,
		retryCfg:  opts.Retry,
		proxies:   opts.Proxies,
		limiter:   opts.Limiter,
	}
}

// FetchText retrieves a URL and returns its body. Non-2xx responses come
// back as (*Response, *HTTPError) so callers can classify the failure; 429
// and 5xx are retried with backoff before that error is surfaced.
func (c *Client) FetchText(ctx context.Context, rawURL string) (*Response, error) {
	var resp *Response

	err := retry.WithRetry(ctx, c.retryCfg, func() error {
		var attemptErr error
		resp, attemptErr = c.fetchOnce(ctx, rawURL)
		return attemptErr
	})
	if err != nil {
		return resp, err
	}
	return resp, nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*Response, error) {
	// The per-host ceiling applies to every attempt, retries included. The
	// wait runs against the caller's context, not the attempt timeout.
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit wait aborted: %w", err)
		}
	}

	start := time.Now()

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers reduce trivial blocking.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	proxyURL := c.applyProxy()

	httpResp, err := c.client.Do(req)
	if err != nil {
		if proxyURL != "" {
			c.proxies.MarkFailed(proxyURL)
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	resp := &Response{
		URL:        rawURL,
		StatusCode: httpResp.StatusCode,
		Body:       string(body),
	}

	log.Debug().
		Str("url", rawURL).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetch completed")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return resp, &HTTPError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			URL:        rawURL,
		}
	}

	if proxyURL != "" {
		c.proxies.MarkHealthy(proxyURL)
	}
	return resp, nil
}

// applyProxy points the transport at the next proxy in the pool and returns
// the proxy used, if any.
func (c *Client) applyProxy() string {
	if c.proxies == nil || c.proxies.Size() == 0 {
		return ""
	}
	next := c.proxies.Next()
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		log.Warn().Str("proxy", next).Msg("skipping unparsable proxy")
		return ""
	}
	c.transport.Proxy = http.ProxyURL(parsed)
	return next
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
