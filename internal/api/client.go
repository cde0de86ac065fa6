// Package api is the HTTP client for the storefront commerce REST API.
//
// Every call is JSON in, JSON out. Non-2xx responses become *model.APIError
// carrying the server's "error" field when present, so callers can show the
// server's wording and fall back to their own per-action text otherwise.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dunglas/httpsfv"
	"golang.org/x/time/rate"

	"storefront/internal/backend"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/transport"
)

// userAgent identifies this client to the storefront API.
const userAgent = "storefront-client/1.0"

// TokenSource supplies the bearer token for outgoing calls.
type TokenSource interface {
	AccessToken() string
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	HTTPClient        *http.Client // Defaults to transport.NewClient
	ChromeTLS         bool
	RequestsPerSecond float64 // 0 disables pacing
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
}

var _ backend.Storefront = (*Client)(nil)

// Client talks to the storefront API. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(token string)
}

// New creates a Client for the API rooted at opts.BaseURL (e.g. http://localhost:5000/api).
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(transport.Options{
			ChromeTLS: opts.ChromeTLS,
			UserAgent: userAgent,
		})
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// SetAuth wires the credential source and the hook run when an
// authenticated call comes back 401. The hook receives the token the
// rejected call carried. Either may be nil.
func (c *Client) SetAuth(tokens TokenSource, onUnauthorized func(token string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
	c.onUnauthorized = onUnauthorized
}

func (c *Client) auth() (string, func(string)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return "", c.onUnauthorized
	}
	return c.tokens.AccessToken(), c.onUnauthorized
}

// call describes one API request. route is the path template used for
// metrics and logs ("/cart/remove/:id"); path is the concrete path.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

// do executes the call and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	body, err := c.doRaw(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", cl.route, err)
	}
	return nil
}

// doRaw executes the call and returns the raw 2xx body.
func (c *Client) doRaw(ctx context.Context, cl call) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if cl.body != nil {
		jsonBody, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	token, onUnauthorized := c.auth()
	c.setHeaders(req, token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(cl.method, cl.route, 0, time.Since(start))
		c.logger.Debug("api request failed",
			slog.String("method", cl.method),
			slog.String("route", cl.route),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUpstreamError("storefront API", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	c.metrics.ObserveUpstream(cl.method, cl.route, resp.StatusCode, duration)
	c.logger.Debug("api request",
		slog.String("method", cl.method),
		slog.String("route", cl.route),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
		slog.String("request_id", req.Header.Get(transport.RequestIDHeader)),
	)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := parseErrorResponse(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = retryAfter(resp.Header)
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" && onUnauthorized != nil {
			onUnauthorized(token)
		}
		return nil, apiErr
	}

	return respBody, nil
}

// setHeaders sets JSON and auth headers. The request id and user agent are
// stamped by the transport.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// errorResponse is the API's error envelope. Token rejections use "msg".
type errorResponse struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

// parseErrorResponse converts a non-2xx body into an APIError.
func parseErrorResponse(statusCode int, body []byte) *model.APIError {
	var e errorResponse
	_ = json.Unmarshal(body, &e) // Best effort parse
	msg := e.Error
	if msg == "" {
		msg = e.Msg
	}
	return model.NewServerError(statusCode, msg)
}

// retryAfter reads the reset hint from a 429 response. It understands the
// structured RateLimit header (both the "reset=" dictionary form and the
// newer list form with a "t" parameter), RateLimit-Reset, and Retry-After
// in seconds. Zero means no hint.
func retryAfter(h http.Header) time.Duration {
	if values := h.Values("RateLimit"); len(values) > 0 {
		if d, ok := parseRateLimit(values); ok {
			return d
		}
	}
	for _, key := range []string{"RateLimit-Reset", "Retry-After"} {
		if v := strings.TrimSpace(h.Get(key)); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
			if key == "Retry-After" {
				if at, err := http.ParseTime(v); err == nil {
					if d := time.Until(at); d > 0 {
						return d.Round(time.Second)
					}
				}
			}
		}
	}
	return 0
}

func parseRateLimit(values []string) (time.Duration, bool) {
	if dict, err := httpsfv.UnmarshalDictionary(values); err == nil {
		if member, ok := dict.Get("reset"); ok {
			if item, ok := member.(httpsfv.Item); ok {
				if secs, ok := item.Value.(int64); ok && secs >= 0 {
					return time.Duration(secs) * time.Second, true
				}
			}
		}
	}
	if list, err := httpsfv.UnmarshalList(values); err == nil {
		for _, member := range list {
			item, ok := member.(httpsfv.Item)
			if !ok || item.Params == nil {
				continue
			}
			if t, ok := item.Params.Get("t"); ok {
				if secs, ok := t.(int64); ok && secs >= 0 {
					return time.Duration(secs) * time.Second, true
				}
			}
		}
	}
	return 0, false
}

func idPath(prefix string, id int, suffix ...string) string {
	p := prefix + "/" + strconv.Itoa(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
