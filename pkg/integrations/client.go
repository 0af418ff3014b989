package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/httputil"
	"github.com/matzehuels/tokendeck/pkg/observability"
)

// Client provides shared HTTP functionality for the API clients.
// It handles rate limiting, retry logic, status mapping and common
// request headers.
type Client struct {
	http     *http.Client
	headers  map[string]string
	limiter  *rate.Limiter
	attempts int
	delay    time.Duration
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithRetry sets the attempt count and first backoff delay.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client with the given default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, opts ...ClientOption) *Client {
	c := &Client{
		http:     NewHTTPClient(0),
		headers:  headers,
		attempts: httputil.DefaultAttempts,
		delay:    httputil.DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one HTTP exchange. Body is kept as bytes so the request
// can be replayed on retry.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do sends req, retrying transient failures, and returns the response once
// the server answers with a 2xx status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		resp, err = c.doRequest(ctx, req)
		return err
	})
	if err != nil {
		return nil, unwrapRetryable(err)
	}
	return resp, nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	return c.JSON(ctx, http.MethodGet, url, headers, nil, v)
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// JSON sends in (when non-nil) as a JSON body and decodes the response into
// out (when non-nil).
func (c *Client) JSON(ctx context.Context, method, url string, headers map[string]string, in, out any) error {
	req := Request{Method: method, URL: url, Headers: headers}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
		}
		req.Body = body
		req.Headers = withHeader(headers, "Content-Type", "application/json")
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode response from %s", url)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, r Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, r.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, r.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := errors.ErrCodeNetwork
		var ne net.Error
		if stderrors.As(err, &ne) && ne.Timeout() {
			code = errors.ErrCodeTimeout
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(code, err, "%s %s", r.Method, path)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		hooks.OnError(ctx, r.Method, host, path, err)
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read response")}
	}
	hooks.OnResponse(ctx, r.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, data); err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: %s", resp.Status, snippet(body))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "%s: %s", resp.Status, snippet(body))
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{
			Err:   errors.New(errors.ErrCodeRateLimited, "%s: %s", resp.Status, snippet(body)),
			After: httputil.RetryAfter(resp.Header, time.Now()),
		}
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s: %s", resp.Status, snippet(body))}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s: %s", resp.Status, snippet(body))
	}
}

// unwrapRetryable strips the retry marker so callers see the coded error.
func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

func withHeader(h map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for hk, hv := range h {
		out[hk] = hv
	}
	if _, ok := out[k]; !ok {
		out[k] = v
	}
	return out
}
