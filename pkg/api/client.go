package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "storefront-client/1"
	maxBodySize      = 4 << 20
)

// IdempotencyHeader carries the client-generated checkout key.
const IdempotencyHeader = "Idempotency-Key"

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrInvalidBaseURL is returned by New for a base URL that is not absolute.
var ErrInvalidBaseURL = errors.New("api: invalid base URL")

var errServerStatus = errors.New("api: server status")

// Client calls the storefront HTTP API.
type Client struct {
	http      *http.Client
	base      *url.URL
	breaker   *gobreaker.CircuitBreaker[*response]
	logger    *slog.Logger
	userAgent string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its Jar carries the session.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithJar installs a cookie jar on the underlying HTTP client.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithBreaker guards the transport with a circuit breaker.
// Transport failures and 5xx responses count against it.
func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Client) {
		if st.Name == "" {
			st.Name = "storefront-api"
		}
		c.breaker = gobreaker.NewCircuitBreaker[*response](st)
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}

	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		base:      u,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type response struct {
	header http.Header
	body   []byte
	status int
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

type call struct {
	body   any
	header http.Header
	op     string
	method string
	path   string
	query  url.Values
}

// do performs a call and returns the raw response.
// A non-nil error is always an *Error of KindTransport.
func (c *Client) do(ctx context.Context, cl call) (*response, error) {
	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Op: cl.op, Message: "request could not be encoded", Err: err}
		}
		body = bytes.NewReader(raw)
	}

	target := c.base.String() + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, transportError(cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.execute(req)
	if err != nil && !errors.Is(err, errServerStatus) {
		c.logger.DebugContext(ctx, "api call failed",
			slog.String("op", cl.op),
			slog.String("request_id", reqID),
			slog.Any("error", err),
		)
		return nil, transportError(cl.op, err)
	}

	c.logger.DebugContext(ctx, "api call",
		slog.String("op", cl.op),
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.String("request_id", reqID),
		slog.Int("status", resp.status),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) execute(req *http.Request) (*response, error) {
	if c.breaker == nil {
		return c.roundTrip(req)
	}
	return c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(req)
	})
}

func (c *Client) roundTrip(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	r := &response{status: resp.StatusCode, header: resp.Header, body: raw}
	if r.status >= http.StatusInternalServerError {
		return r, errServerStatus
	}
	return r, nil
}

// send performs a call and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx responses become an *Error with the extracted message.
func (c *Client) send(ctx context.Context, cl call, out any) error {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(cl.op, resp.status, resp.body)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return decodeError(cl.op, resp.status, err)
	}
	return nil
}

// sendText performs a call whose success body is a message, either plain
// text or a JSON object with a "message" field.
func (c *Client) sendText(ctx context.Context, cl call) (string, error) {
	resp, err := c.do(ctx, cl)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", statusError(cl.op, resp.status, resp.body)
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return "", nil
	}
	return extractMessage(resp.body, resp.status), nil
}

// isQuiet reports whether err should be replaced with a read-path default.
func isQuiet(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrTransport)
}
