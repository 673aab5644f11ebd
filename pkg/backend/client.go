package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderOrgID  = "X-Org-Id"
	HeaderUserID = "X-User-Id"

	defaultTimeout = 30 * time.Second
)

// Client talks to the hiring platform REST API on behalf of one
// (organization, user) pair. Use WithIdentity to derive a client for
// another pair; the underlying http.Client is shared.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
	tracer          trace.Tracer

	orgID  string
	userID string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

func WithRequestIDHeader(header string) Option {
	return func(c *Client) {
		c.requestIDHeader = strings.TrimSpace(header)
	}
}

func WithIdentity(orgID, userID string) Option {
	return func(c *Client) {
		c.orgID = strings.TrimSpace(orgID)
		c.userID = strings.TrimSpace(userID)
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API_URL %q", baseURL)
	}
	c := &Client{
		baseURL:         u,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		requestIDHeader: "X-Request-ID",
		tracer:          otel.Tracer("github.com/iota-uz/ats-console/pkg/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithIdentity returns a copy of c bound to the given identity pair.
func (c *Client) WithIdentity(orgID, userID string) *Client {
	cp := *c
	WithIdentity(orgID, userID)(&cp)
	return &cp
}

func (c *Client) Identity() (orgID, userID string) {
	return c.orgID, c.userID
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	// action prefixes status errors, e.g. "Failed to fetch workflows".
	action string
	// statusErrors maps specific statuses to fixed errors.
	statusErrors map[int]*Error
}

func (c *Client) requireIdentity() error {
	if c.orgID == "" || c.userID == "" {
		return ErrMissingIdentity
	}
	return nil
}

func (c *Client) do(ctx context.Context, r request) (_ []byte, err error) {
	if err := c.requireIdentity(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "backend."+r.endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("backend.endpoint", r.endpoint),
		),
	)
	start := time.Now()
	defer func() {
		observeRequest(r.endpoint, err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// r.path is already escaped
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + r.path
	if u.Path, err = url.PathUnescape(u.RawPath); err != nil {
		return nil, transportError(r.action, err)
	}
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, transportError(r.action, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderOrgID, c.orgID)
	req.Header.Set(HeaderUserID, c.userID)
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(r.action, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(r.action, err)
	}

	if fixed, ok := r.statusErrors[resp.StatusCode]; ok {
		e := *fixed
		e.Status = resp.StatusCode
		e.Body = strings.TrimSpace(string(respBody))
		return nil, &e
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(r.action, resp.StatusCode, string(respBody))
	}
	// A late cancellation must not yield data.
	if err := ctx.Err(); err != nil {
		return nil, transportError(r.action, err)
	}
	return respBody, nil
}

func moduleSegment(module string) (string, error) {
	trimmed := strings.TrimSpace(module)
	if trimmed == "" {
		return "", validationError("module is required", nil)
	}
	return url.PathEscape(trimmed), nil
}
